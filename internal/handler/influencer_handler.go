// internal/handler/influencer_handler.go
package handler

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/unclebandit/jetmatch-backend/internal/errors"
	"github.com/unclebandit/jetmatch-backend/internal/model"
	"github.com/unclebandit/jetmatch-backend/internal/service"
)

// InfluencerHandler holds the dependencies for influencer and scoring HTTP handlers
type InfluencerHandler struct {
	Service *service.InfluencerService
}

func (h *InfluencerHandler) Routes(r chi.Router) {
	r.Get("/influencers", h.ListInfluencers)
	r.Post("/influencers", h.RegisterInfluencer)
	r.Get("/influencers/{handle}/profile", h.GetProfile)
	r.Post("/scoring/jetscore", h.ScoreJet)
	r.Post("/scoring/valuation", h.Valuation)
}

// GetProfile returns the scored profile for a social handle
func (h *InfluencerHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	log.Println("📥 Profile requested for", handle)

	profile, err := h.Service.GetProfile(r.Context(), handle)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, profile)
}

func (h *InfluencerHandler) ListInfluencers(w http.ResponseWriter, r *http.Request) {
	influencers, err := h.Service.ListInfluencers(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, influencers)
}

func (h *InfluencerHandler) RegisterInfluencer(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Email          string `json:"email"`
		ProfilePicture string `json:"profile_picture"`
		Handle         string `json:"handle"`
	}
	if err := DecodeJSON(r, &payload); err != nil {
		WriteError(w, err)
		return
	}

	inf, err := h.Service.RegisterInfluencer(r.Context(), model.Influencer{
		ID:             payload.ID,
		Name:           payload.Name,
		Email:          payload.Email,
		ProfilePicture: payload.ProfilePicture,
		Handle:         payload.Handle,
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, inf)
}

// ScoreJet scores an ad hoc snapshot
func (h *InfluencerHandler) ScoreJet(w http.ResponseWriter, r *http.Request) {
	var snap model.MetricsSnapshot
	if err := DecodeJSON(r, &snap); err != nil {
		WriteError(w, err)
		return
	}
	score, valuation := h.Service.ScoreSnapshot(snap)
	WriteJSON(w, http.StatusOK, map[string]any{
		"jet_score": score,
		"valuation": valuation,
	})
}

// Valuation prices a post from already known figures
func (h *InfluencerHandler) Valuation(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		FollowersCount *int64   `json:"followers_count"`
		JetScore       *int     `json:"jet_score"`
		AvgEngagement  *float64 `json:"avg_engagement"`
	}
	if err := DecodeJSON(r, &payload); err != nil {
		WriteError(w, err)
		return
	}
	missing := []string{}
	if payload.FollowersCount == nil {
		missing = append(missing, "followers_count")
	}
	if payload.JetScore == nil {
		missing = append(missing, "jet_score")
	}
	if len(missing) > 0 {
		WriteError(w, appErrors.NewValidation("valuation", "missing %s", strings.Join(missing, ", ")))
		return
	}
	if *payload.JetScore < 0 || *payload.JetScore > 100 {
		WriteError(w, appErrors.NewValidation("valuation", "jet_score must be between 0 and 100"))
		return
	}
	avg := 0.0
	if payload.AvgEngagement != nil {
		avg = *payload.AvgEngagement
	}
	WriteJSON(w, http.StatusOK, h.Service.Value(*payload.FollowersCount, *payload.JetScore, avg))
}
