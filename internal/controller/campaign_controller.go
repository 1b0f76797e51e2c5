// internal/controller/campaign_controller.go
package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/unclebandit/jetmatch-backend/internal/errors"
	"github.com/unclebandit/jetmatch-backend/internal/handler"
	"github.com/unclebandit/jetmatch-backend/internal/model"
	"github.com/unclebandit/jetmatch-backend/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
}

func (c *CampaignController) Routes(r chi.Router) {
	r.Route("/campaigns", func(r chi.Router) {
		r.Post("/", c.CreateCampaign)
		r.Get("/", c.ListCampaigns)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", c.GetCampaign)
			r.Patch("/", c.UpdateCampaign)
			r.Delete("/", c.DeleteCampaign)

			r.Post("/submit", c.SubmitForApproval)
			r.Post("/approve", c.ApproveCampaign)
			r.Post("/apply", c.ApplyToCampaign)
			r.Post("/assign", c.AssignCampaign)
			r.Post("/accept", c.AcceptCampaign)
			r.Post("/reject", c.RejectCampaign)
			r.Post("/complete", c.CompleteCampaign)
			r.Post("/applicants/{applicantID}/accept", c.AcceptApplicant)
			r.Get("/payments", c.ListPayments)
		})
	})
	r.Patch("/payments/{id}", c.UpdatePayment)
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	actor, err := handler.ActorFromRequest(r)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	var body service.CreateCampaignInput
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.WriteError(w, err)
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(r.Context(), actor, body)
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	// Parse query parameters
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	filter := model.CampaignFilter{
		BusinessID:   q.Get("business_id"),
		InfluencerID: q.Get("influencer_id"),
		Status:       model.CampaignStatus(q.Get("status")),
	}

	// Fetch campaigns and pagination info from service
	campaigns, pagination, err := c.CampaignService.ListCampaigns(r.Context(), filter, page, pageSize)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	handler.WriteList(w, campaigns, pagination)
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	campaign, err := c.CampaignService.GetCampaign(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, campaign)
}

// UpdateCampaign accepts editable fields only; a body naming status or
// applicants is rejected as an unknown field.
func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var patch model.CampaignPatch
	if err := handler.DecodeJSON(r, &patch); err != nil {
		handler.WriteError(w, err)
		return
	}

	campaign, err := c.CampaignService.UpdateCampaign(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := c.CampaignService.DeleteCampaign(r.Context(), id); err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
}

// ====================== Transitions ======================

type transitionFunc func(ctx context.Context, id string) (*model.Campaign, error)

func (c *CampaignController) runTransition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	campaign, err := fn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) SubmitForApproval(w http.ResponseWriter, r *http.Request) {
	c.runTransition(w, r, c.CampaignService.SubmitForApproval)
}

func (c *CampaignController) ApproveCampaign(w http.ResponseWriter, r *http.Request) {
	c.runTransition(w, r, c.CampaignService.ApproveCampaign)
}

func (c *CampaignController) AcceptCampaign(w http.ResponseWriter, r *http.Request) {
	c.runTransition(w, r, c.CampaignService.AcceptCampaign)
}

func (c *CampaignController) RejectCampaign(w http.ResponseWriter, r *http.Request) {
	c.runTransition(w, r, c.CampaignService.RejectCampaign)
}

// ApplyToCampaign takes the influencer from the body, or from the actor headers
// when the body is empty.
func (c *CampaignController) ApplyToCampaign(w http.ResponseWriter, r *http.Request) {
	var body model.InfluencerRef
	if err := handler.DecodeOptionalJSON(r, &body); err != nil {
		handler.WriteError(w, err)
		return
	}
	if body.ID == "" {
		actor, err := handler.ActorFromRequest(r)
		if err != nil {
			handler.WriteError(w, err)
			return
		}
		if actor.Role != service.RoleInfluencer {
			handler.WriteError(w, appErrors.NewValidation("apply to campaign", "influencer id is required"))
			return
		}
		body = model.InfluencerRef{ID: actor.ID, Name: actor.Name, Email: actor.Email}
	}

	c.runTransition(w, r, func(ctx context.Context, id string) (*model.Campaign, error) {
		return c.CampaignService.ApplyToCampaign(ctx, id, body)
	})
}

func (c *CampaignController) AssignCampaign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		InfluencerID   string `json:"influencer_id"`
		InfluencerName string `json:"influencer_name"`
	}
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.WriteError(w, err)
		return
	}

	c.runTransition(w, r, func(ctx context.Context, id string) (*model.Campaign, error) {
		return c.CampaignService.AssignCampaign(ctx, id, body.InfluencerID, body.InfluencerName)
	})
}

func (c *CampaignController) AcceptApplicant(w http.ResponseWriter, r *http.Request) {
	applicantID := chi.URLParam(r, "applicantID")
	c.runTransition(w, r, func(ctx context.Context, id string) (*model.Campaign, error) {
		return c.CampaignService.AcceptApplicant(ctx, id, applicantID)
	})
}

func (c *CampaignController) CompleteCampaign(w http.ResponseWriter, r *http.Request) {
	var body model.PaymentData
	if err := handler.DecodeOptionalJSON(r, &body); err != nil {
		handler.WriteError(w, err)
		return
	}

	campaign, payment, err := c.CampaignService.CompleteCampaign(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]any{
		"campaign": campaign,
		"payment":  payment,
	})
}

// ====================== Payments ======================

func (c *CampaignController) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := c.CampaignService.ListPayments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, payments)
}

func (c *CampaignController) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status model.PaymentStatus `json:"status"`
	}
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.WriteError(w, err)
		return
	}

	payment, err := c.CampaignService.UpdatePaymentStatus(r.Context(), chi.URLParam(r, "id"), body.Status)
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, payment)
}
