// internal/service/influencer_service.go
package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/jetmatch-backend/internal/errors"
	"github.com/unclebandit/jetmatch-backend/internal/metrics"
	"github.com/unclebandit/jetmatch-backend/internal/model"
	"github.com/unclebandit/jetmatch-backend/internal/queue"
	"github.com/unclebandit/jetmatch-backend/internal/repository"
	"github.com/unclebandit/jetmatch-backend/internal/scoring"
)

// InfluencerProfile is what the UI shows on an influencer page.
type InfluencerProfile struct {
	Influencer    *model.Influencer     `json:"influencer,omitempty"`
	Snapshot      model.MetricsSnapshot `json:"snapshot"`
	JetScore      scoring.JetScore      `json:"jet_score"`
	Valuation     scoring.Valuation     `json:"valuation"`
	Stale         bool                  `json:"stale"`
	RefreshQueued bool                  `json:"refresh_queued"`
}

type InfluencerService struct {
	InfluencerRepo repository.InfluencerRepositoryInterface
	Cache          metrics.Cache
	Feed           metrics.Feed
	Queue          queue.Queue
	Policy         scoring.Policy
	StaleAfter     time.Duration

	// RefreshCooldown is how long a queued refresh suppresses another one for
	// the same handle. Zero means DefaultRefreshCooldown.
	RefreshCooldown time.Duration

	Now func() time.Time

	mu      sync.Mutex
	pending map[string]time.Time
}

const DefaultRefreshCooldown = 5 * time.Minute

func (s *InfluencerService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *InfluencerService) staleAfter() time.Duration {
	if s.StaleAfter > 0 {
		return s.StaleAfter
	}
	return scoring.DefaultStaleAfter
}

// GetProfile serves the cached snapshot and scores it. A missing snapshot is
// fetched inline; a stale one is served as is while a refresh is queued.
func (s *InfluencerService) GetProfile(ctx context.Context, handle string) (*InfluencerProfile, error) {
	const op = "get influencer profile"
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, appErrors.NewValidation(op, "handle is required")
	}

	snap, err := s.Cache.Get(ctx, handle)
	if err != nil {
		return nil, appErrors.NewExternal(op, err)
	}
	if snap == nil {
		snap, err = s.fetch(ctx, handle)
		if err != nil {
			return nil, err
		}
	}

	profile := &InfluencerProfile{
		Snapshot: *snap,
		Stale:    scoring.ShouldRefreshAfter(snap.LastFetched, s.now(), s.staleAfter()),
	}
	if profile.Stale {
		profile.RefreshQueued = s.queueRefresh(handle)
	}

	profile.JetScore = scoring.ScoreJet(*snap)
	profile.Valuation = scoring.ComputeValuation(s.Policy, snap.FollowersCount, profile.JetScore.Score, snap.AvgEngagement())

	if s.InfluencerRepo != nil {
		inf, err := s.InfluencerRepo.GetByHandle(ctx, handle)
		switch {
		case err == nil:
			profile.Influencer = inf
		case !appErrors.Is(err, appErrors.KindNotFound):
			return nil, err
		}
	}
	return profile, nil
}

// Refresh re-fetches one handle and overwrites the cached snapshot.
func (s *InfluencerService) Refresh(ctx context.Context, handle string) error {
	_, err := s.fetch(ctx, handle)
	return err
}

func (s *InfluencerService) fetch(ctx context.Context, handle string) (*model.MetricsSnapshot, error) {
	const op = "fetch metrics"
	res := s.Feed.Fetch(ctx, handle)
	if !res.Success || res.Snapshot == nil {
		msg := res.Error
		if msg == "" {
			msg = "feed returned no snapshot"
		}
		return nil, appErrors.NewExternal(op, errors.New(msg))
	}
	snap := res.Snapshot
	if snap.Handle == "" {
		snap.Handle = handle
	}
	if snap.LastFetched == nil {
		now := s.now()
		snap.LastFetched = &now
	}
	if err := s.Cache.Put(ctx, snap); err != nil {
		log.Println("⚠️ failed to cache snapshot for", handle+":", err)
	}
	s.clearPending(handle)
	return snap, nil
}

func (s *InfluencerService) refreshCooldown() time.Duration {
	if s.RefreshCooldown > 0 {
		return s.RefreshCooldown
	}
	return DefaultRefreshCooldown
}

// queueRefresh publishes one refresh job per handle per cooldown window. It
// reports whether a refresh is pending after the call.
func (s *InfluencerService) queueRefresh(handle string) bool {
	if s.Queue == nil {
		return false
	}
	now := s.now()

	s.mu.Lock()
	if at, ok := s.pending[handle]; ok && now.Sub(at) < s.refreshCooldown() {
		s.mu.Unlock()
		return true
	}
	if s.pending == nil {
		s.pending = make(map[string]time.Time)
	}
	s.pending[handle] = now
	s.mu.Unlock()

	job := model.MetricsRefreshJob{Handle: handle, RequestedAt: now}
	if err := s.Queue.Publish(queue.TopicMetricsRefresh, job); err != nil {
		log.Println("⚠️ failed to queue metrics refresh for", handle+":", err)
		s.clearPending(handle)
		return false
	}
	return true
}

func (s *InfluencerService) clearPending(handle string) {
	s.mu.Lock()
	delete(s.pending, handle)
	s.mu.Unlock()
}

// ====================== Directory ======================

// RegisterInfluencer creates or updates a directory entry.
func (s *InfluencerService) RegisterInfluencer(ctx context.Context, inf model.Influencer) (*model.Influencer, error) {
	const op = "register influencer"
	inf.Name = strings.TrimSpace(inf.Name)
	inf.Handle = strings.TrimSpace(inf.Handle)
	if inf.Name == "" {
		return nil, appErrors.NewValidation(op, "name is required")
	}
	if inf.ID == "" {
		inf.ID = uuid.NewString()
	}
	if inf.CreatedAt.IsZero() {
		inf.CreatedAt = s.now()
	}
	if err := s.InfluencerRepo.Upsert(ctx, &inf); err != nil {
		return nil, err
	}
	return s.InfluencerRepo.GetByID(ctx, inf.ID)
}

func (s *InfluencerService) ListInfluencers(ctx context.Context) ([]model.Influencer, error) {
	return s.InfluencerRepo.ListAll(ctx)
}

// ScoreSnapshot prices an ad hoc snapshot with the configured policy.
func (s *InfluencerService) ScoreSnapshot(snap model.MetricsSnapshot) (scoring.JetScore, scoring.Valuation) {
	score := scoring.ScoreJet(snap)
	return score, s.Value(snap.FollowersCount, score.Score, snap.AvgEngagement())
}

func (s *InfluencerService) Value(followers int64, jetScore int, avgEngagement float64) scoring.Valuation {
	return scoring.ComputeValuation(s.Policy, followers, jetScore, avgEngagement)
}
