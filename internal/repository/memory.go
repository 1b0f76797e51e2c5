package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	appErrors "github.com/unclebandit/jetmatch-backend/internal/errors"
	"github.com/unclebandit/jetmatch-backend/internal/model"
)

// MemoryStore keeps campaigns, payments and influencers in process. One mutex
// guards all three maps so Complete can commit both records together.
type MemoryStore struct {
	mu          sync.Mutex
	campaigns   map[string]*model.Campaign
	payments    map[string]*model.Payment
	influencers map[string]*model.Influencer
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		campaigns:   make(map[string]*model.Campaign),
		payments:    make(map[string]*model.Payment),
		influencers: make(map[string]*model.Influencer),
	}
}

func (s *MemoryStore) Campaigns() *MemoryCampaignRepository {
	return &MemoryCampaignRepository{store: s}
}

func (s *MemoryStore) Payments() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{store: s}
}

func (s *MemoryStore) Influencers() *MemoryInfluencerRepository {
	return &MemoryInfluencerRepository{store: s}
}

// ====================== Campaigns ======================

type MemoryCampaignRepository struct {
	store *MemoryStore
}

func (r *MemoryCampaignRepository) Create(_ context.Context, c *model.Campaign) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.campaigns[c.ID]; ok {
		return appErrors.NewConflict("create campaign", "campaign %s already exists", c.ID)
	}
	s.campaigns[c.ID] = c.Clone()
	return nil
}

func (r *MemoryCampaignRepository) GetByID(_ context.Context, id string) (*model.Campaign, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return c.Clone(), nil
}

func (r *MemoryCampaignRepository) List(_ context.Context, filter model.CampaignFilter, offset, limit int) ([]*model.Campaign, int, error) {
	s := r.store
	s.mu.Lock()
	matched := []*model.Campaign{}
	for _, c := range s.campaigns {
		if filter.Match(c) {
			matched = append(matched, c.Clone())
		}
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []*model.Campaign{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *MemoryCampaignRepository) Update(_ context.Context, id string, patch model.CampaignPatch) (*model.Campaign, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	patch.Apply(c)
	now := time.Now().UTC()
	c.UpdatedAt = &now
	return c.Clone(), nil
}

func (r *MemoryCampaignRepository) Delete(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.campaigns[id]; !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	delete(s.campaigns, id)
	return nil
}

func (r *MemoryCampaignRepository) Mutate(_ context.Context, id string, fn MutateFunc) (*model.Campaign, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	s.campaigns[id] = working
	return working.Clone(), nil
}

func (r *MemoryCampaignRepository) Complete(_ context.Context, id string, fn CompleteFunc) (*model.Campaign, *model.Payment, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.campaigns[id]
	if !ok {
		return nil, nil, appErrors.NewCampaignNotFound(id)
	}
	working := current.Clone()
	p, err := fn(working)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, appErrors.NewValidation("complete campaign", "no payment produced for %s", id)
	}
	for _, existing := range s.payments {
		if existing.CampaignID == p.CampaignID {
			return nil, nil, appErrors.NewConflict("create payment", "campaign %s already has a payment", p.CampaignID)
		}
	}

	stored := *p
	s.payments[p.ID] = &stored
	s.campaigns[id] = working
	return working.Clone(), p, nil
}

// ====================== Payments ======================

type MemoryPaymentRepository struct {
	store *MemoryStore
}

func (r *MemoryPaymentRepository) GetByID(_ context.Context, id string) (*model.Payment, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, appErrors.NewPaymentNotFound(id)
	}
	out := *p
	return &out, nil
}

func (r *MemoryPaymentRepository) ListByCampaign(_ context.Context, campaignID string) ([]*model.Payment, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	payments := []*model.Payment{}
	for _, p := range s.payments {
		if p.CampaignID == campaignID {
			out := *p
			payments = append(payments, &out)
		}
	}
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].CreatedAt.After(payments[j].CreatedAt)
	})
	return payments, nil
}

func (r *MemoryPaymentRepository) UpdateStatus(_ context.Context, id string, status model.PaymentStatus) error {
	if !status.Valid() {
		return appErrors.NewValidation("update payment", "unknown payment status %q", status)
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return appErrors.NewPaymentNotFound(id)
	}
	p.Status = status
	return nil
}

// ====================== Influencers ======================

type MemoryInfluencerRepository struct {
	store *MemoryStore
}

func (r *MemoryInfluencerRepository) GetByID(_ context.Context, id string) (*model.Influencer, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	inf, ok := s.influencers[id]
	if !ok {
		return nil, appErrors.NewInfluencerNotFound(id)
	}
	out := *inf
	return &out, nil
}

func (r *MemoryInfluencerRepository) GetByHandle(_ context.Context, handle string) (*model.Influencer, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, inf := range s.influencers {
		if inf.Handle != "" && inf.Handle == handle {
			out := *inf
			return &out, nil
		}
	}
	return nil, appErrors.NewInfluencerNotFound(handle)
}

func (r *MemoryInfluencerRepository) ListAll(_ context.Context) ([]model.Influencer, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	influencers := make([]model.Influencer, 0, len(s.influencers))
	for _, inf := range s.influencers {
		influencers = append(influencers, *inf)
	}
	sort.Slice(influencers, func(i, j int) bool {
		return influencers[i].Name < influencers[j].Name
	})
	return influencers, nil
}

func (r *MemoryInfluencerRepository) Upsert(_ context.Context, inf *model.Influencer) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, other := range s.influencers {
		if id != inf.ID && inf.Handle != "" && other.Handle == inf.Handle {
			return appErrors.NewConflict("upsert influencer", "handle %s is taken", inf.Handle)
		}
	}
	stored := *inf
	if existing, ok := s.influencers[inf.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	s.influencers[inf.ID] = &stored
	return nil
}

var (
	_ CampaignRepositoryInterface   = (*MemoryCampaignRepository)(nil)
	_ PaymentRepositoryInterface    = (*MemoryPaymentRepository)(nil)
	_ InfluencerRepositoryInterface = (*MemoryInfluencerRepository)(nil)
)
