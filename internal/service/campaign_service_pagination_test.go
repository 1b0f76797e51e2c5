package service_test

import (
	"context"
	"math"
	"testing"

	"github.com/unclebandit/jetmatch-backend/internal/model"
	"github.com/unclebandit/jetmatch-backend/internal/repository"
	"github.com/unclebandit/jetmatch-backend/internal/service"
)

// MockCampaignPaginationRepo records the window it was asked for
type MockCampaignPaginationRepo struct {
	repository.CampaignRepositoryInterface
	offset, limit int
	filter        model.CampaignFilter
}

func (m *MockCampaignPaginationRepo) List(_ context.Context, filter model.CampaignFilter, offset, limit int) ([]*model.Campaign, int, error) {
	m.offset, m.limit, m.filter = offset, limit, filter
	all := []*model.Campaign{
		{ID: "c5", Title: "C5"},
		{ID: "c4", Title: "C4"},
		{ID: "c3", Title: "C3"},
		{ID: "c2", Title: "C2"},
		{ID: "c1", Title: "C1"},
	}

	start := offset
	end := offset + limit

	if start >= len(all) {
		return []*model.Campaign{}, len(all), nil
	}
	if end > len(all) {
		end = len(all)
	}

	return all[start:end], len(all), nil
}

func TestListCampaignsPagination(t *testing.T) {
	repo := &MockCampaignPaginationRepo{}
	svc := &service.CampaignService{CampaignRepo: repo}
	ctx := context.Background()

	campaigns, pagination, err := svc.ListCampaigns(ctx, model.CampaignFilter{BusinessID: "b1"}, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if repo.offset != 2 || repo.limit != 2 || repo.filter.BusinessID != "b1" {
		t.Errorf("unexpected window offset=%d limit=%d filter=%+v", repo.offset, repo.limit, repo.filter)
	}
	if len(campaigns) != 2 || campaigns[0].ID != "c3" {
		t.Errorf("unexpected page %+v", campaigns)
	}
	if pagination["page"] != 2 || pagination["page_size"] != 2 || pagination["total_count"] != 5 || pagination["total_pages"] != 3 {
		t.Errorf("unexpected pagination %v", pagination)
	}
}

func TestListCampaignsClampsPaging(t *testing.T) {
	repo := &MockCampaignPaginationRepo{}
	svc := &service.CampaignService{CampaignRepo: repo}
	ctx := context.Background()

	_, pagination, err := svc.ListCampaigns(ctx, model.CampaignFilter{}, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if pagination["page"] != 1 || pagination["page_size"] != 20 || repo.offset != 0 {
		t.Errorf("expected defaults, got %v", pagination)
	}

	_, pagination, _ = svc.ListCampaigns(ctx, model.CampaignFilter{}, 1, 1000)
	if pagination["page_size"] != 100 || repo.limit != 100 {
		t.Errorf("expected page size capped at 100, got %v", pagination)
	}

	campaigns, _, _ := svc.ListCampaigns(ctx, model.CampaignFilter{}, 9, 10)
	if len(campaigns) != 0 {
		t.Errorf("expected empty page past the end, got %d", len(campaigns))
	}
}

func TestListCampaignsRejectsUnknownStatus(t *testing.T) {
	svc := &service.CampaignService{CampaignRepo: &MockCampaignPaginationRepo{}}
	if _, _, err := svc.ListCampaigns(context.Background(), model.CampaignFilter{Status: "archived"}, 1, 10); err == nil {
		t.Error("expected error for unknown status filter")
	}
}

func TestListCampaignsHugePageDoesNotOverflow(t *testing.T) {
	repo := &MockCampaignPaginationRepo{}
	svc := &service.CampaignService{CampaignRepo: repo}
	ctx := context.Background()

	campaigns, _, err := svc.ListCampaigns(ctx, model.CampaignFilter{}, 184467440737095517, 100)
	if err != nil {
		t.Fatal(err)
	}
	if repo.offset < 0 {
		t.Errorf("offset overflowed to %d", repo.offset)
	}
	if len(campaigns) != 0 {
		t.Errorf("expected empty page, got %d", len(campaigns))
	}

	store := repository.NewMemoryStore()
	store.Campaigns().Create(ctx, &model.Campaign{ID: "c1", Title: "C1", Status: model.StatusDraft, Applicants: []model.Applicant{}})
	svc = &service.CampaignService{CampaignRepo: store.Campaigns()}
	campaigns, pagination, err := svc.ListCampaigns(ctx, model.CampaignFilter{}, math.MaxInt, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(campaigns) != 0 || pagination["total_count"] != 1 {
		t.Errorf("expected an empty page over one campaign, got %d %v", len(campaigns), pagination)
	}

	// A negative window from a direct caller reads from the start.
	got, total, err := store.Campaigns().List(ctx, model.CampaignFilter{}, -16, 10)
	if err != nil || total != 1 || len(got) != 1 {
		t.Errorf("expected the first page for a negative offset, got %d/%d (%v)", len(got), total, err)
	}
}
