package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	appErrors "github.com/unclebandit/jetmatch-backend/internal/errors"
	"github.com/unclebandit/jetmatch-backend/internal/metrics"
	"github.com/unclebandit/jetmatch-backend/internal/model"
	"github.com/unclebandit/jetmatch-backend/internal/repository"
	"github.com/unclebandit/jetmatch-backend/internal/scoring"
	"github.com/unclebandit/jetmatch-backend/internal/service"
)

// MockFeed serves canned snapshots and counts calls
type MockFeed struct {
	mu        sync.Mutex
	snapshots map[string]model.MetricsSnapshot
	calls     int
}

func (f *MockFeed) Fetch(_ context.Context, handle string) metrics.FetchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	snap, ok := f.snapshots[handle]
	if !ok {
		return metrics.FetchResult{Error: "unknown handle " + handle}
	}
	return metrics.FetchResult{Success: true, Snapshot: &snap}
}

var profileNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func newInfluencerService(feed *MockFeed) (*service.InfluencerService, *metrics.MemoryCache, *MockQueue, *repository.MemoryStore) {
	cache := metrics.NewMemoryCache()
	q := &MockQueue{}
	store := repository.NewMemoryStore()
	return &service.InfluencerService{
		InfluencerRepo: store.Influencers(),
		Cache:          cache,
		Feed:           feed,
		Queue:          q,
		Policy:         scoring.DefaultPolicy(),
		Now:            func() time.Time { return profileNow },
	}, cache, q, store
}

func TestGetProfileFetchesOnMiss(t *testing.T) {
	feed := &MockFeed{snapshots: map[string]model.MetricsSnapshot{
		"ada": {FollowersCount: 150_000, EngagementRatePercent: 2.5, PostsPerWeek: 1.5, AvgLikes: 2500, AvgComments: 500},
	}}
	svc, cache, q, store := newInfluencerService(feed)
	ctx := context.Background()
	store.Influencers().Upsert(ctx, &model.Influencer{ID: "u1", Name: "Ada", Handle: "ada"})

	p, err := svc.GetProfile(ctx, "ada")
	if err != nil {
		t.Fatal(err)
	}
	if p.Stale || p.RefreshQueued {
		t.Errorf("fresh fetch should not be stale: %+v", p)
	}
	if p.Snapshot.LastFetched == nil || !p.Snapshot.LastFetched.Equal(profileNow) {
		t.Errorf("expected last_fetched stamped, got %v", p.Snapshot.LastFetched)
	}
	if p.JetScore.Score != scoring.ComputeJetScore(p.Snapshot) {
		t.Errorf("profile score drifted from the scoring function")
	}
	want := scoring.ComputeValuation(scoring.DefaultPolicy(), 150_000, p.JetScore.Score, 3000)
	if p.Valuation != want {
		t.Errorf("valuation = %+v, want %+v", p.Valuation, want)
	}
	if p.Influencer == nil || p.Influencer.ID != "u1" {
		t.Errorf("expected directory entry, got %+v", p.Influencer)
	}

	cached, _ := cache.Get(ctx, "ada")
	if cached == nil {
		t.Fatal("snapshot was not cached")
	}
	if _, err := svc.GetProfile(ctx, "ada"); err != nil {
		t.Fatal(err)
	}
	if feed.calls != 1 {
		t.Errorf("expected one feed call, got %d", feed.calls)
	}
	if len(q.published["metrics_refresh"]) != 0 {
		t.Error("fresh snapshot queued a refresh")
	}
}

func TestGetProfileStaleWhileRevalidate(t *testing.T) {
	feed := &MockFeed{}
	svc, cache, q, _ := newInfluencerService(feed)
	ctx := context.Background()

	old := profileNow.Add(-8 * 24 * time.Hour)
	cache.Put(ctx, &model.MetricsSnapshot{Handle: "grace", FollowersCount: 500, LastFetched: &old})

	p, err := svc.GetProfile(ctx, "grace")
	if err != nil {
		t.Fatal(err)
	}
	if !p.Stale || !p.RefreshQueued {
		t.Errorf("expected stale profile with queued refresh, got %+v", p)
	}
	if p.JetScore.Score != 3 {
		t.Errorf("expected cached snapshot to be scored (3), got %d", p.JetScore.Score)
	}
	if feed.calls != 0 {
		t.Errorf("stale read must not call the feed inline, got %d calls", feed.calls)
	}
	jobs := q.published["metrics_refresh"]
	if len(jobs) != 1 || jobs[0].(model.MetricsRefreshJob).Handle != "grace" {
		t.Errorf("unexpected refresh jobs %+v", jobs)
	}
	if p.Influencer != nil {
		t.Errorf("unknown directory entry should be omitted")
	}
}

func TestGetProfileQueuesOneRefreshPerHandle(t *testing.T) {
	svc, cache, q, _ := newInfluencerService(&MockFeed{})
	ctx := context.Background()
	old := profileNow.Add(-8 * 24 * time.Hour)
	cache.Put(ctx, &model.MetricsSnapshot{Handle: "grace", FollowersCount: 500, LastFetched: &old})

	// A failed publish does not hold the slot.
	q.fail = true
	if p, _ := svc.GetProfile(ctx, "grace"); p.RefreshQueued {
		t.Fatal("expected no queued refresh while the broker is down")
	}
	q.fail = false

	for i := 0; i < 3; i++ {
		p, err := svc.GetProfile(ctx, "grace")
		if err != nil {
			t.Fatal(err)
		}
		if !p.RefreshQueued {
			t.Errorf("view %d: expected refresh reported as queued", i)
		}
	}
	if jobs := q.published["metrics_refresh"]; len(jobs) != 1 {
		t.Fatalf("expected one refresh job for repeated views, got %d", len(jobs))
	}

	later := profileNow.Add(service.DefaultRefreshCooldown + time.Second)
	svc.Now = func() time.Time { return later }
	if _, err := svc.GetProfile(ctx, "grace"); err != nil {
		t.Fatal(err)
	}
	if jobs := q.published["metrics_refresh"]; len(jobs) != 2 {
		t.Errorf("expected a new job after the cooldown, got %d", len(jobs))
	}
}

func TestGetProfileQueueFailureStillServes(t *testing.T) {
	svc, cache, q, _ := newInfluencerService(&MockFeed{})
	q.fail = true
	ctx := context.Background()
	cache.Put(ctx, &model.MetricsSnapshot{Handle: "grace"})

	p, err := svc.GetProfile(ctx, "grace")
	if err != nil {
		t.Fatalf("queue failure leaked: %v", err)
	}
	if !p.Stale || p.RefreshQueued {
		t.Errorf("expected stale without queued refresh, got %+v", p)
	}
}

func TestGetProfileErrors(t *testing.T) {
	svc, _, _, _ := newInfluencerService(&MockFeed{})
	ctx := context.Background()

	if _, err := svc.GetProfile(ctx, " "); !appErrors.Is(err, appErrors.KindValidation) {
		t.Errorf("expected validation, got %v", err)
	}
	if _, err := svc.GetProfile(ctx, "nobody"); !appErrors.Is(err, appErrors.KindExternalService) {
		t.Errorf("expected external_service, got %v", err)
	}
}

func TestRefreshOverwritesCache(t *testing.T) {
	feed := &MockFeed{snapshots: map[string]model.MetricsSnapshot{"ada": {FollowersCount: 2000}}}
	svc, cache, _, _ := newInfluencerService(feed)
	ctx := context.Background()
	cache.Put(ctx, &model.MetricsSnapshot{Handle: "ada", FollowersCount: 1})

	if err := svc.Refresh(ctx, "ada"); err != nil {
		t.Fatal(err)
	}
	got, _ := cache.Get(ctx, "ada")
	if got.FollowersCount != 2000 || got.Handle != "ada" {
		t.Errorf("cache not refreshed: %+v", got)
	}
	if err := svc.Refresh(ctx, "ghost"); !appErrors.Is(err, appErrors.KindExternalService) {
		t.Errorf("expected external_service, got %v", err)
	}
}

func TestRegisterInfluencer(t *testing.T) {
	svc, _, _, _ := newInfluencerService(&MockFeed{})
	ctx := context.Background()

	inf, err := svc.RegisterInfluencer(ctx, model.Influencer{Name: " Ada ", Handle: "ada"})
	if err != nil {
		t.Fatal(err)
	}
	if inf.ID == "" || inf.Name != "Ada" || !inf.CreatedAt.Equal(profileNow) {
		t.Errorf("unexpected influencer %+v", inf)
	}
	if _, err := svc.RegisterInfluencer(ctx, model.Influencer{Name: "Impostor", Handle: "ada"}); !appErrors.Is(err, appErrors.KindConflict) {
		t.Errorf("expected conflict for taken handle, got %v", err)
	}
	if _, err := svc.RegisterInfluencer(ctx, model.Influencer{}); !appErrors.Is(err, appErrors.KindValidation) {
		t.Errorf("expected validation, got %v", err)
	}

	all, err := svc.ListInfluencers(ctx)
	if err != nil || len(all) != 1 {
		t.Errorf("expected one influencer, got %d (%v)", len(all), err)
	}
}
