package repository_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/unclebandit/jetmatch-backend/internal/db"
	appErrors "github.com/unclebandit/jetmatch-backend/internal/errors"
	"github.com/unclebandit/jetmatch-backend/internal/model"
	"github.com/unclebandit/jetmatch-backend/internal/repository"
)

type stores struct {
	campaigns repository.CampaignRepositoryInterface
	payments  repository.PaymentRepositoryInterface
}

func memoryStores(t *testing.T) stores {
	s := repository.NewMemoryStore()
	return stores{campaigns: s.Campaigns(), payments: s.Payments()}
}

func sqliteStores(t *testing.T) (stores, *repository.CampaignRepository) {
	t.Helper()
	database, err := db.Open(db.SQLite, filepath.Join(t.TempDir(), "jetmatch.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.Migrate(database, db.SQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	campaigns := &repository.CampaignRepository{DB: database, Dialect: db.SQLite}
	return stores{
		campaigns: campaigns,
		payments:  &repository.PaymentRepository{DB: database, Dialect: db.SQLite},
	}, campaigns
}

func newCampaign(id, business string, created time.Time, status model.CampaignStatus) *model.Campaign {
	return &model.Campaign{
		ID:         id,
		Title:      "Campaign " + id,
		Budget:     1000,
		BusinessID: business,
		Status:     status,
		Applicants: []model.Applicant{},
		CreatedAt:  created,
	}
}

func TestCampaignRepositoryContract(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		runContract(t, memoryStores(t))
	})
	t.Run("sqlite", func(t *testing.T) {
		s, _ := sqliteStores(t)
		runContract(t, s)
	})
}

func runContract(t *testing.T, s stores) {
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	for i := 1; i <= 5; i++ {
		business := "b1"
		if i%2 == 0 {
			business = "b2"
		}
		c := newCampaign(fmt.Sprintf("c%d", i), business, base.Add(time.Duration(i)*time.Minute), model.StatusActive)
		if err := s.campaigns.Create(ctx, c); err != nil {
			t.Fatalf("create %s: %v", c.ID, err)
		}
	}

	t.Run("duplicate create conflicts", func(t *testing.T) {
		err := s.campaigns.Create(ctx, newCampaign("c1", "b1", base, model.StatusDraft))
		if !appErrors.Is(err, appErrors.KindConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := s.campaigns.GetByID(ctx, "nope")
		if !appErrors.Is(err, appErrors.KindNotFound) {
			t.Fatalf("expected not_found, got %v", err)
		}
	})

	t.Run("list newest first with filters", func(t *testing.T) {
		all, total, err := s.campaigns.List(ctx, model.CampaignFilter{}, 0, 10)
		if err != nil {
			t.Fatal(err)
		}
		if total != 5 || len(all) != 5 {
			t.Fatalf("expected 5 campaigns, got %d/%d", len(all), total)
		}
		if all[0].ID != "c5" || all[4].ID != "c1" {
			t.Errorf("expected newest first, got %s..%s", all[0].ID, all[4].ID)
		}

		b2, total, err := s.campaigns.List(ctx, model.CampaignFilter{BusinessID: "b2"}, 0, 10)
		if err != nil {
			t.Fatal(err)
		}
		if total != 2 || b2[0].ID != "c4" || b2[1].ID != "c2" {
			t.Errorf("unexpected business filter result: total=%d", total)
		}

		page, total, err := s.campaigns.List(ctx, model.CampaignFilter{}, 2, 2)
		if err != nil {
			t.Fatal(err)
		}
		if total != 5 || len(page) != 2 || page[0].ID != "c3" {
			t.Errorf("unexpected page: total=%d len=%d", total, len(page))
		}
	})

	t.Run("mutate writes and aborts", func(t *testing.T) {
		now := base.Add(time.Hour)
		updated, err := s.campaigns.Mutate(ctx, "c1", func(c *model.Campaign) error {
			c.Applicants = append(c.Applicants, model.Applicant{ID: "u1", Name: "Ada", AppliedAt: now, Status: model.ApplicantPending})
			c.AssignedTo = &model.InfluencerRef{ID: "u1", Name: "Ada"}
			return c.Transition(model.StatusOffered, now)
		})
		if err != nil {
			t.Fatalf("mutate: %v", err)
		}
		if updated.Status != model.StatusOffered || updated.AssignedAt == nil {
			t.Fatalf("unexpected result %+v", updated)
		}

		got, err := s.campaigns.GetByID(ctx, "c1")
		if err != nil {
			t.Fatal(err)
		}
		if got.AssignedTo == nil || got.AssignedTo.ID != "u1" || len(got.Applicants) != 1 {
			t.Fatalf("mutation not persisted: %+v", got)
		}
		if !got.AssignedAt.Equal(now) || !got.Applicants[0].AppliedAt.Equal(now) {
			t.Errorf("timestamps did not round-trip: %v %v", got.AssignedAt, got.Applicants[0].AppliedAt)
		}

		byInfluencer, total, err := s.campaigns.List(ctx, model.CampaignFilter{InfluencerID: "u1"}, 0, 10)
		if err != nil {
			t.Fatal(err)
		}
		if total != 1 || byInfluencer[0].ID != "c1" {
			t.Errorf("expected c1 for influencer u1, got total=%d", total)
		}

		_, err = s.campaigns.Mutate(ctx, "c1", func(c *model.Campaign) error {
			c.Title = "should not persist"
			return appErrors.NewInvalidState("test", "abort")
		})
		if !appErrors.Is(err, appErrors.KindInvalidState) {
			t.Fatalf("expected invalid_state, got %v", err)
		}
		got, _ = s.campaigns.GetByID(ctx, "c1")
		if got.Title == "should not persist" {
			t.Errorf("aborted mutation was written")
		}
	})

	t.Run("update patches editable fields only", func(t *testing.T) {
		title := "Renamed"
		budget := 2500.5
		got, err := s.campaigns.Update(ctx, "c1", model.CampaignPatch{Title: &title, Budget: &budget})
		if err != nil {
			t.Fatal(err)
		}
		if got.Title != "Renamed" || got.Budget != 2500.5 {
			t.Errorf("patch not applied: %+v", got)
		}
		if got.Status != model.StatusOffered || got.AssignedTo == nil {
			t.Errorf("patch changed lifecycle state: %+v", got)
		}

		if _, err := s.campaigns.Update(ctx, "nope", model.CampaignPatch{Title: &title}); !appErrors.Is(err, appErrors.KindNotFound) {
			t.Errorf("expected not_found, got %v", err)
		}
	})

	t.Run("complete writes campaign and payment", func(t *testing.T) {
		now := base.Add(2 * time.Hour)
		_, err := s.campaigns.Mutate(ctx, "c1", func(c *model.Campaign) error {
			return c.Transition(model.StatusAccepted, now)
		})
		if err != nil {
			t.Fatal(err)
		}

		c, p, err := s.campaigns.Complete(ctx, "c1", func(c *model.Campaign) (*model.Payment, error) {
			if err := c.Transition(model.StatusCompleted, now); err != nil {
				return nil, err
			}
			return &model.Payment{ID: "p1", CampaignID: c.ID, InfluencerID: c.AssignedTo.ID, Amount: 2500.5, Status: model.PaymentPending, CreatedAt: now}, nil
		})
		if err != nil {
			t.Fatalf("complete: %v", err)
		}
		if c.Status != model.StatusCompleted || p.ID != "p1" {
			t.Fatalf("unexpected completion result %+v %+v", c, p)
		}

		payments, err := s.payments.ListByCampaign(ctx, "c1")
		if err != nil {
			t.Fatal(err)
		}
		if len(payments) != 1 || payments[0].Amount != 2500.5 || payments[0].InfluencerID != "u1" {
			t.Fatalf("expected one payment, got %+v", payments)
		}

		if err := s.payments.UpdateStatus(ctx, "p1", model.PaymentPaid); err != nil {
			t.Fatal(err)
		}
		paid, err := s.payments.GetByID(ctx, "p1")
		if err != nil || paid.Status != model.PaymentPaid {
			t.Errorf("expected Paid, got %+v (%v)", paid, err)
		}
		if err := s.payments.UpdateStatus(ctx, "p1", "Refunded"); !appErrors.Is(err, appErrors.KindValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("delete leaves payments", func(t *testing.T) {
		if err := s.campaigns.Delete(ctx, "c1"); err != nil {
			t.Fatal(err)
		}
		if _, err := s.campaigns.GetByID(ctx, "c1"); !appErrors.Is(err, appErrors.KindNotFound) {
			t.Errorf("expected not_found after delete, got %v", err)
		}
		if err := s.campaigns.Delete(ctx, "c1"); !appErrors.Is(err, appErrors.KindNotFound) {
			t.Errorf("expected not_found on second delete, got %v", err)
		}
		payments, err := s.payments.ListByCampaign(ctx, "c1")
		if err != nil || len(payments) != 1 {
			t.Errorf("expected orphaned payment to remain, got %d (%v)", len(payments), err)
		}
	})

	t.Run("concurrent mutations do not lose updates", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := s.campaigns.Mutate(ctx, "c2", func(c *model.Campaign) error {
					c.Applicants = append(c.Applicants, model.Applicant{ID: fmt.Sprintf("u%d", i), Status: model.ApplicantPending})
					return nil
				})
				if err != nil {
					t.Errorf("mutate %d: %v", i, err)
				}
			}(i)
		}
		wg.Wait()

		got, err := s.campaigns.GetByID(ctx, "c2")
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Applicants) != 20 {
			t.Errorf("expected 20 applicants, got %d", len(got.Applicants))
		}
	})
}

func TestSQLiteCompleteRollsBackOnPaymentFault(t *testing.T) {
	s, repo := sqliteStores(t)
	ctx := context.Background()
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

	c := newCampaign("c1", "b1", now, model.StatusAccepted)
	c.AssignedTo = &model.InfluencerRef{ID: "u1", Name: "Ada"}
	if err := s.campaigns.Create(ctx, c); err != nil {
		t.Fatal(err)
	}

	// Simulated store fault: the payment insert cannot succeed.
	if _, err := repo.DB.Exec(`DROP TABLE payments`); err != nil {
		t.Fatal(err)
	}

	_, _, err := s.campaigns.Complete(ctx, "c1", func(c *model.Campaign) (*model.Payment, error) {
		if err := c.Transition(model.StatusCompleted, now); err != nil {
			return nil, err
		}
		return &model.Payment{ID: "p1", CampaignID: c.ID, InfluencerID: "u1", Amount: 1000, Status: model.PaymentPending, CreatedAt: now}, nil
	})
	if !appErrors.Is(err, appErrors.KindExternalService) {
		t.Fatalf("expected external_service error, got %v", err)
	}

	got, err := s.campaigns.GetByID(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.StatusAccepted || got.CompletedAt != nil {
		t.Errorf("campaign completed without a payment: %+v", got)
	}
}

func TestCompleteRejectsSecondPayment(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		runSecondPayment(t, memoryStores(t))
	})
	t.Run("sqlite", func(t *testing.T) {
		s, _ := sqliteStores(t)
		runSecondPayment(t, s)
	})
}

func runSecondPayment(t *testing.T, s stores) {
	ctx := context.Background()
	now := time.Date(2026, 4, 3, 9, 0, 0, 0, time.UTC)

	for _, id := range []string{"c1", "c2"} {
		c := newCampaign(id, "b1", now, model.StatusAccepted)
		c.AssignedTo = &model.InfluencerRef{ID: "u1"}
		if err := s.campaigns.Create(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	complete := func(id string) error {
		_, _, err := s.campaigns.Complete(ctx, id, func(c *model.Campaign) (*model.Payment, error) {
			if err := c.Transition(model.StatusCompleted, now); err != nil {
				return nil, err
			}
			// Both completions point at c1 to force a duplicate payment.
			return &model.Payment{ID: "p-" + id, CampaignID: "c1", InfluencerID: "u1", Amount: 1, Status: model.PaymentPending, CreatedAt: now}, nil
		})
		return err
	}
	if err := complete("c1"); err != nil {
		t.Fatal(err)
	}
	if err := complete("c2"); !appErrors.Is(err, appErrors.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	got, err := s.campaigns.GetByID(ctx, "c2")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.StatusAccepted || got.CompletedAt != nil {
		t.Errorf("failed completion changed the campaign: %s", got.Status)
	}
	payments, err := s.payments.ListByCampaign(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(payments) != 1 || payments[0].ID != "p-c1" {
		t.Errorf("expected only the first payment, got %+v", payments)
	}
}
