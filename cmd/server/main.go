// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/unclebandit/jetmatch-backend/internal/app"
	"github.com/unclebandit/jetmatch-backend/internal/config"
	"github.com/unclebandit/jetmatch-backend/internal/controller"
	"github.com/unclebandit/jetmatch-backend/internal/handler"
	"github.com/unclebandit/jetmatch-backend/internal/model"
	"github.com/unclebandit/jetmatch-backend/internal/scoring"
	"github.com/unclebandit/jetmatch-backend/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ invalid configuration: ", err)
	}

	stores, err := app.OpenStores(cfg)
	if err != nil {
		log.Fatal("❌ failed to open store: ", err)
	}
	defer stores.Close()

	q, local, err := app.OpenQueue(cfg)
	if err != nil {
		log.Fatal("❌ failed to open queue: ", err)
	}

	cache, err := app.OpenCache(ctx, cfg)
	if err != nil {
		log.Fatal("❌ failed to open snapshot cache: ", err)
	}

	policy, err := scoring.LoadPolicy(cfg.ValuationPolicyPath)
	if err != nil {
		log.Fatal("❌ failed to load valuation policy: ", err)
	}

	campaignService := &service.CampaignService{
		CampaignRepo:           stores.Campaigns,
		PaymentRepo:            stores.Payments,
		InfluencerRepo:         stores.Influencers,
		Queue:                  q,
		DefaultApplicantStatus: model.ApplicantStatus(cfg.DefaultApplicantStatus),
	}
	influencerService := &service.InfluencerService{
		InfluencerRepo: stores.Influencers,
		Cache:          cache,
		Feed:           app.OpenFeed(cfg),
		Queue:          q,
		Policy:         policy,
		StaleAfter:     cfg.StaleAfter,
	}

	// With no broker there is no separate worker process to drain the queue.
	if local {
		service.StartRefreshPool(ctx, q, influencerService, cfg.WorkerPoolSize)
		service.StartCampaignEventSubscriber(q, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		handler.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	(&controller.CampaignController{CampaignService: campaignService}).Routes(r)
	(&handler.InfluencerHandler{Service: influencerService}).Routes(r)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Println("⚠️ shutdown:", err)
		}
	}()

	log.Println("🚀 Server running on", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Println("👋 Server stopped")
}
