package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/unclebandit/jetmatch-backend/internal/app"
	"github.com/unclebandit/jetmatch-backend/internal/config"
	"github.com/unclebandit/jetmatch-backend/internal/service"
)

// The worker drains the broker: metrics refresh jobs and campaign events.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ invalid configuration: ", err)
	}
	if cfg.AMQPURL == "" {
		log.Fatal("❌ AMQP_URL is required for the worker; without a broker the server drains jobs itself")
	}

	q, _, err := app.OpenQueue(cfg)
	if err != nil {
		log.Fatal("❌ failed to connect to RabbitMQ: ", err)
	}

	cache, err := app.OpenCache(ctx, cfg)
	if err != nil {
		log.Fatal("❌ failed to open snapshot cache: ", err)
	}

	refresher := &service.InfluencerService{
		Cache:      cache,
		Feed:       app.OpenFeed(cfg),
		StaleAfter: cfg.StaleAfter,
	}

	service.StartRefreshPool(ctx, q, refresher, cfg.WorkerPoolSize)
	service.StartCampaignEventSubscriber(q, nil)

	log.Println("🚀 Worker running, waiting for messages...")
	<-ctx.Done()

	if closer, ok := q.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Println("⚠️ closing queue:", err)
		}
	}
	log.Println("👋 Worker stopped")
}
