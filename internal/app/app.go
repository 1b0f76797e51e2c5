// internal/app/app.go
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/unclebandit/jetmatch-backend/internal/config"
	"github.com/unclebandit/jetmatch-backend/internal/db"
	"github.com/unclebandit/jetmatch-backend/internal/metrics"
	"github.com/unclebandit/jetmatch-backend/internal/queue"
	"github.com/unclebandit/jetmatch-backend/internal/repository"
)

// Stores bundles the three repositories behind one backing store.
type Stores struct {
	Campaigns   repository.CampaignRepositoryInterface
	Payments    repository.PaymentRepositoryInterface
	Influencers repository.InfluencerRepositoryInterface

	DB *sql.DB
}

func (s *Stores) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// OpenStores connects the configured store and applies migrations.
func OpenStores(cfg *config.Config) (*Stores, error) {
	dialect, ok := cfg.Dialect()
	if !ok {
		log.Println("⚠️ Using in-memory store, data is lost on restart")
		mem := repository.NewMemoryStore()
		return &Stores{
			Campaigns:   mem.Campaigns(),
			Payments:    mem.Payments(),
			Influencers: mem.Influencers(),
		}, nil
	}

	database, err := db.Open(dialect, cfg.DSN())
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(database, dialect); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Stores{
		Campaigns:   &repository.CampaignRepository{DB: database, Dialect: dialect},
		Payments:    &repository.PaymentRepository{DB: database, Dialect: dialect},
		Influencers: &repository.InfluencerRepository{DB: database, Dialect: dialect},
		DB:          database,
	}, nil
}

// OpenQueue dials RabbitMQ when AMQP_URL is set. The bool reports whether
// the queue is process-local, in which case subscribers must run in process.
func OpenQueue(cfg *config.Config) (queue.Queue, bool, error) {
	if cfg.AMQPURL == "" {
		return queue.NewInMemoryQueue(), true, nil
	}
	q, err := queue.NewAMQPQueue(cfg.AMQPURL)
	if err != nil {
		return nil, false, err
	}
	log.Println("✅ Connected to rabbitmq")
	return q, false, nil
}

// OpenCache uses Redis when REDIS_URL is set.
func OpenCache(ctx context.Context, cfg *config.Config) (metrics.Cache, error) {
	if cfg.RedisURL == "" {
		return metrics.NewMemoryCache(), nil
	}
	client, err := metrics.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	log.Println("✅ Connected to redis")
	return metrics.NewRedisCache(client, cfg.SnapshotTTL), nil
}

func OpenFeed(cfg *config.Config) metrics.Feed {
	if cfg.MetricsFeedURL == "" {
		log.Println("⚠️ METRICS_FEED_URL not set, metrics fetches will fail")
		return metrics.UnavailableFeed{}
	}
	return metrics.NewHTTPFeed(cfg.MetricsFeedURL, cfg.MetricsFeedRPS)
}
