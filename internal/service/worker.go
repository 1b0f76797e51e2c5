package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/unclebandit/jetmatch-backend/internal/model"
	"github.com/unclebandit/jetmatch-backend/internal/queue"
)

// SnapshotRefresher defines the method the worker needs
type SnapshotRefresher interface {
	Refresh(ctx context.Context, handle string) error
}

// Worker processes metrics refresh jobs
type Worker struct {
	Refresher SnapshotRefresher
	JobChan   <-chan model.MetricsRefreshJob
}

// Constructor
func NewWorker(refresher SnapshotRefresher, jobChan <-chan model.MetricsRefreshJob) *Worker {
	return &Worker{
		Refresher: refresher,
		JobChan:   jobChan,
	}
}

// Start processes jobs until the channel closes or ctx is done
func (w *Worker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-w.JobChan:
			if !ok {
				return
			}
			if err := w.Process(ctx, job); err != nil {
				log.Println("⚠️ metrics refresh failed for", job.Handle+":", err)
			}
		}
	}
}

// Process refreshes a single handle.
func (w *Worker) Process(ctx context.Context, job model.MetricsRefreshJob) error {
	if err := w.Refresher.Refresh(ctx, job.Handle); err != nil {
		return err
	}
	log.Println("🔄 Refreshed metrics for", job.Handle)
	return nil
}

// RefreshDispatcher is a queue handler that hands decoded jobs to workers.
// Malformed jobs are dropped since retrying cannot fix them. Once ctx is done
// deliveries are refused instead of blocking on the channel.
func RefreshDispatcher(ctx context.Context, jobs chan<- model.MetricsRefreshJob) func(payload any) error {
	return func(payload any) error {
		var job model.MetricsRefreshJob
		if err := queue.Decode(payload, &job); err != nil {
			log.Println("⚠️ Invalid refresh job:", err)
			return nil
		}
		job.Handle = strings.TrimSpace(job.Handle)
		if job.Handle == "" {
			log.Println("⚠️ Refresh job without handle dropped")
			return nil
		}
		select {
		case jobs <- job:
			return nil
		case <-ctx.Done():
			return fmt.Errorf("refresh job for %s not dispatched: %w", job.Handle, ctx.Err())
		}
	}
}

// StartRefreshPool subscribes to refresh jobs and runs size workers against them.
func StartRefreshPool(ctx context.Context, q queue.Queue, refresher SnapshotRefresher, size int) {
	if size < 1 {
		size = 1
	}
	jobs := make(chan model.MetricsRefreshJob, size*4)
	for i := 0; i < size; i++ {
		go NewWorker(refresher, jobs).Start(ctx)
	}
	queue.StartSubscriber(q, queue.TopicMetricsRefresh, RefreshDispatcher(ctx, jobs))
}
