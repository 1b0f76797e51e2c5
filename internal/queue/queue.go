package queue

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"
)

const (
	TopicCampaignEvents = "campaign_events"
	TopicMetricsRefresh = "metrics_refresh"
)

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue delivers jobs to in-process subscribers with retry
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error

	MaxRetries int
	Backoff    time.Duration
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]func(payload any) error),
		MaxRetries: 3,
		Backoff:    500 * time.Millisecond,
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Topic      string
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		job := JobPayload{
			Topic:      topic,
			Payload:    payload,
			MaxRetries: q.MaxRetries,
		}
		go processJob(handler, job, q.Backoff)
	}

	return nil
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// processJob handles retries and errors. It returns the last error once the
// job has permanently failed.
func processJob(handler func(payload any) error, job JobPayload, backoff time.Duration) error {
	for {
		err := handler(job.Payload)
		if err == nil {
			return nil // ACK
		}

		job.RetryCount++
		log.Printf("Job on %s failed (attempt %d/%d): %v\n", job.Topic, job.RetryCount, job.MaxRetries+1, err)

		if job.RetryCount > job.MaxRetries {
			log.Printf("❌ Job on %s permanently failed after %d attempts\n", job.Topic, job.RetryCount)
			return err // No requeue
		}

		// Linear backoff before retry
		time.Sleep(time.Duration(job.RetryCount) * backoff)
	}
}

// StartSubscriber registers handler on topic and logs the outcome.
func StartSubscriber(q Queue, topic string, handler func(payload any) error) {
	if err := q.Subscribe(topic, handler); err != nil {
		log.Println("⚠️ Failed to start subscriber for", topic+":", err)
		return
	}
	log.Println("📬 Subscribed to", topic)
}

// Decode converts a delivered payload into v. In-process deliveries carry the
// published value; broker deliveries carry its JSON body.
func Decode(payload any, v any) error {
	var raw []byte
	switch p := payload.(type) {
	case []byte:
		raw = p
	case json.RawMessage:
		raw = p
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		raw = b
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
