// Package service holds the pure domain logic of the recommendation gate and
// the ports it needs from infrastructure.
package service

import (
	"context"
	"time"

	"github.com/bocado-ai/gate/internal/domain/models"
)

// ModelClient invokes the generative model.
type ModelClient interface {
	// Generate sends one prompt and decodes the JSON answer. It never retries.
	Generate(ctx context.Context, prompt string) (*models.Recommendation, error)
}

// RecommendationEvent is published after a recommendation is delivered.
type RecommendationEvent struct {
	Type          string    `json:"type"`
	InteractionID string    `json:"interactionId"`
	UserID        string    `json:"userId"`
	Kind          string    `json:"kind"`
	Titles        []string  `json:"titles"`
	Persisted     bool      `json:"persisted"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// EventPublisher delivers domain events. Delivery is best-effort.
type EventPublisher interface {
	PublishRecommendation(ctx context.Context, event RecommendationEvent) error
	Close() error
}

// Metrics defines the business metrics recorded by the application layer.
type Metrics interface {
	// RecordAdmission records one rate-limit decision.
	RecordAdmission(policy string, allowed bool, reason string)

	// RecordCacheAccess records a cache hit or miss.
	RecordCacheAccess(domain string, hit bool)

	// RecordModelCall records the latency and outcome of a model invocation.
	RecordModelCall(kind string, success bool, duration time.Duration)

	// RecordPersistFailure counts best-effort writes that failed.
	RecordPersistFailure(target string)

	// RecordMapsCall records a maps proxy request.
	RecordMapsCall(action string, cached bool, success bool)

	// RecordCleanup records records removed by a cleanup job.
	RecordCleanup(job string, deleted int)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) RecordAdmission(string, bool, string)       {}
func (NoopMetrics) RecordCacheAccess(string, bool)             {}
func (NoopMetrics) RecordModelCall(string, bool, time.Duration) {}
func (NoopMetrics) RecordPersistFailure(string)                {}
func (NoopMetrics) RecordMapsCall(string, bool, bool)          {}
func (NoopMetrics) RecordCleanup(string, int)                  {}
