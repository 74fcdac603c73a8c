// Package ratelimit implements fixed-window admission control with a
// per-identity cooldown. Records live in a shared store and every admission
// is a single atomic read-modify-write against it.
package ratelimit

import (
	"context"
	"time"

	"github.com/bocado-ai/gate/internal/domain/models"
)

// Result is the raw outcome of one atomic admission step.
type Result struct {
	Allowed     bool
	Reason      models.RejectReason
	Count       int
	WindowStart time.Time
	// RetryAfter is set on rejection.
	RetryAfter time.Duration
}

// Store persists rate-limit records.
type Store interface {
	// Admit evaluates and mutates the record at key atomically.
	Admit(ctx context.Context, key string, p models.Policy, now time.Time) (Result, error)

	// Get returns the record at key, or nil when none exists.
	Get(ctx context.Context, key string) (*models.RateLimitRecord, error)

	// Delete removes the record at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteStale removes up to limit records whose last update precedes cutoff.
	DeleteStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// evaluate applies the admission rules to rec in place. A nil rec means the
// identity has no record yet; the returned record is the new state.
// The Redis Lua script mirrors this function.
func evaluate(rec *models.RateLimitRecord, p models.Policy, now time.Time) (*models.RateLimitRecord, Result) {
	if rec == nil {
		rec = &models.RateLimitRecord{
			WindowStart:   now,
			Count:         1,
			LastRequestAt: now,
			CreatedAt:     now,
			UpdatedAt:     now,
			ExpiresAt:     now.Add(p.Window),
		}
		return rec, Result{Allowed: true, Count: 1, WindowStart: now}
	}

	if now.Sub(rec.WindowStart) >= p.Window {
		rec.WindowStart = now
		rec.Count = 1
		rec.LastRequestAt = now
		rec.UpdatedAt = now
		rec.ExpiresAt = now.Add(p.Window)
		return rec, Result{Allowed: true, Count: 1, WindowStart: now}
	}

	rec.UpdatedAt = now

	if rec.Count >= p.MaxRequests {
		return rec, Result{
			Reason:      models.ReasonWindow,
			Count:       rec.Count,
			WindowStart: rec.WindowStart,
			RetryAfter:  rec.WindowStart.Add(p.Window).Sub(now),
		}
	}

	if p.Cooldown > 0 && !rec.LastRequestAt.IsZero() {
		if since := now.Sub(rec.LastRequestAt); since < p.Cooldown {
			if p.CooldownCountsAgainstWindow {
				rec.Count++
			}
			return rec, Result{
				Reason:      models.ReasonCooldown,
				Count:       rec.Count,
				WindowStart: rec.WindowStart,
				RetryAfter:  p.Cooldown - since,
			}
		}
	}

	rec.Count++
	rec.LastRequestAt = now
	return rec, Result{Allowed: true, Count: rec.Count, WindowStart: rec.WindowStart}
}
