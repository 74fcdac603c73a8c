package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/internal/domain/service"
	"github.com/bocado-ai/gate/pkg/constants"
	"github.com/bocado-ai/gate/pkg/errors"
	"github.com/bocado-ai/gate/pkg/logger"
)

// Limiter applies named policies on top of a Store.
type Limiter struct {
	store    Store
	policies map[string]models.Policy
	logger   logger.Logger
	metrics  service.Metrics
	now      func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// NewLimiter creates a Limiter. metrics may be nil.
func NewLimiter(store Store, policies map[string]models.Policy, log logger.Logger, metrics service.Metrics, opts ...Option) *Limiter {
	if metrics == nil {
		metrics = service.NoopMetrics{}
	}
	l := &Limiter{
		store:    store,
		policies: policies,
		logger:   log.WithComponent("ratelimit"),
		metrics:  metrics,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.logger.Info(context.Background(), "Rate limiter initialized", logger.Int("policies", len(policies)))
	return l
}

// PoliciesFromConfig converts configured policies into domain policies.
func PoliciesFromConfig(cfg map[string]config.PolicyConfig) map[string]models.Policy {
	out := make(map[string]models.Policy, len(cfg))
	for name, pc := range cfg {
		retry := pc.FailClosedRetryAfter
		if retry <= 0 {
			retry = constants.DefaultFailClosedRetryAfter
		}
		out[name] = models.Policy{
			Name:                        name,
			Window:                      pc.Window,
			MaxRequests:                 pc.MaxRequests,
			Cooldown:                    pc.Cooldown,
			FailOpen:                    pc.FailOpen,
			CooldownCountsAgainstWindow: pc.CooldownCountsAgainstWindow,
			FailClosedRetryAfter:        retry,
			Message:                     pc.Message,
		}
	}
	return out
}

// Key builds the store key for a policy and identity.
func Key(policy, identity string) string {
	return constants.RateLimitKeyPrefix + policy + ":" + identity
}

// Policy returns the named policy.
func (l *Limiter) Policy(name string) (models.Policy, bool) {
	p, ok := l.policies[name]
	return p, ok
}

// Admit decides whether identity may proceed under policy.
// A store failure is not returned as an error; the policy's fail mode decides.
func (l *Limiter) Admit(ctx context.Context, policy, identity string) (models.Decision, error) {
	p, ok := l.policies[policy]
	if !ok {
		return models.Decision{}, fmt.Errorf("unknown rate limit policy %q", policy)
	}
	if identity == "" {
		identity = "unknown"
	}

	now := l.now()
	res, err := l.store.Admit(ctx, Key(policy, identity), p, now)
	if err != nil {
		return l.degraded(ctx, p, identity, now, err), nil
	}

	d := models.Decision{
		Allowed:    res.Allowed,
		Reason:     res.Reason,
		Policy:     policy,
		Limit:      p.MaxRequests,
		Count:      res.Count,
		Remaining:  remaining(p.MaxRequests, res.Count),
		ResetAt:    res.WindowStart.Add(p.Window),
		RetryAfter: res.RetryAfter,
	}
	l.metrics.RecordAdmission(policy, d.Allowed, string(d.Reason))

	if !d.Allowed {
		l.logger.Warn(ctx, "Request rejected by rate limit",
			logger.String("policy", policy),
			logger.String("reason", string(d.Reason)),
			logger.Int("count", d.Count),
			logger.Int("retry_after_s", d.RetryAfterSeconds()),
		)
	}
	return d, nil
}

func (l *Limiter) degraded(ctx context.Context, p models.Policy, identity string, now time.Time, cause error) models.Decision {
	l.logger.Error(ctx, "Rate limit store unavailable", cause,
		logger.String("policy", p.Name),
		logger.Bool("fail_open", p.FailOpen),
	)

	if p.FailOpen {
		l.metrics.RecordAdmission(p.Name, true, "degraded")
		return models.Decision{
			Allowed:   true,
			Policy:    p.Name,
			Limit:     p.MaxRequests,
			Remaining: p.MaxRequests,
			ResetAt:   now.Add(p.Window),
			Degraded:  true,
		}
	}

	retry := p.FailClosedRetryAfter
	if retry <= 0 {
		retry = constants.DefaultFailClosedRetryAfter
	}
	l.metrics.RecordAdmission(p.Name, false, string(models.ReasonUnavailable))
	return models.Decision{
		Reason:     models.ReasonUnavailable,
		Policy:     p.Name,
		Limit:      p.MaxRequests,
		ResetAt:    now.Add(retry),
		RetryAfter: retry,
	}
}

// Reset removes the record for identity under policy.
func (l *Limiter) Reset(ctx context.Context, policy, identity string) error {
	if _, ok := l.policies[policy]; !ok {
		return errors.ErrNotFound("rate limit policy " + policy)
	}
	if err := l.store.Delete(ctx, Key(policy, identity)); err != nil {
		return errors.Wrap(err, errors.CodeServiceUnavailable, "failed to reset rate limit")
	}
	l.logger.Info(ctx, "Rate limit reset", logger.String("policy", policy), logger.String("identity", identity))
	return nil
}

// Status reports the current state for identity without mutating it.
func (l *Limiter) Status(ctx context.Context, policy, identity string) (*models.RateLimitStatus, error) {
	p, ok := l.policies[policy]
	if !ok {
		return nil, errors.ErrNotFound("rate limit policy " + policy)
	}
	rec, err := l.store.Get(ctx, Key(policy, identity))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeServiceUnavailable, "failed to read rate limit")
	}

	status := &models.RateLimitStatus{
		Policy:     policy,
		Identity:   identity,
		Limit:      p.MaxRequests,
		CanRequest: true,
	}

	now := l.now()
	if rec == nil || now.Sub(rec.WindowStart) >= p.Window {
		return status, nil
	}

	status.RequestsInWindow = rec.Count
	reset := rec.WindowStart.Add(p.Window)
	status.WindowResetAt = &reset

	switch {
	case rec.Count >= p.MaxRequests:
		status.CanRequest = false
		status.NextAvailableAt = &reset
	case p.Cooldown > 0 && !rec.LastRequestAt.IsZero() && now.Sub(rec.LastRequestAt) < p.Cooldown:
		next := rec.LastRequestAt.Add(p.Cooldown)
		status.CanRequest = false
		status.NextAvailableAt = &next
	}
	return status, nil
}

// DeleteStale removes records not updated since cutoff.
func (l *Limiter) DeleteStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	return l.store.DeleteStale(ctx, cutoff, limit)
}

func remaining(max, count int) int {
	if r := max - count; r > 0 {
		return r
	}
	return 0
}
