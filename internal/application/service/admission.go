// Package service provides application-level services that orchestrate domain
// logic, caches, repositories and infrastructure clients.
package service

import (
	"context"

	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/internal/infrastructure/ratelimit"
	"github.com/bocado-ai/gate/pkg/errors"
)

// Admitter makes rate-limit decisions. *ratelimit.Limiter implements it.
type Admitter interface {
	Admit(ctx context.Context, policy, identity string) (models.Decision, error)
	Policy(name string) (models.Policy, bool)
}

var _ Admitter = (*ratelimit.Limiter)(nil)

// Caller identifies who is making a request.
type Caller struct {
	// UserID is the verified token subject, empty when unauthenticated.
	UserID   string
	ClientIP string
}

// admit runs one policy and converts a rejection into a rate_limited error.
// The decision is returned in both cases so transports can emit headers.
func admit(ctx context.Context, a Admitter, policy, identity string) (models.Decision, error) {
	d, err := a.Admit(ctx, policy, identity)
	if err != nil {
		return d, errors.ErrInternal("rate limit check failed").WithCause(err)
	}
	if d.Allowed {
		return d, nil
	}
	p, _ := a.Policy(policy)
	return d, ratelimit.RejectionError(d, p)
}
