package models

import "time"

// RateLimitRecord is the per-identity fixed-window state.
type RateLimitRecord struct {
	WindowStart   time.Time `json:"windowStart"`
	Count         int       `json:"count"`
	LastRequestAt time.Time `json:"lastRequestAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// Policy parameterizes one admission rule.
type Policy struct {
	Name                        string
	Window                      time.Duration
	MaxRequests                 int
	Cooldown                    time.Duration
	FailOpen                    bool
	CooldownCountsAgainstWindow bool
	FailClosedRetryAfter        time.Duration
	Message                     string
}

// RejectReason explains why a request was not admitted.
type RejectReason string

const (
	ReasonNone        RejectReason = ""
	ReasonWindow      RejectReason = "window"
	ReasonCooldown    RejectReason = "cooldown"
	ReasonUnavailable RejectReason = "unavailable"
)

// Decision is the outcome of one admission attempt.
type Decision struct {
	Allowed    bool
	Reason     RejectReason
	Policy     string
	Limit      int
	Count      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
	// Degraded is set when a fail-open policy admitted without consulting the store.
	Degraded bool
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, minimum 1.
func (d Decision) RetryAfterSeconds() int {
	secs := int((d.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// RateLimitStatus is a read-only view of an identity's record.
type RateLimitStatus struct {
	Policy           string     `json:"policy"`
	Identity         string     `json:"identity"`
	RequestsInWindow int        `json:"requestsInWindow"`
	Limit            int        `json:"limit"`
	CanRequest       bool       `json:"canRequest"`
	NextAvailableAt  *time.Time `json:"nextAvailableAt,omitempty"`
	WindowResetAt    *time.Time `json:"windowResetAt,omitempty"`
}
