// Package constants defines system-wide constants for the Bocado recommendation gate.
// This package provides type-safe constant definitions used across all modules.
package constants

import "time"

// ================================================================================
// Service Constants
// ================================================================================

const (
	// ServiceName is used for tracing, metrics namespaces and log fields
	ServiceName = "bocado-gate"

	// MetricsNamespace prefixes every prometheus series
	MetricsNamespace = "bocado_gate"

	// APIVersionPrefix is the versioned route prefix
	APIVersionPrefix = "/api/v1"

	// DefaultLivenessCheckPath is the liveness check endpoint path
	DefaultLivenessCheckPath = "/health/live"

	// DefaultReadinessCheckPath is the readiness check endpoint path
	DefaultReadinessCheckPath = "/health/ready"

	// DefaultShutdownTimeout is the graceful shutdown timeout
	DefaultShutdownTimeout = 30 * time.Second
)

// ================================================================================
// Recommendation Constants
// ================================================================================

// RecommendationType is the kind of plan the user asked for
type RecommendationType string

const (
	// RecommendationAtHome asks for recipes built from the user's pantry
	RecommendationAtHome RecommendationType = "En casa"

	// RecommendationOut asks for restaurant suggestions near the user
	RecommendationOut RecommendationType = "Fuera"
)

// NoRestrictionsSentinel is emitted when a profile has no usable constraints
const NoRestrictionsSentinel = "Sin restricciones"

// DefaultActivityLevel is the baseline activity level omitted from summaries
const DefaultActivityLevel = "Sedentario"

const (
	// MaxDislikedFoods bounds the request-level disliked foods list
	MaxDislikedFoods = 50

	// MaxDislikedFoodLength bounds each disliked food entry
	MaxDislikedFoodLength = 100

	// HistoryPromptLimit is how many recent history entries feed the prompt
	HistoryPromptLimit = 5

	// DefaultLanguage is used when the profile carries no language
	DefaultLanguage = "es"
)

// ================================================================================
// Rate Limit Policies
// ================================================================================

// PolicyName identifies a rate-limit policy
type PolicyName string

const (
	// PolicyGlobal guards every API route by client IP
	PolicyGlobal PolicyName = "global"

	// PolicyRecommendations guards the paid AI call per user
	PolicyRecommendations PolicyName = "recommendations"

	// PolicyMaps guards authenticated maps proxy calls per user
	PolicyMaps PolicyName = "maps"

	// PolicyMapsPublic guards anonymous maps autocomplete by client IP
	PolicyMapsPublic PolicyName = "maps_public"

	// PolicyAuth counts failed bearer authentications by client IP
	PolicyAuth PolicyName = "auth"
)

// RateLimitKeyPrefix namespaces rate-limit records in the shared store
const RateLimitKeyPrefix = "rate_limits:"

// RateLimitRetention is how long a record survives after its last update
const RateLimitRetention = 24 * time.Hour

// DefaultFailClosedRetryAfter is reported when a fail-closed store is down
const DefaultFailClosedRetryAfter = 60 * time.Second

// ================================================================================
// Cache Constants
// ================================================================================

// CacheDomain names one of the process-local caches
type CacheDomain string

const (
	CacheDomainProfile CacheDomain = "profile"
	CacheDomainPantry  CacheDomain = "pantry"
	CacheDomainHistory CacheDomain = "history"

	// CacheDomainAll invalidates every domain for a user
	CacheDomainAll CacheDomain = "all"
)

const (
	DefaultProfileCacheTTL = 10 * time.Minute
	DefaultPantryCacheTTL  = 5 * time.Minute
	DefaultHistoryCacheTTL = 60 * time.Minute

	// DefaultCacheMaxKeys caps each cache; sets beyond it are skipped
	DefaultCacheMaxKeys = 10000

	// DefaultLoaderTimeout bounds a read-through source call
	DefaultLoaderTimeout = 2 * time.Second
)

// ================================================================================
// Maps Proxy Constants
// ================================================================================

// MapsAction is the operation requested from the maps proxy
type MapsAction string

const (
	MapsActionAutocomplete   MapsAction = "autocomplete"
	MapsActionPlaceDetails   MapsAction = "placeDetails"
	MapsActionGeocode        MapsAction = "geocode"
	MapsActionReverseGeocode MapsAction = "reverseGeocode"
	MapsActionDetectLocation MapsAction = "detectLocation"
)

// MapsCacheKeyPrefix namespaces maps responses in the shared store
const MapsCacheKeyPrefix = "maps_cache:"

const (
	// MapsAutocompleteTTL is the cache lifetime of autocomplete responses
	MapsAutocompleteTTL = 24 * time.Hour

	// MapsDetailsTTL is the cache lifetime of place details and geocode responses
	MapsDetailsTTL = 7 * 24 * time.Hour

	// MapsCacheKeyMaxLength truncates the encoded parameter part of a key
	MapsCacheKeyMaxLength = 50
)

// ================================================================================
// Cleanup Constants
// ================================================================================

const (
	// CleanupBatchSize is the number of records deleted per batch
	CleanupBatchSize = 500

	// CleanupMaxBatches bounds a single cleanup run
	CleanupMaxBatches = 10

	// CleanupBatchPause separates consecutive batches
	CleanupBatchPause = time.Second

	// DefaultHistoryRetention is how long history entries are kept
	DefaultHistoryRetention = 90 * 24 * time.Hour

	// DefaultPlanRetention is how long generated plans are kept
	DefaultPlanRetention = 90 * 24 * time.Hour

	// ManualCleanupMaxDays bounds the days parameter of manual cleanup
	ManualCleanupMaxDays = 365
)

// ================================================================================
// HTTP Header Constants
// ================================================================================

const (
	HeaderAuthorization      = "Authorization"
	HeaderRequestID          = "X-Request-ID"
	HeaderAdminKey           = "X-Admin-Key"
	HeaderForwardedFor       = "X-Forwarded-For"
	HeaderRealIP             = "X-Real-IP"
	HeaderRetryAfter         = "Retry-After"
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"

	// BearerPrefix precedes the identity token in the Authorization header
	BearerPrefix = "Bearer "
)

// ================================================================================
// Logging Constants
// ================================================================================

// LogLevel represents the severity level of log messages
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
	LogLevelFatal LogLevel = "fatal"
)

// ================================================================================
// Context Keys
// ================================================================================

// ContextKey represents keys used in context.Context
type ContextKey string

const (
	// ContextKeyRequestID is the key for request ID in context
	ContextKeyRequestID ContextKey = "request_id"

	// ContextKeyTraceID is the key for distributed trace ID in context
	ContextKeyTraceID ContextKey = "trace_id"

	// ContextKeySpanID is the key for trace span ID in context
	ContextKeySpanID ContextKey = "span_id"

	// ContextKeyUserID is the key for the authenticated user id
	ContextKeyUserID ContextKey = "user_id"

	// ContextKeyClientIP is the key for client IP address in context
	ContextKeyClientIP ContextKey = "client_ip"
)

// ================================================================================
// Event Constants
// ================================================================================

// EventRecommendationGenerated is published after a successful generation
const EventRecommendationGenerated = "recommendation.generated"
