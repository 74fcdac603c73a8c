package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/internal/domain/models"
	domainService "github.com/bocado-ai/gate/internal/domain/service"
	"github.com/bocado-ai/gate/internal/infrastructure/cache"
	"github.com/bocado-ai/gate/internal/infrastructure/ratelimit"
	"github.com/bocado-ai/gate/pkg/logger"
)

type MockProfileRepository struct{ mock.Mock }

func (m *MockProfileRepository) FindByUID(ctx context.Context, uid string) (*models.UserProfile, error) {
	args := m.Called(ctx, uid)
	p, _ := args.Get(0).(*models.UserProfile)
	return p, args.Error(1)
}

func (m *MockProfileRepository) Save(ctx context.Context, p *models.UserProfile) error {
	return m.Called(ctx, p).Error(0)
}

type MockPantryRepository struct{ mock.Mock }

func (m *MockPantryRepository) ListByUser(ctx context.Context, uid string) ([]models.PantryItem, error) {
	args := m.Called(ctx, uid)
	items, _ := args.Get(0).([]models.PantryItem)
	return items, args.Error(1)
}

func (m *MockPantryRepository) ReplaceForUser(ctx context.Context, uid string, items []models.PantryItem) error {
	return m.Called(ctx, uid, items).Error(0)
}

type MockHistoryRepository struct{ mock.Mock }

func (m *MockHistoryRepository) Recent(ctx context.Context, uid string, limit int) ([]models.HistoryEntry, error) {
	args := m.Called(ctx, uid, limit)
	entries, _ := args.Get(0).([]models.HistoryEntry)
	return entries, args.Error(1)
}

func (m *MockHistoryRepository) Append(ctx context.Context, e *models.HistoryEntry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockHistoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Int(0), args.Error(1)
}

type MockPlanRepository struct{ mock.Mock }

func (m *MockPlanRepository) Save(ctx context.Context, p *models.Plan) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPlanRepository) FindByInteraction(ctx context.Context, id string) (*models.Plan, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Plan)
	return p, args.Error(1)
}

func (m *MockPlanRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Int(0), args.Error(1)
}

type MockModelClient struct{ mock.Mock }

func (m *MockModelClient) Generate(ctx context.Context, prompt string) (*models.Recommendation, error) {
	args := m.Called(ctx, prompt)
	r, _ := args.Get(0).(*models.Recommendation)
	return r, args.Error(1)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domainService.RecommendationEvent
}

func (p *recordingPublisher) PublishRecommendation(_ context.Context, e domainService.RecommendationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type countingMetrics struct {
	domainService.NoopMetrics
	mu              sync.Mutex
	persistFailures []string
	mapsCalls       []string
}

func (m *countingMetrics) RecordPersistFailure(target string) {
	m.mu.Lock()
	m.persistFailures = append(m.persistFailures, target)
	m.mu.Unlock()
}

func (m *countingMetrics) RecordMapsCall(action string, cached, success bool) {
	m.mu.Lock()
	m.mapsCalls = append(m.mapsCalls, action)
	m.mu.Unlock()
}

// memoryCache is an in-process ResponseCache.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]json.RawMessage
	err     error
}

func newMemoryCache() *memoryCache { return &memoryCache{entries: map[string]json.RawMessage{}} }

func (c *memoryCache) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, false, c.err
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = b
	return nil
}

func testPolicies() map[string]models.Policy {
	return map[string]models.Policy{
		"recommendations": {Name: "recommendations", Window: 10 * time.Minute, MaxRequests: 5, Cooldown: 30 * time.Second, FailClosedRetryAfter: time.Minute},
		"maps":            {Name: "maps", Window: time.Minute, MaxRequests: 50},
		"maps_public":     {Name: "maps_public", Window: time.Minute, MaxRequests: 2, FailOpen: true},
	}
}

func newTestLimiter() *ratelimit.Limiter {
	return ratelimit.NewLimiter(ratelimit.NewMemoryStore(), testPolicies(), logger.NewNoopLogger(), nil)
}

func newTestRegistry() *cache.Registry {
	return cache.NewRegistry(config.CacheConfig{
		ProfileTTL: time.Minute, PantryTTL: time.Minute, HistoryTTL: time.Minute,
		MaxKeys: 100, LoaderTimeout: time.Second,
	}, logger.NewNoopLogger(), nil)
}
