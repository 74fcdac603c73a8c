package ratelimit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bocado-ai/gate/internal/domain/models"
)

// MemoryStore keeps records in process memory behind a single mutex.
// It is meant for single-instance deployments and tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*models.RateLimitRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*models.RateLimitRecord)}
}

func (s *MemoryStore) Admit(_ context.Context, key string, p models.Policy, now time.Time) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, res := evaluate(s.records[key], p, now)
	s.records[key] = rec
	return res, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (*models.RateLimitRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}

// DeleteStale removes the oldest stale records first.
func (s *MemoryStore) DeleteStale(_ context.Context, cutoff time.Time, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stale := make([]string, 0)
	for k, rec := range s.records {
		if rec.UpdatedAt.Before(cutoff) {
			stale = append(stale, k)
		}
	}
	sort.Slice(stale, func(i, j int) bool {
		return s.records[stale[i]].UpdatedAt.Before(s.records[stale[j]].UpdatedAt)
	})
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}
	for _, k := range stale {
		delete(s.records, k)
	}
	return len(stale), nil
}

// Len reports the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
