package repository

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/okian/miya/internal/domain/model"
	"github.com/okian/miya/internal/domain/teamname"
	"github.com/okian/miya/pkg/metrics"
)

// MemoryStore implements MetricsStore with an RWMutex-guarded map keyed by
// teamname.Key. After Seal, reads go through an immutable snapshot and take
// no lock.
type MemoryStore struct {
	mu       sync.RWMutex
	byTeam   map[string]model.CompositeMetrics
	sealed   atomic.Bool
	snapshot atomic.Pointer[map[string]model.CompositeMetrics]
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{byTeam: make(map[string]model.CompositeMetrics)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Put(_ context.Context, team string, m model.CompositeMetrics) error {
	if s.sealed.Load() {
		return fmt.Errorf("%w: %s", ErrSealed, team)
	}
	key := teamname.Key(team)

	s.mu.Lock()
	if _, exists := s.byTeam[key]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyWritten, team)
	}
	s.byTeam[key] = m
	n := len(s.byTeam)
	s.mu.Unlock()

	metrics.UpdateTeamsTracked(n)
	return nil
}

func (s *MemoryStore) Metrics(team string) model.OptionalMetrics {
	key := teamname.Key(team)
	if snap := s.snapshot.Load(); snap != nil {
		if m, ok := (*snap)[key]; ok {
			return model.Some(m)
		}
		return model.Absent()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.byTeam[key]; ok {
		return model.Some(m)
	}
	return model.Absent()
}

// Seal publishes the read-only snapshot. Calling it twice is harmless.
func (s *MemoryStore) Seal() {
	if s.sealed.Swap(true) {
		return
	}
	s.mu.RLock()
	snap := maps.Clone(s.byTeam)
	s.mu.RUnlock()
	s.snapshot.Store(&snap)
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byTeam)
}
