package store

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/observability"
)

// Memory is an in-process Snapshot keyed by quake id.
type Memory struct {
	mu        sync.RWMutex
	markers   map[string]domain.Marker
	retention time.Duration
	opts      options
	metrics   *observability.Metrics
}

// NewMemory creates an empty in-memory snapshot that drops markers whose
// origin time is older than retention.
func NewMemory(retention time.Duration, metrics *observability.Metrics, opts ...Option) *Memory {
	return &Memory{
		markers:   make(map[string]domain.Marker),
		retention: retention,
		opts:      buildOptions(opts),
		metrics:   metrics,
	}
}

// LoadBatch upserts markers and prunes expired ones.
func (s *Memory) LoadBatch(_ context.Context, markers []domain.Marker) error {
	cutoff := s.opts.clock.Now().Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range markers {
		s.markers[m.ID] = m
	}
	for id, m := range s.markers {
		if m.Quake.Time.Before(cutoff) {
			delete(s.markers, id)
		}
	}
	s.metrics.SnapshotMarkers.Set(float64(len(s.markers)))
	return nil
}

// List returns matching markers, newest first.
func (s *Memory) List(_ context.Context, f Filter) ([]domain.Marker, error) {
	cutoff := s.opts.clock.Now().Add(-s.retention)

	s.mu.RLock()
	all := make([]domain.Marker, 0, len(s.markers))
	for _, m := range s.markers {
		all = append(all, m)
	}
	s.mu.RUnlock()

	return selectMarkers(all, f, cutoff), nil
}
