// Package store keeps the current window of markers for the HTTP API.
package store

import (
	"context"
	"sort"
	"time"

	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
)

// Snapshot is a marker store the pipeline loads into and the HTTP API reads from.
type Snapshot interface {
	LoadBatch(ctx context.Context, markers []domain.Marker) error
	List(ctx context.Context, f Filter) ([]domain.Marker, error)
}

// Filter narrows a listing. Zero values match everything.
type Filter struct {
	MinMagnitude *float64
	Bound        *orb.Bound
	Limit        int
}

// Match reports whether a marker passes the filter.
func (f Filter) Match(m domain.Marker) bool {
	if f.MinMagnitude != nil && m.Quake.Magnitude < *f.MinMagnitude {
		return false
	}
	if f.Bound != nil && !f.Bound.Contains(m.Quake.Point()) {
		return false
	}
	return true
}

// Option customizes a store.
type Option func(*options)

type options struct {
	clock clockwork.Clock
}

// WithClock overrides the clock used for retention.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

func buildOptions(opts []Option) options {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// selectMarkers filters out expired and non-matching markers, sorts newest
// first, and applies the limit.
func selectMarkers(all []domain.Marker, f Filter, cutoff time.Time) []domain.Marker {
	out := make([]domain.Marker, 0, len(all))
	for _, m := range all {
		if m.Quake.Time.Before(cutoff) || !f.Match(m) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quake.Time.Equal(out[j].Quake.Time) {
			return out[i].ID < out[j].ID
		}
		return out[i].Quake.Time.After(out[j].Quake.Time)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}
