package usgs

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// FeedFetcher downloads one snapshot of the feed.
type FeedFetcher interface {
	FetchFeed(ctx context.Context) (domain.Feed, error)
}

// Poller turns periodic feed snapshots into a stream of new or updated features.
// It implements pipeline.BatchExtractor.
type Poller struct {
	fetcher  FeedFetcher
	feedURL  string
	interval time.Duration
	clock    clockwork.Clock
	seen     *seenCache
	metrics  *observability.Metrics
	logger   *slog.Logger

	// pending and lastPoll are only touched by the pipeline goroutine.
	pending  []domain.RawEvent
	lastPoll time.Time
}

// PollerOption customizes a Poller.
type PollerOption func(*Poller)

// WithClock overrides the clock used to schedule polls.
func WithClock(c clockwork.Clock) PollerOption {
	return func(p *Poller) { p.clock = c }
}

// NewPoller creates a Poller that fetches at most once per interval and
// remembers up to seenCacheSize feature versions.
func NewPoller(fetcher FeedFetcher, feedURL string, interval time.Duration, seenCacheSize int, metrics *observability.Metrics, logger *slog.Logger, opts ...PollerOption) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		feedURL:  feedURL,
		interval: interval,
		clock:    clockwork.NewRealClock(),
		seen:     newSeenCache(seenCacheSize),
		metrics:  metrics,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ExtractBatch returns up to batchSize features that have not been committed
// in their current version. When nothing is buffered it waits for the next
// poll slot and fetches the feed. An empty batch means the latest poll had
// nothing new.
func (p *Poller) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error) {
	if len(p.pending) == 0 {
		if err := p.waitForSlot(ctx); err != nil {
			return nil, err
		}
		if err := p.poll(ctx); err != nil {
			return nil, err
		}
	}

	n := min(batchSize, len(p.pending))
	batch := p.pending[:n:n]
	p.pending = p.pending[n:]
	return batch, nil
}

func (p *Poller) waitForSlot(ctx context.Context) error {
	if p.lastPoll.IsZero() {
		return nil
	}
	wait := p.interval - p.clock.Since(p.lastPoll)
	if wait <= 0 {
		return nil
	}

	timer := p.clock.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}

func (p *Poller) poll(ctx context.Context) error {
	p.lastPoll = p.clock.Now()

	feed, err := p.fetcher.FetchFeed(ctx)
	if err != nil {
		return err
	}

	fetchedAt := p.lastPoll.UTC()
	counts := map[seenResult]int{}
	for _, f := range feed.Features {
		key := featureKey(f)
		version := featureVersion(f)

		result := p.seen.classify(key, version)
		counts[result]++
		p.metrics.SeenCache.WithLabelValues(string(result)).Inc()
		if result == seenUnchanged {
			continue
		}

		p.pending = append(p.pending, domain.RawEvent{
			Feature:   f,
			FeedURL:   p.feedURL,
			FetchedAt: fetchedAt,
			Commit: func(context.Context) error {
				p.seen.mark(key, version)
				return nil
			},
		})
	}

	p.logger.Info("feed polled",
		"features", len(feed.Features),
		"new", counts[seenNew],
		"updated", counts[seenUpdated],
		"unchanged", counts[seenUnchanged],
	)
	return nil
}

// featureKey identifies a feature across polls. Unnamed features fall back to
// place and origin time.
func featureKey(f domain.RawFeature) string {
	if f.ID != "" {
		return f.ID
	}
	return "anon:" + f.Properties.MustString("place", "") + "|" + formatMillis(f.Properties, "time")
}

// featureVersion is the feature's "updated" timestamp, or its origin time when absent.
func featureVersion(f domain.RawFeature) int64 {
	if v, ok := f.Properties["updated"].(float64); ok {
		return int64(v)
	}
	if v, ok := f.Properties["time"].(float64); ok {
		return int64(v)
	}
	return 0
}

func formatMillis(props map[string]any, key string) string {
	if v, ok := props[key].(float64); ok {
		return time.UnixMilli(int64(v)).UTC().Format(time.RFC3339Nano)
	}
	return ""
}
