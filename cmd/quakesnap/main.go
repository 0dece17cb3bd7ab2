// Command quakesnap fetches the USGS feed once (or reads a saved copy) and
// prints the resulting map markers as a GeoJSON FeatureCollection. It runs
// the same domain mapping as the service, so its output doubles as a fixture.
//
// Usage:
//
//	go run ./cmd/quakesnap \
//	  -in internal/adapter/usgs/testdata/all_week_sample.geojson \
//	  -fixed-time 2024-03-03T13:00:00Z \
//	  -out markers.geojson
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/quake-map-service/internal/adapter/httpadapter"
	"github.com/couchcryptid/quake-map-service/internal/adapter/usgs"
	"github.com/couchcryptid/quake-map-service/internal/config"
	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "quakesnap:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("quakesnap", flag.ContinueOnError)
	fs.SetOutput(stderr)
	feedURL := fs.String("feed", config.DefaultFeedURL, "USGS GeoJSON summary feed URL")
	in := fs.String("in", "", "read the feed from a local file instead of -feed")
	out := fs.String("out", "", "output path (default stdout)")
	fixedTime := fs.String("fixed-time", "", "RFC3339 processing time for reproducible output")
	timeout := fs.Duration("timeout", 10*time.Second, "feed request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if *fixedTime != "" {
		t, err := time.Parse(time.RFC3339, *fixedTime)
		if err != nil {
			return fmt.Errorf("parse -fixed-time: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(t))
		defer domain.SetClock(nil)
	}

	feed, err := loadFeed(ctx, *in, *feedURL, *timeout, logger)
	if err != nil {
		return err
	}

	markers := make([]domain.Marker, 0, len(feed.Features))
	var skipped int
	for _, f := range feed.Features {
		q, err := domain.ParseFeature(domain.RawEvent{Feature: f})
		if err != nil {
			if !errors.Is(err, domain.ErrInvalidFeature) {
				return err
			}
			logger.Warn("skipping feature", "quake_id", f.ID, "error", err)
			skipped++
			continue
		}
		markers = append(markers, domain.NewMarker(domain.EnrichQuake(q)))
	}

	body, err := httpadapter.FeatureCollection(markers).MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode markers: %w", err)
	}
	body = append(body, '\n')

	if err := write(*out, stdout, body); err != nil {
		return err
	}

	printStats(stderr, markers, skipped)
	return nil
}

func loadFeed(ctx context.Context, path, feedURL string, timeout time.Duration, logger *slog.Logger) (domain.Feed, error) {
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return domain.Feed{}, fmt.Errorf("open feed file: %w", err)
		}
		defer f.Close()
		return domain.DecodeFeed(f)
	}

	client := usgs.NewClient(feedURL, timeout, observability.NewMetricsForTesting(), logger)
	return client.FetchFeed(ctx)
}

func write(path string, stdout io.Writer, body []byte) error {
	if path == "" {
		_, err := stdout.Write(body)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, body, 0o600)
}

type bandCount struct {
	color string
	count int
}

func printStats(w io.Writer, markers []domain.Marker, skipped int) {
	counts := map[string]int{}
	for _, m := range markers {
		counts[m.FillColor]++
	}
	bands := make([]bandCount, 0, len(counts))
	for c, n := range counts {
		bands = append(bands, bandCount{c, n})
	}
	sort.Slice(bands, func(i, j int) bool {
		if bands[i].count == bands[j].count {
			return bands[i].color < bands[j].color
		}
		return bands[i].count > bands[j].count
	})

	fmt.Fprintf(w, "markers: %d, skipped: %d\n", len(markers), skipped)
	for _, b := range bands {
		fmt.Fprintf(w, "  %s=%d\n", b.color, b.count)
	}
}
