package usgs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/observability"
)

// Client fetches the USGS GeoJSON summary feed.
type Client struct {
	feedURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a feed client with the given request timeout.
func NewClient(feedURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		feedURL: feedURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// URL returns the feed URL this client polls.
func (c *Client) URL() string {
	return c.feedURL
}

// FetchFeed downloads and decodes the feed.
func (c *Client) FetchFeed(ctx context.Context) (domain.Feed, error) {
	start := time.Now()
	feed, err := c.fetch(ctx)
	c.metrics.FeedFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FeedRequests.WithLabelValues("error").Inc()
		return domain.Feed{}, err
	}
	c.metrics.FeedRequests.WithLabelValues("success").Inc()
	c.metrics.FeedFeatures.Set(float64(len(feed.Features)))
	c.logger.Debug("feed fetched",
		"url", c.feedURL,
		"features", len(feed.Features),
		"duration", time.Since(start),
	)
	return feed, nil
}

func (c *Client) fetch(ctx context.Context) (domain.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return domain.Feed{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Feed{}, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Feed{}, fmt.Errorf("usgs feed error: status %d: %s", resp.StatusCode, body)
	}

	return domain.DecodeFeed(resp.Body)
}
