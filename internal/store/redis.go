package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/observability"
	redis "github.com/redis/go-redis/v9"
)

// RedisConfig configures Redis access for the marker snapshot.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis snapshot: %w", err)
	}
	return client, nil
}

// Redis is a Snapshot shared across service replicas. Markers live in a hash
// (<prefix>:markers, id -> JSON) indexed by origin time in a sorted set
// (<prefix>:by_time, id scored by unix ms).
type Redis struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
	opts      options
	metrics   *observability.Metrics
}

// NewRedis wraps a connected client.
func NewRedis(client *redis.Client, keyPrefix string, retention time.Duration, metrics *observability.Metrics, opts ...Option) *Redis {
	keyPrefix = strings.TrimSpace(keyPrefix)
	if keyPrefix == "" {
		keyPrefix = "quake_map"
	}
	return &Redis{
		client:    client,
		prefix:    keyPrefix,
		retention: retention,
		opts:      buildOptions(opts),
		metrics:   metrics,
	}
}

func (s *Redis) markersKey() string { return s.prefix + ":markers" }
func (s *Redis) byTimeKey() string  { return s.prefix + ":by_time" }

// LoadBatch upserts markers and prunes expired ones in one transaction.
func (s *Redis) LoadBatch(ctx context.Context, markers []domain.Marker) error {
	cutoffTime := s.opts.clock.Now().Add(-s.retention)
	cutoff := strconv.FormatInt(cutoffTime.UnixMilli(), 10)

	expired, err := s.client.ZRangeByScore(ctx, s.byTimeKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + cutoff,
	}).Result()
	if err != nil {
		return fmt.Errorf("list expired markers: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, m := range markers {
			if m.Quake.Time.Before(cutoffTime) {
				continue
			}
			data, err := json.Marshal(m)
			if err != nil {
				return fmt.Errorf("encode marker %s: %w", m.ID, err)
			}
			pipe.HSet(ctx, s.markersKey(), m.ID, data)
			pipe.ZAdd(ctx, s.byTimeKey(), redis.Z{
				Score:  float64(m.Quake.Time.UnixMilli()),
				Member: m.ID,
			})
		}
		if len(expired) > 0 {
			pipe.HDel(ctx, s.markersKey(), expired...)
			pipe.ZRemRangeByScore(ctx, s.byTimeKey(), "-inf", "("+cutoff)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store markers: %w", err)
	}

	if n, err := s.client.HLen(ctx, s.markersKey()).Result(); err == nil {
		s.metrics.SnapshotMarkers.Set(float64(n))
	}
	return nil
}

// List returns matching markers, newest first.
func (s *Redis) List(ctx context.Context, f Filter) ([]domain.Marker, error) {
	raw, err := s.client.HGetAll(ctx, s.markersKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("read markers: %w", err)
	}

	all := make([]domain.Marker, 0, len(raw))
	for id, v := range raw {
		var m domain.Marker
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return nil, fmt.Errorf("decode marker %s: %w", id, err)
		}
		all = append(all, m)
	}

	return selectMarkers(all, f, s.opts.clock.Now().Add(-s.retention)), nil
}
