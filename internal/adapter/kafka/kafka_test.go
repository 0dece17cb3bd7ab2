package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/quake-map-service/internal/config"
	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 3, 3, 13, 0, 0, 0, time.UTC)
	marker := domain.NewMarker(domain.Quake{
		ID:          "us7000m001",
		Magnitude:   5.2,
		Depth:       35,
		EventType:   "earthquake",
		ProcessedAt: now,
	})

	msg, err := serializeToMessage(marker)
	require.NoError(t, err)

	assert.Equal(t, []byte("us7000m001"), msg.Key)
	assert.Contains(t, string(msg.Value), `"fillColor":"#FC4E2A"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("earthquake"), msg.Headers[0].Value)
	assert.Equal(t, "depth_band", msg.Headers[1].Key)
	assert.Equal(t, []byte("#FC4E2A"), msg.Headers[1].Value)
	assert.Equal(t, "processed_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestWriter_LoadBatchEmpty(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:1"}, KafkaSinkTopic: "earthquake-markers"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	// No brokers are contacted for an empty batch.
	require.NoError(t, w.LoadBatch(context.Background(), nil))
}
