package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/quake-map-service/internal/domain"
)

// QuakeTransformer implements Transformer: it parses a feed feature and maps
// it to a circle marker.
type QuakeTransformer struct {
	logger *slog.Logger
}

// NewTransformer creates a QuakeTransformer.
func NewTransformer(logger *slog.Logger) *QuakeTransformer {
	return &QuakeTransformer{logger: logger}
}

func (t *QuakeTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.Marker, error) {
	quake, err := domain.ParseFeature(raw)
	if err != nil {
		return domain.Marker{}, err
	}

	quake = domain.EnrichQuake(quake)
	marker := domain.NewMarker(quake)

	t.logger.Debug("feature mapped",
		"quake_id", quake.ID,
		"magnitude", quake.Magnitude,
		"depth", quake.Depth,
		"radius", marker.Radius,
		"fill_color", marker.FillColor,
	)
	return marker, nil
}
