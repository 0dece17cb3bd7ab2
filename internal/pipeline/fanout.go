package pipeline

import (
	"context"
	"errors"

	"github.com/couchcryptid/quake-map-service/internal/domain"
)

// FanOut loads every batch into each of its loaders in order. All loaders are
// attempted; their errors are joined.
type FanOut []BatchLoader

// LoadBatch implements BatchLoader.
func (f FanOut) LoadBatch(ctx context.Context, markers []domain.Marker) error {
	var errs []error
	for _, l := range f {
		if err := l.LoadBatch(ctx, markers); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
