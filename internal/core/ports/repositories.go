package ports

import (
	"context"
	"time"

	"github.com/samirrijal/stopsapi/internal/core/domain"
)

// StopRepository persists stops keyed by their upstream location id.
// Failures wrap domain.ErrStorage; a missing row is domain.ErrStopNotFound.
type StopRepository interface {
	Exists(ctx context.Context, id int64) (bool, error)
	// Upsert inserts a new stop with selfHref as its permanent self link, or
	// refreshes name, coordinates and last_updated of an existing one.
	// next_departure and the self link are never touched on update.
	Upsert(ctx context.Context, loc domain.Location, selfHref string, now time.Time) error
	Get(ctx context.Context, id int64) (*domain.Stop, error)
	// Neighbors returns the closest existing ids below and above id.
	Neighbors(ctx context.Context, id int64) (prev, next *int64, err error)
	SetField(ctx context.Context, id int64, field domain.StopField, value any) error
	Delete(ctx context.Context, id int64) (bool, error)
}
