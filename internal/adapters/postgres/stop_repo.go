package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/stopsapi/internal/core/domain"
	"github.com/samirrijal/stopsapi/internal/pkg/metrics"
)

// columns maps patchable fields to their column. Field names never reach SQL directly.
var columns = map[domain.StopField]string{
	domain.FieldName:          "name",
	domain.FieldLatitude:      "latitude",
	domain.FieldLongitude:     "longitude",
	domain.FieldNextDeparture: "next_departure",
	domain.FieldLastUpdated:   "last_updated",
}

// StopRepo implements ports.StopRepository with pgx.
type StopRepo struct {
	db *DB
}

// NewStopRepo creates a new StopRepo.
func NewStopRepo(db *DB) *StopRepo {
	return &StopRepo{db: db}
}

// Exists reports whether a stop with id is stored.
func (r *StopRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM locations WHERE location_id = $1)`, id,
	).Scan(&ok)
	if err != nil {
		return false, storageErr("exists", err)
	}
	return ok, nil
}

// Upsert inserts a stop or refreshes its name, coordinates and last_updated.
func (r *StopRepo) Upsert(ctx context.Context, loc domain.Location, selfHref string, now time.Time) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO locations (location_id, name, latitude, longitude, last_updated, link_self_href)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (location_id) DO UPDATE
		SET name = EXCLUDED.name,
		    latitude = EXCLUDED.latitude,
		    longitude = EXCLUDED.longitude,
		    last_updated = EXCLUDED.last_updated
	`, loc.ID, loc.Name, loc.Point.Lat, loc.Point.Lon, domain.FormatTimestamp(now), selfHref)
	if err != nil {
		return storageErr("upsert", err)
	}
	return nil
}

// Get returns a stop by id.
func (r *StopRepo) Get(ctx context.Context, id int64) (*domain.Stop, error) {
	var s domain.Stop
	err := r.db.Pool.QueryRow(ctx, `
		SELECT location_id, name, latitude, longitude, next_departure, last_updated,
		       COALESCE(link_self_href, '')
		FROM locations WHERE location_id = $1
	`, id).Scan(
		&s.LocationID, &s.Name, &s.Latitude, &s.Longitude,
		&s.NextDeparture, &s.LastUpdated, &s.LinkSelfHref,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrStopNotFound
	}
	if err != nil {
		return nil, storageErr("get", err)
	}
	return &s, nil
}

// Neighbors returns the closest stored ids below and above id.
func (r *StopRepo) Neighbors(ctx context.Context, id int64) (*int64, *int64, error) {
	var prev, next *int64
	err := r.db.Pool.QueryRow(ctx, `
		SELECT
			(SELECT max(location_id) FROM locations WHERE location_id < $1),
			(SELECT min(location_id) FROM locations WHERE location_id > $1)
	`, id).Scan(&prev, &next)
	if err != nil {
		return nil, nil, storageErr("neighbors", err)
	}
	return prev, next, nil
}

// SetField writes a single column.
func (r *StopRepo) SetField(ctx context.Context, id int64, field domain.StopField, value any) error {
	col, ok := columns[field]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
	}
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE locations SET `+col+` = $1 WHERE location_id = $2`, value, id)
	if err != nil {
		return storageErr("set_"+col, err)
	}
	return nil
}

// Delete removes a stop and reports whether a row was deleted.
func (r *StopRepo) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM locations WHERE location_id = $1`, id)
	if err != nil {
		return false, storageErr("delete", err)
	}
	return tag.RowsAffected() > 0, nil
}

func storageErr(op string, err error) error {
	metrics.StoreErrors.WithLabelValues("postgres", op).Inc()
	return fmt.Errorf("%w: %s: %v", domain.ErrStorage, op, err)
}
