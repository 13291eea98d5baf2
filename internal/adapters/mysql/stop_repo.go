package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/samirrijal/stopsapi/internal/core/domain"
	"github.com/samirrijal/stopsapi/internal/pkg/metrics"
)

// columns maps patchable fields to their column.
var columns = map[domain.StopField]string{
	domain.FieldName:          "name",
	domain.FieldLatitude:      "latitude",
	domain.FieldLongitude:     "longitude",
	domain.FieldNextDeparture: "next_departure",
	domain.FieldLastUpdated:   "last_updated",
}

// StopRepo implements ports.StopRepository on MySQL.
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
	err := r.db.SQL.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM locations WHERE location_id = ?)`, id,
	).Scan(&ok)
	if err != nil {
		return false, storageErr("exists", err)
	}
	return ok, nil
}

// Upsert inserts a stop or refreshes its name, coordinates and last_updated.
func (r *StopRepo) Upsert(ctx context.Context, loc domain.Location, selfHref string, now time.Time) error {
	_, err := r.db.SQL.ExecContext(ctx, `
		INSERT INTO locations (location_id, name, latitude, longitude, last_updated, link_self_href)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			latitude = VALUES(latitude),
			longitude = VALUES(longitude),
			last_updated = VALUES(last_updated)
	`, loc.ID, loc.Name, loc.Point.Lat, loc.Point.Lon, domain.FormatTimestamp(now), selfHref)
	if err != nil {
		return storageErr("upsert", err)
	}
	return nil
}

// Get returns a stop by id.
func (r *StopRepo) Get(ctx context.Context, id int64) (*domain.Stop, error) {
	var (
		s                      domain.Stop
		name, nextDep, updated sql.NullString
		lat, lon               sql.NullFloat64
		self                   sql.NullString
	)
	err := r.db.SQL.QueryRowContext(ctx, `
		SELECT location_id, name, latitude, longitude, next_departure, last_updated, link_self_href
		FROM locations WHERE location_id = ?
	`, id).Scan(&s.LocationID, &name, &lat, &lon, &nextDep, &updated, &self)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrStopNotFound
	}
	if err != nil {
		return nil, storageErr("get", err)
	}
	s.Name = nullString(name)
	s.Latitude = nullFloat(lat)
	s.Longitude = nullFloat(lon)
	s.NextDeparture = nullString(nextDep)
	s.LastUpdated = nullString(updated)
	s.LinkSelfHref = self.String
	return &s, nil
}

// Neighbors returns the closest stored ids below and above id.
func (r *StopRepo) Neighbors(ctx context.Context, id int64) (*int64, *int64, error) {
	var prev, next sql.NullInt64
	err := r.db.SQL.QueryRowContext(ctx, `
		SELECT
			(SELECT MAX(location_id) FROM locations WHERE location_id < ?),
			(SELECT MIN(location_id) FROM locations WHERE location_id > ?)
	`, id, id).Scan(&prev, &next)
	if err != nil {
		return nil, nil, storageErr("neighbors", err)
	}
	return nullInt(prev), nullInt(next), nil
}

// SetField writes a single column.
func (r *StopRepo) SetField(ctx context.Context, id int64, field domain.StopField, value any) error {
	col, ok := columns[field]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
	}
	_, err := r.db.SQL.ExecContext(ctx,
		`UPDATE locations SET `+col+` = ? WHERE location_id = ?`, value, id)
	if err != nil {
		return storageErr("set_"+col, err)
	}
	return nil
}

// Delete removes a stop and reports whether a row was deleted.
func (r *StopRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.SQL.ExecContext(ctx, `DELETE FROM locations WHERE location_id = ?`, id)
	if err != nil {
		return false, storageErr("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("delete", err)
	}
	return n > 0, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func storageErr(op string, err error) error {
	metrics.StoreErrors.WithLabelValues("mysql", op).Inc()
	return fmt.Errorf("%w: %s: %v", domain.ErrStorage, op, err)
}
