package http_test

import (
	"context"
	"sort"
	"time"

	"github.com/samirrijal/stopsapi/internal/core/domain"
)

// ---- Stop store ----

// memStopRepo is an in-memory StopRepository. The fn fields override
// individual operations.
type memStopRepo struct {
	rows     map[int64]*domain.Stop
	deleteFn func(ctx context.Context, id int64) (bool, error)
	existsFn func(ctx context.Context, id int64) (bool, error)
}

func newMemStopRepo(stops ...domain.Stop) *memStopRepo {
	m := &memStopRepo{rows: map[int64]*domain.Stop{}}
	for i := range stops {
		s := stops[i]
		m.rows[s.LocationID] = &s
	}
	return m
}

func (m *memStopRepo) Exists(ctx context.Context, id int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, id)
	}
	_, ok := m.rows[id]
	return ok, nil
}

func (m *memStopRepo) Upsert(ctx context.Context, loc domain.Location, selfHref string, now time.Time) error {
	name, lat, lon := loc.Name, loc.Point.Lat, loc.Point.Lon
	stamp := domain.FormatTimestamp(now)
	if s, ok := m.rows[loc.ID]; ok {
		s.Name, s.Latitude, s.Longitude, s.LastUpdated = &name, &lat, &lon, &stamp
		return nil
	}
	m.rows[loc.ID] = &domain.Stop{
		LocationID:   loc.ID,
		Name:         &name,
		Latitude:     &lat,
		Longitude:    &lon,
		LastUpdated:  &stamp,
		LinkSelfHref: selfHref,
	}
	return nil
}

func (m *memStopRepo) Get(ctx context.Context, id int64) (*domain.Stop, error) {
	s, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrStopNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStopRepo) Neighbors(ctx context.Context, id int64) (*int64, *int64, error) {
	ids := make([]int64, 0, len(m.rows))
	for k := range m.rows {
		ids = append(ids, k)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var prev, next *int64
	for _, k := range ids {
		k := k
		if k < id {
			prev = &k
		}
		if k > id && next == nil {
			next = &k
		}
	}
	return prev, next, nil
}

func (m *memStopRepo) SetField(ctx context.Context, id int64, field domain.StopField, value any) error {
	s, ok := m.rows[id]
	if !ok {
		return nil
	}
	switch field {
	case domain.FieldName:
		v := value.(string)
		s.Name = &v
	case domain.FieldNextDeparture:
		v := value.(string)
		s.NextDeparture = &v
	case domain.FieldLastUpdated:
		v := value.(string)
		s.LastUpdated = &v
	case domain.FieldLatitude:
		v := value.(float64)
		s.Latitude = &v
	case domain.FieldLongitude:
		v := value.(float64)
		s.Longitude = &v
	}
	return nil
}

func (m *memStopRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	if _, ok := m.rows[id]; !ok {
		return false, nil
	}
	delete(m.rows, id)
	return true, nil
}

// ---- Upstream clients ----

type mockTransit struct {
	searchFn     func(ctx context.Context, query string, limit int) ([]domain.Location, error)
	departuresFn func(ctx context.Context, stopID int64, minutes int) ([]domain.DepartureEntry, error)
}

func (m *mockTransit) SearchLocations(ctx context.Context, query string, limit int) ([]domain.Location, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}

func (m *mockTransit) FetchDepartures(ctx context.Context, stopID int64, minutes int) ([]domain.DepartureEntry, error) {
	if m.departuresFn != nil {
		return m.departuresFn(ctx, stopID, minutes)
	}
	return nil, nil
}

type mockSummarizer struct {
	summarizeFn func(ctx context.Context, operator string) (string, error)
}

func (m *mockSummarizer) SummarizeOperator(ctx context.Context, operator string) (string, error) {
	if m.summarizeFn != nil {
		return m.summarizeFn(ctx, operator)
	}
	return "about " + operator, nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error { return m.err }
