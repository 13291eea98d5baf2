package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/stopsapi/internal/core/domain"
	"github.com/samirrijal/stopsapi/internal/core/ports"
)

const (
	ingestResultLimit      = 5
	readDepartureWindow    = 120 // minutes
	profileDepartureWindow = 90  // minutes
	maxOperatorProfiles    = 5
)

// ErrNotDeleted is returned when a stop existed but the delete removed nothing.
var ErrNotDeleted = errors.New("stop was not deleted")

var tracer = otel.Tracer("github.com/samirrijal/stopsapi/internal/core/usecases")

// IngestedStop is one row of an ingest result.
type IngestedStop struct {
	LocationID  int64
	LastUpdated string
	SelfHref    string
}

// StopView is a stored stop together with its ordering neighbors.
type StopView struct {
	Stop *domain.Stop
	Prev *int64
	Next *int64
}

// StopService handles the stop record lifecycle and its sync with the
// upstream transit API.
type StopService struct {
	stops      ports.StopRepository
	transit    ports.TransitClient
	summarizer ports.Summarizer
	events     ports.EventPublisher
	links      Links
	now        func() time.Time
}

// NewStopService creates a new StopService. events may be nil.
func NewStopService(
	stops ports.StopRepository,
	transit ports.TransitClient,
	summarizer ports.Summarizer,
	events ports.EventPublisher,
	links Links,
) *StopService {
	return &StopService{
		stops:      stops,
		transit:    transit,
		summarizer: summarizer,
		events:     events,
		links:      links,
		now:        time.Now,
	}
}

// WithClock replaces the time source.
func (s *StopService) WithClock(now func() time.Time) *StopService {
	s.now = now
	return s
}

// Links returns the hypermedia link builder.
func (s *StopService) Links() Links {
	return s.links
}

// Ingest searches the upstream API for query and upserts every result,
// returned in ascending id order.
func (s *StopService) Ingest(ctx context.Context, query string) ([]IngestedStop, error) {
	ctx, span := tracer.Start(ctx, "StopService.Ingest")
	defer span.End()

	if query == "" {
		return nil, domain.Invalidf("No query provided")
	}

	locations, err := s.transit.SearchLocations(ctx, query, ingestResultLimit)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(locations, func(i, j int) bool { return locations[i].ID < locations[j].ID })

	now := s.now()
	stamp := domain.FormatTimestamp(now)
	out := make([]IngestedStop, 0, len(locations))
	for _, loc := range locations {
		href := s.links.Stop(loc.ID)
		if err := s.stops.Upsert(ctx, loc, href, now); err != nil {
			return nil, err
		}
		s.publish(ctx, domain.StopCreated, loc.ID, map[string]any{
			"name":      loc.Name,
			"latitude":  loc.Point.Lat,
			"longitude": loc.Point.Lon,
		})
		out = append(out, IngestedStop{LocationID: loc.ID, LastUpdated: stamp, SelfHref: href})
	}
	span.SetAttributes(attribute.Int("stops.ingested", len(out)))
	return out, nil
}

// Read refreshes the stop's next departure from the upstream board and
// returns the stored record with its neighbors.
func (s *StopService) Read(ctx context.Context, id int64) (*StopView, error) {
	ctx, span := tracer.Start(ctx, "StopService.Read")
	defer span.End()
	span.SetAttributes(attribute.Int64("stop.id", id))

	if err := s.mustExist(ctx, id); err != nil {
		return nil, err
	}

	departures, err := s.transit.FetchDepartures(ctx, id, readDepartureWindow)
	if err != nil {
		return nil, err
	}
	next, ok := firstBoardable(departures)
	if !ok {
		return nil, domain.ErrNoDeparture
	}

	stamp := domain.FormatTimestamp(s.now())
	if err := s.stops.SetField(ctx, id, domain.FieldNextDeparture, next); err != nil {
		return nil, err
	}
	if err := s.stops.SetField(ctx, id, domain.FieldLastUpdated, stamp); err != nil {
		return nil, err
	}
	s.publish(ctx, domain.StopDeparture, id, map[string]any{
		string(domain.FieldNextDeparture): next,
		string(domain.FieldLastUpdated):   stamp,
	})

	return s.view(ctx, id)
}

// Stored returns the stop as currently persisted, without any upstream call.
func (s *StopService) Stored(ctx context.Context, id int64) (*StopView, error) {
	return s.view(ctx, id)
}

// Patch validates body and writes every supplied field. Without a caller
// supplied last_updated the current time is stored.
func (s *StopService) Patch(ctx context.Context, id int64, body []byte) (*domain.Stop, error) {
	ctx, span := tracer.Start(ctx, "StopService.Patch")
	defer span.End()
	span.SetAttributes(attribute.Int64("stop.id", id))

	if err := s.mustExist(ctx, id); err != nil {
		return nil, err
	}

	updates, err := ParsePatch(body)
	if err != nil {
		return nil, err
	}

	changed := make(map[string]any, len(updates)+1)
	stamped := false
	for _, u := range updates {
		if err := s.stops.SetField(ctx, id, u.Field, u.Value); err != nil {
			return nil, err
		}
		changed[string(u.Field)] = u.Value
		if u.Field == domain.FieldLastUpdated {
			stamped = true
		}
	}
	if !stamped {
		stamp := domain.FormatTimestamp(s.now())
		if err := s.stops.SetField(ctx, id, domain.FieldLastUpdated, stamp); err != nil {
			return nil, err
		}
		changed[string(domain.FieldLastUpdated)] = stamp
	}
	s.publish(ctx, domain.StopUpdated, id, changed)

	return s.stops.Get(ctx, id)
}

// Delete removes the stop.
func (s *StopService) Delete(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "StopService.Delete")
	defer span.End()
	span.SetAttributes(attribute.Int64("stop.id", id))

	if err := s.mustExist(ctx, id); err != nil {
		return err
	}
	removed, err := s.stops.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotDeleted
	}
	s.publish(ctx, domain.StopDeleted, id, nil)
	return nil
}

// OperatorProfiles summarizes up to five distinct operators found on the
// stop's departure board, in first-seen order.
func (s *StopService) OperatorProfiles(ctx context.Context, id int64) ([]domain.OperatorProfile, error) {
	ctx, span := tracer.Start(ctx, "StopService.OperatorProfiles")
	defer span.End()
	span.SetAttributes(attribute.Int64("stop.id", id))

	if err := s.mustExist(ctx, id); err != nil {
		return nil, err
	}

	departures, err := s.transit.FetchDepartures(ctx, id, profileDepartureWindow)
	if err != nil {
		return nil, err
	}

	operators := distinctOperators(departures, maxOperatorProfiles)
	profiles := make([]domain.OperatorProfile, 0, len(operators))
	for _, op := range operators {
		info, err := s.summarizer.SummarizeOperator(ctx, op)
		if err != nil {
			return nil, fmt.Errorf("summarize %q: %w", op, err)
		}
		profiles = append(profiles, domain.OperatorProfile{OperatorName: op, Information: info})
	}
	return profiles, nil
}

func (s *StopService) mustExist(ctx context.Context, id int64) error {
	ok, err := s.stops.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrStopNotFound
	}
	return nil
}

func (s *StopService) view(ctx context.Context, id int64) (*StopView, error) {
	stop, err := s.stops.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prev, next, err := s.stops.Neighbors(ctx, id)
	if err != nil {
		return nil, err
	}
	return &StopView{Stop: stop, Prev: prev, Next: next}, nil
}

func (s *StopService) publish(ctx context.Context, kind domain.StopEventKind, id int64, fields map[string]any) {
	if s.events == nil {
		return
	}
	event := &domain.StopEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		LocationID: id,
		Fields:     fields,
		Time:       s.now().UTC(),
	}
	if err := s.events.PublishStopEvent(ctx, event); err != nil {
		slog.WarnContext(ctx, "publish stop event failed", "kind", kind, "stop_id", id, "error", err)
	}
}

// firstBoardable returns the summary of the first entry carrying both a
// platform and a direction.
func firstBoardable(entries []domain.DepartureEntry) (string, bool) {
	for _, e := range entries {
		if e.Platform != nil && e.Direction != nil {
			return domain.FormatNextDeparture(*e.Platform, *e.Direction), true
		}
	}
	return "", false
}

func distinctOperators(entries []domain.DepartureEntry, limit int) []string {
	seen := make(map[string]struct{}, limit)
	var names []string
	for _, e := range entries {
		if len(names) == limit {
			break
		}
		if e.OperatorName == nil {
			continue
		}
		name := *e.OperatorName
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
