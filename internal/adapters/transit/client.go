// Package transit talks to the db.transport.rest API.
package transit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/stopsapi/internal/core/domain"
	"github.com/samirrijal/stopsapi/internal/pkg/metrics"
)

// DefaultBaseURL is the public v6 endpoint.
const DefaultBaseURL = "https://v6.db.transport.rest"

var tracer = otel.Tracer("github.com/samirrijal/stopsapi/internal/adapters/transit")

// Client implements ports.TransitClient. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL. A nil httpClient uses a default one.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

type locationDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
}

type departureDTO struct {
	Platform  *string `json:"platform"`
	Direction *string `json:"direction"`
	Line      *struct {
		Operator *struct {
			Name *string `json:"name"`
		} `json:"operator"`
	} `json:"line"`
}

type departuresDTO struct {
	Departures []departureDTO `json:"departures"`
}

// SearchLocations returns up to limit stops matching query. Results whose id
// is not numeric (addresses, POIs) are dropped.
func (c *Client) SearchLocations(ctx context.Context, query string, limit int) ([]domain.Location, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("results", strconv.Itoa(limit))

	var raw []locationDTO
	if err := c.get(ctx, "search_locations", "/locations?"+q.Encode(), &raw); err != nil {
		return nil, err
	}

	out := make([]domain.Location, 0, len(raw))
	for _, r := range raw {
		id, err := strconv.ParseInt(r.ID, 10, 64)
		if err != nil {
			slog.WarnContext(ctx, "skipping non-numeric location", "id", r.ID, "name", r.Name)
			continue
		}
		loc := domain.Location{ID: id, Name: r.Name}
		if r.Location != nil {
			loc.Point = domain.GeoPoint{Lat: r.Location.Latitude, Lon: r.Location.Longitude}
		}
		out = append(out, loc)
	}
	return out, nil
}

// FetchDepartures returns the departure board of stopID for the next durationMinutes.
func (c *Client) FetchDepartures(ctx context.Context, stopID int64, durationMinutes int) ([]domain.DepartureEntry, error) {
	path := fmt.Sprintf("/stops/%d/departures?duration=%d", stopID, durationMinutes)

	var raw departuresDTO
	if err := c.get(ctx, "fetch_departures", path, &raw); err != nil {
		return nil, err
	}

	out := make([]domain.DepartureEntry, 0, len(raw.Departures))
	for _, d := range raw.Departures {
		e := domain.DepartureEntry{Platform: d.Platform, Direction: d.Direction}
		if d.Line != nil && d.Line.Operator != nil && d.Line.Operator.Name != nil && *d.Line.Operator.Name != "" {
			e.OperatorName = d.Line.Operator.Name
		}
		out = append(out, e)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, op, path string, v any) (err error) {
	ctx, span := tracer.Start(ctx, "transit."+op)
	defer span.End()
	start := time.Now()
	defer func() {
		metrics.ObserveUpstream("transit", op, start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	target := c.baseURL + path
	span.SetAttributes(attribute.String("http.url", target))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrUpstream, op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: HTTP %d from %s", domain.ErrUpstream, resp.StatusCode, target)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrUpstream, op, err)
	}
	return nil
}
