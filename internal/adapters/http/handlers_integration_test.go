//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/stopsapi/internal/adapters/http"
	"github.com/samirrijal/stopsapi/internal/adapters/postgres"
	"github.com/samirrijal/stopsapi/internal/core/domain"
	"github.com/samirrijal/stopsapi/internal/core/usecases"
	"github.com/samirrijal/stopsapi/internal/pkg/config"
)

// setupTestDB connects to the configured database, applies the schema and
// empties the locations table.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("stopsapi-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := db.Pool.Exec(ctx, `TRUNCATE locations`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return db
}

func setupTestDeps(db *postgres.DB, transit *mockTransit) *http.Dependencies {
	svc := usecases.NewStopService(
		postgres.NewStopRepo(db), transit, &mockSummarizer{}, nil, usecases.NewLinks(baseURL),
	).WithClock(fixedNow)
	return &http.Dependencies{Stops: svc, DB: db}
}

func TestIntegration_StopLifecycle(t *testing.T) {
	db := setupTestDB(t)
	transit := &mockTransit{
		searchFn: func(ctx context.Context, query string, limit int) ([]domain.Location, error) {
			return []domain.Location{
				{ID: 30, Name: "Charlie", Point: domain.GeoPoint{Lat: 50.3, Lon: 8.3}},
				{ID: 10, Name: "Alpha", Point: domain.GeoPoint{Lat: 50.1, Lon: 8.1}},
				{ID: 20, Name: "Bravo", Point: domain.GeoPoint{Lat: 50.2, Lon: 8.2}},
			}, nil
		},
		departuresFn: func(ctx context.Context, stopID int64, minutes int) ([]domain.DepartureEntry, error) {
			return []domain.DepartureEntry{boardable("3", "Wiesbaden")}, nil
		},
	}
	app := setupApp(setupTestDeps(db, transit))

	// Ingest
	resp, err := app.Test(httptest.NewRequest("PUT", "/stops?query=test", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("ingest: expected 201, got %d", resp.StatusCode)
	}

	// Read refreshes next_departure and links neighbors
	resp, _ = app.Test(httptest.NewRequest("GET", "/stops/20", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("read: expected 200, got %d", resp.StatusCode)
	}
	var read map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&read)
	if read["next_departure"] != "Platform 3 towards Wiesbaden" {
		t.Errorf("unexpected next_departure %v", read["next_departure"])
	}
	links := read["_links"].(map[string]interface{})
	if links["prev"].(map[string]interface{})["href"] != baseURL+"/stops/10" {
		t.Errorf("unexpected prev %v", links["prev"])
	}
	if links["next"].(map[string]interface{})["href"] != baseURL+"/stops/30" {
		t.Errorf("unexpected next %v", links["next"])
	}

	// Re-ingest keeps next_departure
	_, _ = app.Test(httptest.NewRequest("PUT", "/stops?query=test", nil), -1)
	var next *string
	if err := db.Pool.QueryRow(context.Background(),
		`SELECT next_departure FROM locations WHERE location_id = 20`).Scan(&next); err != nil {
		t.Fatal(err)
	}
	if next == nil || *next != "Platform 3 towards Wiesbaden" {
		t.Errorf("re-ingest clobbered next_departure: %v", next)
	}

	// Patch
	req := httptest.NewRequest("PATCH", "/stops/20", strings.NewReader(`{"name":"Bravo Süd","longitude":-180}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("patch: expected 200, got %d", resp.StatusCode)
	}

	// Delete, then again
	resp, _ = app.Test(httptest.NewRequest("DELETE", "/stops/20", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("delete: expected 200, got %d", resp.StatusCode)
	}
	resp, _ = app.Test(httptest.NewRequest("DELETE", "/stops/20", nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("second delete: expected 404, got %d", resp.StatusCode)
	}
}

func TestIntegration_Ready(t *testing.T) {
	db := setupTestDB(t)
	app := setupApp(setupTestDeps(db, &mockTransit{}))

	resp, _ := app.Test(httptest.NewRequest("GET", "/ready", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
