package usecases_test

import (
	"errors"
	"testing"

	"github.com/samirrijal/stopsapi/internal/core/domain"
	"github.com/samirrijal/stopsapi/internal/core/usecases"
)

func TestParsePatch_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"null body", `null`},
		{"empty object", `{}`},
		{"array body", `[{"name":"x"}]`},
		{"malformed", `{"name":`},
		{"trailing garbage", `{"name":"x"} garbage`},
		{"second object", `{"name":"x"}{"name":"y"}`},
		{"trailing brace", `{"name":"x"}}`},
		{"latitude above range", `{"latitude": 91}`},
		{"latitude below range", `{"latitude": -90.0001}`},
		{"longitude below range", `{"longitude": -181}`},
		{"longitude above range", `{"longitude": 180.5}`},
		{"empty name", `{"name": ""}`},
		{"empty next_departure", `{"next_departure": ""}`},
		{"empty latitude string", `{"latitude": ""}`},
		{"null value", `{"name": null}`},
		{"latitude as text", `{"latitude": "north"}`},
		{"name as number", `{"name": 7}`},
		{"unknown field", `{"location_id": 5}`},
		{"injection attempt", `{"name = 'x'; --": "y"}`},
		{"timestamp with separator", `{"last_updated": "2024-03-14-09:26:53"}`},
		{"timestamp with space", `{"last_updated": "2024-03-14 09:26:53"}`},
		{"timestamp garbage", `{"last_updated": "yesterday"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := usecases.ParsePatch([]byte(tt.body))
			if !errors.Is(err, domain.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestParsePatch_TrailingWhitespace(t *testing.T) {
	updates, err := usecases.ParsePatch([]byte("{\"name\":\"Berlin Hbf\"}\n  \n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updates) != 1 || updates[0].Field != domain.FieldName {
		t.Errorf("updates = %+v", updates)
	}
}

func TestParsePatch_AcceptsBoundaries(t *testing.T) {
	updates, err := usecases.ParsePatch([]byte(`{
		"latitude": 90,
		"longitude": -180,
		"name": "Berlin Hbf",
		"next_departure": "Platform 1 towards Spandau",
		"last_updated": "2024-03-1409:26:53"
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []domain.FieldUpdate{
		{Field: domain.FieldLatitude, Value: 90.0},
		{Field: domain.FieldLongitude, Value: -180.0},
		{Field: domain.FieldName, Value: "Berlin Hbf"},
		{Field: domain.FieldNextDeparture, Value: "Platform 1 towards Spandau"},
		{Field: domain.FieldLastUpdated, Value: "2024-03-1409:26:53"},
	}
	if len(updates) != len(want) {
		t.Fatalf("expected %d updates, got %d", len(want), len(updates))
	}
	for i := range want {
		if updates[i] != want[i] {
			t.Errorf("update %d: expected %+v, got %+v", i, want[i], updates[i])
		}
	}
}

func TestParsePatch_FirstViolationWins(t *testing.T) {
	_, err := usecases.ParsePatch([]byte(`{"longitude": 500, "latitude": 100}`))
	var ce *domain.CoordinateError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CoordinateError, got %v", err)
	}
	if ce.Field != "longitude" {
		t.Errorf("expected longitude to be reported first, got %s", ce.Field)
	}
}
