package geospatial

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	// Berlin Hbf to München Hbf is roughly 504 km
	d := Haversine(52.524924, 13.369629, 48.140232, 11.558335)
	if math.Abs(d-504_000) > 5_000 {
		t.Errorf("unexpected distance %.0f m", d)
	}
	if Haversine(50, 8, 50, 8) != 0 {
		t.Error("distance to self must be zero")
	}
}

func TestDistanceFrom(t *testing.T) {
	lat, lon := 52.5, 13.4
	if _, ok := DistanceFrom(0, 0, nil, &lon); ok {
		t.Error("expected false without latitude")
	}
	d, ok := DistanceFrom(52.5, 13.4, &lat, &lon)
	if !ok || d != 0 {
		t.Errorf("expected 0, true; got %v, %v", d, ok)
	}
}
