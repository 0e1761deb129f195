package geo

import (
	"math"
	"testing"
)

func TestDistanceKm(t *testing.T) {
	cases := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{"same point", -6.2, 106.8, -6.2, 106.8, 0, 0.001},
		{"one degree of latitude", 0, 0, 1, 0, 111.19, 0.5},
		{"jakarta to bandung", -6.2088, 106.8456, -6.9175, 107.6191, 116, 5},
	}

	for _, c := range cases {
		got := DistanceKm(c.lat1, c.lon1, c.lat2, c.lon2)
		if math.Abs(got-c.want) > c.tolerance {
			t.Errorf("%s: DistanceKm = %.3f, want %.3f ± %.3f", c.name, got, c.want, c.tolerance)
		}
	}
}

func TestDistanceKmSymmetry(t *testing.T) {
	ab := DistanceKm(-6.2, 106.8, -7.8, 110.4)
	ba := DistanceKm(-7.8, 110.4, -6.2, 106.8)
	if math.Abs(ab-ba) > 1e-9 {
		t.Fatalf("distance should be symmetric: %v vs %v", ab, ba)
	}
}
