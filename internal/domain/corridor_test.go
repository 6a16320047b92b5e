package domain

import "testing"

func TestNewCorridorEmptyRoute(t *testing.T) {
	c := NewCorridor(nil, 250, 8)
	if len(c.Zones) != 0 {
		t.Fatalf("expected no zones for empty geometry, got %d", len(c.Zones))
	}
	if c.Contains(Coordinates{Lat: 1, Lon: 1}) {
		t.Fatalf("empty corridor must not contain any point")
	}
}

func TestNewCorridorCapsZones(t *testing.T) {
	// build a straight 100-point line heading north
	points := make([]Coordinates, 0, 100)
	for i := 0; i < 100; i++ {
		points = append(points, Coordinates{Lat: 12.90 + float64(i)*0.001, Lon: 77.60})
	}

	c := NewCorridor(points, 250, 8)

	if len(c.Zones) == 0 || len(c.Zones) > 8 {
		t.Fatalf("zones = %d, want 1..8", len(c.Zones))
	}

	// every route point is covered
	for i, p := range points {
		if !c.Contains(p) {
			t.Fatalf("route point %d %+v not inside corridor", i, p)
		}
	}

	// a point roughly 100m east of the line is inside the buffer
	if !c.Contains(Coordinates{Lat: 12.95, Lon: 77.6009}) {
		t.Fatalf("point within buffer should be inside corridor")
	}

	// a point ~5km east is not
	if c.Contains(Coordinates{Lat: 12.95, Lon: 77.65}) {
		t.Fatalf("distant point should be outside corridor")
	}
}

func TestNewCorridorShortRoutes(t *testing.T) {
	single := NewCorridor([]Coordinates{{Lat: 10, Lon: 10}}, 100, 8)
	if len(single.Zones) != 1 {
		t.Fatalf("single point zones = %d, want 1", len(single.Zones))
	}

	pair := NewCorridor([]Coordinates{{Lat: 10, Lon: 10}, {Lat: 10.01, Lon: 10.01}}, 100, 8)
	if len(pair.Zones) != 1 {
		t.Fatalf("two point zones = %d, want 1", len(pair.Zones))
	}
}

func TestParseLatLng(t *testing.T) {
	c, ok := ParseLatLng(" 12.9716, 77.5946 ")
	if !ok {
		t.Fatalf("expected coordinate pair to parse")
	}
	if c.Lat != 12.9716 || c.Lon != 77.5946 {
		t.Fatalf("parsed %+v", c)
	}

	for _, s := range []string{"MG Road, Bengaluru", "91,10", "abc", "1,2,3", ""} {
		if _, ok := ParseLatLng(s); ok {
			t.Errorf("ParseLatLng(%q) should not parse", s)
		}
	}
}

func TestHaversineMeters(t *testing.T) {
	a := Coordinates{Lat: 0, Lon: 0}
	b := Coordinates{Lat: 0, Lon: 1}
	d := HaversineMeters(a, b)
	if d < 111000 || d > 111400 {
		t.Fatalf("one degree of longitude at equator = %.0fm", d)
	}
}
