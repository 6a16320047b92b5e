package domain

import "math"

const metersPerDegreeLat = 111320.0

// Axis-aligned latitude/longitude box.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

func (b BoundingBox) Contains(c Coordinates) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat && c.Lon >= b.MinLon && c.Lon <= b.MaxLon
}

// Corridor is the area along a route within which incidents are relevant.
// It is sampled as a sequence of zones, one per contiguous route segment.
type Corridor struct {
	Zones        []BoundingBox
	BufferMeters float64
}

// NewCorridor splits points into at most maxZones contiguous segments and
// returns one buffered bounding box per segment. Adjacent segments share
// their boundary point so the boxes leave no gap along the path.
func NewCorridor(points []Coordinates, bufferMeters float64, maxZones int) Corridor {
	c := Corridor{BufferMeters: bufferMeters}
	if len(points) == 0 {
		return c
	}
	if maxZones < 1 {
		maxZones = 1
	}
	if bufferMeters < 0 {
		bufferMeters = 0
	}

	segments := len(points) - 1
	if segments < 1 {
		segments = 1
	}
	zones := maxZones
	if zones > segments {
		zones = segments
	}

	// Ceiling division keeps the number of zones at or below maxZones.
	step := (segments + zones - 1) / zones

	c.Zones = make([]BoundingBox, 0, zones)
	for start := 0; start < len(points); start += step {
		end := start + step
		if end >= len(points) {
			end = len(points) - 1
		}
		c.Zones = append(c.Zones, boxAround(points[start:end+1], bufferMeters))
		if end == len(points)-1 {
			break
		}
	}

	return c
}

// Contains reports whether c falls inside any zone of the corridor.
func (c Corridor) Contains(p Coordinates) bool {
	for _, z := range c.Zones {
		if z.Contains(p) {
			return true
		}
	}
	return false
}

func boxAround(points []Coordinates, bufferMeters float64) BoundingBox {
	b := BoundingBox{
		MinLat: points[0].Lat,
		MaxLat: points[0].Lat,
		MinLon: points[0].Lon,
		MaxLon: points[0].Lon,
	}
	for _, p := range points[1:] {
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
	}

	midLat := (b.MinLat + b.MaxLat) / 2
	dLat := bufferMeters / metersPerDegreeLat
	// Longitude degrees shrink towards the poles; floor the factor so the
	// box stays finite near them.
	cos := math.Max(math.Cos(midLat*math.Pi/180), 0.01)
	dLon := bufferMeters / (metersPerDegreeLat * cos)

	b.MinLat = math.Max(b.MinLat-dLat, -90)
	b.MaxLat = math.Min(b.MaxLat+dLat, 90)
	b.MinLon = math.Max(b.MinLon-dLon, -180)
	b.MaxLon = math.Min(b.MaxLon+dLon, 180)
	return b
}
