package utils

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

// ParseBoundary reads a GeoJSON Polygon geometry describing an irrigation zone.
// Rings that are not closed are closed by repeating the first point.
func ParseBoundary(raw []byte) (orb.Polygon, error) {
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid GeoJSON geometry: %w", err)
	}

	poly, ok := g.Geometry().(orb.Polygon)
	if !ok {
		return nil, fmt.Errorf("boundary must be a Polygon, got %s", g.Geometry().GeoJSONType())
	}
	if len(poly) == 0 {
		return nil, errors.New("boundary polygon has no rings")
	}

	for i, ring := range poly {
		if len(ring) < 3 {
			return nil, fmt.Errorf("ring %d must have at least 3 coordinates", i)
		}
		for j, p := range ring {
			if err := validatePoint(p); err != nil {
				return nil, fmt.Errorf("ring %d coordinate %d: %w", i, j, err)
			}
		}
		if !ring.Closed() {
			poly[i] = append(ring, ring[0])
		}
	}
	return poly, nil
}

// AreaSquareMeters is the geodesic area of the polygon.
func AreaSquareMeters(p orb.Polygon) float64 {
	return math.Abs(geo.Area(p))
}

func validatePoint(p orb.Point) error {
	if p.Lon() < -180 || p.Lon() > 180 {
		return fmt.Errorf("longitude %v out of range", p.Lon())
	}
	if p.Lat() < -90 || p.Lat() > 90 {
		return fmt.Errorf("latitude %v out of range", p.Lat())
	}
	return nil
}
