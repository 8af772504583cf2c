package optimize

import (
	"context"
	"math"
	"time"
)

// Position is a device location fix.
type Position struct {
	// Latitude in decimal degrees.
	Latitude float64
	// Longitude in decimal degrees.
	Longitude float64
	// ObservedAt is when the fix was taken.
	ObservedAt time.Time
}

// PositionProvider is the injected geolocation capability.
// Implementations must never block beyond the timeout; a cached fix no older
// than maxCacheAge may be returned instead of a fresh one.
type PositionProvider interface {
	CurrentPosition(ctx context.Context, timeout, maxCacheAge time.Duration) (*Position, error)
}

// Geofence is a circular region around a point.
type Geofence struct {
	// Latitude of the center in decimal degrees.
	Latitude float64
	// Longitude of the center in decimal degrees.
	Longitude float64
	// RadiusMeters is the region radius.
	RadiusMeters float64
}

// earthRadiusMeters is the mean Earth radius used by the haversine distance.
const earthRadiusMeters = 6_371_000

// Contains reports whether the position lies within the geofence.
func (g *Geofence) Contains(p *Position) bool {
	if p == nil {
		return false
	}

	return haversineMeters(g.Latitude, g.Longitude, p.Latitude, p.Longitude) <= g.RadiusMeters
}

// haversineMeters computes the great-circle distance between two coordinates.
func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	var (
		rad  = math.Pi / 180
		dLat = (lat2 - lat1) * rad
		dLon = (lon2 - lon1) * rad
	)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}
