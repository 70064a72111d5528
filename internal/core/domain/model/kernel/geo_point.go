package kernel

import (
	"errors"
	"fmt"
	"math"

	"lastmile/internal/pkg/errs"
	"lastmile/internal/pkg/guard"
)

const (
	LatitudeMin  = -90.0
	LatitudeMax  = 90.0
	LongitudeMin = -180.0
	LongitudeMax = 180.0

	// Service area bounds (Brazil) applied when strict checking is enabled.
	ServiceAreaLatitudeMin  = -34.0
	ServiceAreaLatitudeMax  = 6.0
	ServiceAreaLongitudeMin = -74.5
	ServiceAreaLongitudeMax = -32.0

	earthRadiusKm = 6371.0
)

// ErrGeoPointIsNotConstructed is returned when a zero GeoPoint is used.
var ErrGeoPointIsNotConstructed = errs.NewValueIsRequiredError("geo point must be created via NewGeoPoint")

// GeoPoint is an immutable WGS84 coordinate pair used for package destinations,
// delivery proof capture positions and driver location fixes.
//
// Example:
//
//	p, err := kernel.NewGeoPoint(-23.5505, -46.6333)
//	if err != nil {
//	    // latitude or longitude out of range
//	}
//	fmt.Println(p) // GeoPoint(-23.550500,-46.633300)
type GeoPoint struct { //nolint:recvcheck //using for validation
	lat   float64
	lon   float64
	guard guard.ConstructorGuard
}

// NewGeoPoint validates latitude in [-90, 90] and longitude in [-180, 180].
//
// Parameters:
//   - lat: latitude in decimal degrees
//   - lon: longitude in decimal degrees
//
// Returns:
//   - GeoPoint: a valid point
//   - error: joined out-of-range errors for each offending coordinate
func NewGeoPoint(lat, lon float64) (GeoPoint, error) {
	p := GeoPoint{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(p.setLat(lat), p.setLon(lon)); err != nil {
		return GeoPoint{}, err
	}

	return p, nil
}

// NewServiceAreaGeoPoint is NewGeoPoint plus the service area check.
func NewServiceAreaGeoPoint(lat, lon float64) (GeoPoint, error) {
	p, err := NewGeoPoint(lat, lon)
	if err != nil {
		return GeoPoint{}, err
	}
	if !p.WithinServiceArea() {
		return GeoPoint{}, errs.NewValueIsInvalidErrorWithCause("coordinates",
			fmt.Errorf("%s is outside the service area", p))
	}
	return p, nil
}

// ParseGeoPoint builds an optional point from a nullable pair.
// Both nil yields nil; exactly one nil is a validation error.
func ParseGeoPoint(lat, lon *float64, strict bool) (*GeoPoint, error) {
	if lat == nil && lon == nil {
		return nil, nil //nolint:nilnil // absent point is a valid outcome
	}
	if lat == nil || lon == nil {
		return nil, errs.NewValueIsRequiredError("latitude and longitude must be provided together")
	}
	build := NewGeoPoint
	if strict {
		build = NewServiceAreaGeoPoint
	}
	p, err := build(*lat, *lon)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (p GeoPoint) Validate() error {
	return p.guard.Validate(ErrGeoPointIsNotConstructed)
}

func (p GeoPoint) Lat() float64 {
	return p.lat
}

func (p GeoPoint) Lon() float64 {
	return p.lon
}

func (p GeoPoint) WithinServiceArea() bool {
	return p.lat >= ServiceAreaLatitudeMin && p.lat <= ServiceAreaLatitudeMax &&
		p.lon >= ServiceAreaLongitudeMin && p.lon <= ServiceAreaLongitudeMax
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("GeoPoint(%f,%f)", p.lat, p.lon)
}

func (p GeoPoint) IsEqual(other GeoPoint) (bool, error) {
	if err := errors.Join(p.Validate(), other.Validate()); err != nil {
		return false, err
	}
	return p.lat == other.lat && p.lon == other.lon, nil
}

// DistanceKm returns the great-circle (haversine) distance between two points.
func (p GeoPoint) DistanceKm(other GeoPoint) (float64, error) {
	if err := errors.Join(p.Validate(), other.Validate()); err != nil {
		return 0, err
	}

	lat1, lat2 := radians(p.lat), radians(other.lat)
	dLat := lat2 - lat1
	dLon := radians(other.lon - p.lon)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a)), nil
}

func (p *GeoPoint) setLat(lat float64) error {
	if math.IsNaN(lat) || lat < LatitudeMin || lat > LatitudeMax {
		return errs.NewValueIsOutOfRangeError("latitude", lat, LatitudeMin, LatitudeMax)
	}
	p.lat = lat
	return nil
}

func (p *GeoPoint) setLon(lon float64) error {
	if math.IsNaN(lon) || lon < LongitudeMin || lon > LongitudeMax {
		return errs.NewValueIsOutOfRangeError("longitude", lon, LongitudeMin, LongitudeMax)
	}
	p.lon = lon
	return nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
