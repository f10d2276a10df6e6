package geo

import (
	"fmt"
	"math"
)

// Location is an immutable latitude/longitude pair in degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewLocation validates the coordinate and returns it as a Location.
func NewLocation(latitude, longitude float64) (Location, error) {
	loc := Location{Latitude: latitude, Longitude: longitude}
	if !loc.IsValid() {
		return Location{}, fmt.Errorf("%w: invalid coordinate (%v, %v)", ErrInvalidArgument, latitude, longitude)
	}
	return loc, nil
}

// IsValid reports whether latitude is within [-90, 90] and longitude within [-180, 180].
func (l Location) IsValid() bool {
	if math.IsNaN(l.Latitude) || math.IsNaN(l.Longitude) {
		return false
	}
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}

func (l Location) String() string {
	return fmt.Sprintf("(%g, %g)", l.Latitude, l.Longitude)
}
