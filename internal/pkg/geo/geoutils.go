package geo

import "math"

const (
	MetersPerDegreeLatitude      = 110574.0
	EarthMeridionalCircumference = 40007860.0
	EarthEqRadius                = 6378137.0
	EarthPolarRadius             = 6357852.3
	// EarthE2 is the square of the WGS84 eccentricity.
	EarthE2 = 0.00669447819799
	Epsilon = 1e-12

	// MaxSupportedRadiusKm is the largest radius a region may have. Past it
	// the bounding box spans the whole globe.
	MaxSupportedRadiusKm = 8587.0
)

const earthMeanRadius = (EarthEqRadius + EarthPolarRadius) / 2

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Location) float64 {
	latDelta := toRadians(b.Latitude - a.Latitude)
	lonDelta := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(latDelta/2)*math.Sin(latDelta/2) +
		math.Cos(toRadians(a.Latitude))*math.Cos(toRadians(b.Latitude))*
			math.Sin(lonDelta/2)*math.Sin(lonDelta/2)
	return earthMeanRadius * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// CapRadius clamps a radius in kilometers to [0, MaxSupportedRadiusKm].
func CapRadius(km float64) float64 {
	switch {
	case math.IsNaN(km) || km < 0:
		return 0
	case km > MaxSupportedRadiusKm:
		return MaxSupportedRadiusKm
	}
	return km
}

// MetersToLatitudeDegrees converts a north/south distance into degrees.
func MetersToLatitudeDegrees(meters float64) float64 {
	return meters / MetersPerDegreeLatitude
}

// MetersToLongitudeDegrees converts an east/west distance at the given
// latitude into degrees of longitude, saturating at 360.
func MetersToLongitudeDegrees(meters, latitude float64) float64 {
	rad := toRadians(latitude)
	num := math.Cos(rad) * EarthEqRadius * math.Pi / 180
	denom := 1 / math.Sqrt(1-EarthE2*math.Sin(rad)*math.Sin(rad))
	deltaDeg := num * denom
	if deltaDeg < Epsilon {
		if meters > 0 {
			return 360
		}
		return 0
	}
	return math.Min(360, meters/deltaDeg)
}

// WrapLongitude maps any longitude into [-180, 180].
func WrapLongitude(lng float64) float64 {
	if lng >= -180 && lng <= 180 {
		return lng
	}
	adjusted := lng + 180
	if adjusted > 0 {
		return math.Mod(adjusted, 360) - 180
	}
	return 180 - math.Mod(-adjusted, 360)
}

func bitsLatitude(resolution float64) float64 {
	return math.Min(math.Log2(EarthMeridionalCircumference/2/resolution), MaxPrecisionBits)
}

func bitsLongitude(resolution, latitude float64) float64 {
	degrees := MetersToLongitudeDegrees(resolution, latitude)
	if degrees <= 0 {
		return MaxPrecisionBits
	}
	return math.Min(math.Max(1, math.Log2(360/degrees)), MaxPrecisionBits)
}

// bitsForBoundingBox returns how many geohash bits a cell may have while
// staying at least as large as a box of size meters around loc.
func bitsForBoundingBox(loc Location, size float64) int {
	latDelta := MetersToLatitudeDegrees(size)
	north := math.Min(90, loc.Latitude+latDelta)
	south := math.Max(-90, loc.Latitude-latDelta)

	bitsLat := int(math.Floor(bitsLatitude(size))) * 2
	bitsLonNorth := int(math.Floor(bitsLongitude(size, north)))*2 - 1
	bitsLonSouth := int(math.Floor(bitsLongitude(size, south)))*2 - 1
	return min(bitsLat, bitsLonNorth, bitsLonSouth)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

