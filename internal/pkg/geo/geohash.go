package geo

import (
	"fmt"
	"strings"
)

const (
	// DefaultPrecision is the number of characters stored per location.
	DefaultPrecision = 10
	// MaxPrecision is the longest geohash the encoder produces.
	MaxPrecision = 22
	// BitsPerChar is the number of bits carried by one base32 character.
	BitsPerChar = 5
	// MaxPrecisionBits is the number of bits in a MaxPrecision geohash.
	MaxPrecisionBits = MaxPrecision * BitsPerChar
)

// GeoHash is a validated base32 geohash string.
type GeoHash struct {
	hash string
}

// Encode computes the geohash of loc with the given number of characters.
func Encode(loc Location, precision int) (GeoHash, error) {
	if precision < 1 || precision > MaxPrecision {
		return GeoHash{}, fmt.Errorf("%w: precision %d must be in [1, %d]", ErrInvalidArgument, precision, MaxPrecision)
	}
	if !loc.IsValid() {
		return GeoHash{}, fmt.Errorf("%w: invalid coordinate %s", ErrInvalidArgument, loc)
	}
	return GeoHash{hash: encode(loc.Latitude, loc.Longitude, precision)}, nil
}

// NewGeoHash encodes loc at DefaultPrecision.
func NewGeoHash(loc Location) (GeoHash, error) {
	return Encode(loc, DefaultPrecision)
}

// Parse validates a caller-supplied geohash string.
func Parse(s string) (GeoHash, error) {
	if err := ValidateGeoHash(s); err != nil {
		return GeoHash{}, err
	}
	return GeoHash{hash: s}, nil
}

func (g GeoHash) String() string { return g.hash }

// Precision is the number of characters in the hash.
func (g GeoHash) Precision() int { return len(g.hash) }

// encode expects a valid coordinate and precision. Bit i of the hash bisects
// longitude when i is even and latitude when i is odd.
func encode(lat, lon float64, precision int) string {
	latRange := [2]float64{-90, 90}
	lonRange := [2]float64{-180, 180}

	var sb strings.Builder
	sb.Grow(precision)
	for i := 0; i < precision; i++ {
		value := 0
		for j := 0; j < BitsPerChar; j++ {
			even := (i*BitsPerChar+j)%2 == 0
			val, rng := lat, &latRange
			if even {
				val, rng = lon, &lonRange
			}
			mid := (rng[0] + rng[1]) / 2
			value <<= 1
			if val > mid {
				value |= 1
				rng[0] = mid
			} else {
				rng[1] = mid
			}
		}
		sb.WriteByte(Base32Alphabet[value])
	}
	return sb.String()
}
