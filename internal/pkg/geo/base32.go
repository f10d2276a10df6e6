package geo

import (
	"fmt"
	"strings"
)

// Base32Alphabet is the geohash alphabet. It omits a, i, l and o.
const Base32Alphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

var base32Lookup = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(Base32Alphabet); i++ {
		t[Base32Alphabet[i]] = int8(i)
	}
	return t
}()

// ValueToBase32Char returns the alphabet character for a 5-bit value.
func ValueToBase32Char(v int) (byte, error) {
	if v < 0 || v >= len(Base32Alphabet) {
		return 0, fmt.Errorf("%w: base32 value %d out of range", ErrInvalidArgument, v)
	}
	return Base32Alphabet[v], nil
}

// Base32CharToValue returns the 5-bit value of an alphabet character.
func Base32CharToValue(c byte) (int, error) {
	v := base32Lookup[c]
	if v < 0 {
		return 0, fmt.Errorf("%w: %q is not a base32 character", ErrInvalidArgument, c)
	}
	return int(v), nil
}

// IsValidGeoHash reports whether s is a non-empty string over the alphabet.
func IsValidGeoHash(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if base32Lookup[s[i]] < 0 {
			return false
		}
	}
	return true
}

// ValidateGeoHash returns an ErrInvalidArgument error when s is not a geohash.
func ValidateGeoHash(s string) error {
	if !IsValidGeoHash(s) {
		return fmt.Errorf("%w: invalid geohash %q", ErrInvalidArgument, s)
	}
	return nil
}

// successor returns the next string of the same length in alphabet order and
// false when s is already the last one ("zzz").
func successor(s string) (string, bool) {
	b := []byte(s)
	for i := len(b) - 1; i >= 0; i-- {
		v := base32Lookup[b[i]]
		if int(v) < len(Base32Alphabet)-1 {
			b[i] = Base32Alphabet[v+1]
			return string(b), true
		}
		b[i] = Base32Alphabet[0]
	}
	return strings.Repeat("z", len(s)), false
}
