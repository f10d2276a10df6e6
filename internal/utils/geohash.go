package utils

import (
	"github.com/mmcloughlin/geohash"
)

// Neighbours returns the eight geohashes surrounding hash, clockwise from north.
func Neighbours(hash string) []string {
	if hash == "" {
		return nil
	}
	return geohash.Neighbors(hash)
}

// CellCenter returns the center point of the cell hash denotes.
func CellCenter(hash string) (latitude, longitude float64) {
	return geohash.DecodeCenter(hash)
}
