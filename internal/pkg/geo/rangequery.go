package geo

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// maxRegionCells bounds how many cells the decomposer samples before it
// falls back to a coarser character precision.
const maxRegionCells = 256

// boxPadding widens the bounding box to absorb the difference between the
// ellipsoid degree helpers and the spherical Distance.
const boxPadding = 1.01

// RangeQuery is an inclusive lexicographic range of geohashes. Start and End
// always have the same length.
type RangeQuery struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// NewRangeQuery validates both bounds and returns the range.
func NewRangeQuery(start, end string) (RangeQuery, error) {
	if err := ValidateGeoHash(start); err != nil {
		return RangeQuery{}, err
	}
	if err := ValidateGeoHash(end); err != nil {
		return RangeQuery{}, err
	}
	if len(start) != len(end) {
		return RangeQuery{}, fmt.Errorf("%w: range bounds %q and %q differ in length", ErrInvalidArgument, start, end)
	}
	if start > end {
		return RangeQuery{}, fmt.Errorf("%w: range start %q is after end %q", ErrInvalidArgument, start, end)
	}
	return RangeQuery{Start: start, End: end}, nil
}

// Len is the character length of both bounds.
func (q RangeQuery) Len() int { return len(q.Start) }

// Contains reports whether hash falls in the range when both are compared on
// their shared prefix length.
func (q RangeQuery) Contains(hash string) bool {
	n := min(len(hash), len(q.Start))
	h := hash[:n]
	return q.Start[:n] <= h && h <= q.End[:n]
}

// ContainsGeoHash is Contains for a parsed geohash.
func (q RangeQuery) ContainsGeoHash(g GeoHash) bool {
	return q.Contains(g.hash)
}

func (q RangeQuery) String() string {
	return "[" + q.Start + ", " + q.End + "]"
}

// QueriesForRegion returns the range queries whose union covers every
// geohash within radiusMeters of center. The radius is capped first.
func QueriesForRegion(center Location, radiusMeters float64) RangeSet {
	radius := CapRadius(radiusMeters/1000) * 1000
	bits := max(1, bitsForBoundingBox(center, radius))
	precision := min(bits/BitsPerChar, DefaultPrecision-1)

	box := regionBox(center, radius)
	for precision > 0 && box.cellCount(precision) > maxRegionCells {
		precision--
	}

	cells := box.cells(precision)
	ranges := make([]RangeQuery, 0, len(cells))
	for _, prefix := range cells {
		ranges = append(ranges, RangeQuery{
			Start: prefix + Base32Alphabet[:1],
			End:   prefix + Base32Alphabet[len(Base32Alphabet)-1:],
		})
	}
	return NewRangeSet(mergeRanges(ranges)...)
}

type boundingBox struct {
	south, north float64
	west, east   float64 // east may exceed 180 and west may fall below -180
}

func regionBox(center Location, radius float64) boundingBox {
	latDelta := MetersToLatitudeDegrees(radius) * boxPadding
	box := boundingBox{
		south: math.Max(-90, center.Latitude-latDelta),
		north: math.Min(90, center.Latitude+latDelta),
	}

	lonDelta := math.Max(
		MetersToLongitudeDegrees(radius, box.north),
		MetersToLongitudeDegrees(radius, box.south),
	)
	lonDelta = math.Max(lonDelta, MetersToLongitudeDegrees(radius, center.Latitude)) * boxPadding
	if lonDelta >= 180 {
		box.west, box.east = -180, 180
	} else {
		box.west, box.east = center.Longitude-lonDelta, center.Longitude+lonDelta
	}
	return box
}

// cellSize is the width and height in degrees of a geohash cell with the
// given number of characters.
func cellSize(precision int) (width, height float64) {
	bits := precision * BitsPerChar
	lonBits := (bits + 1) / 2
	latBits := bits / 2
	return 360 / math.Exp2(float64(lonBits)), 180 / math.Exp2(float64(latBits))
}

func (b boundingBox) cellCount(precision int) float64 {
	w, h := cellSize(precision)
	cols := math.Ceil((b.east-b.west)/w) + 1
	rows := math.Ceil((b.north-b.south)/h) + 1
	return cols * rows
}

// cells samples the box every cell width and height, plus its far edges,
// and returns the distinct geohash prefixes hit.
func (b boundingBox) cells(precision int) []string {
	if precision == 0 {
		return []string{""}
	}
	w, h := cellSize(precision)
	seen := make(map[string]struct{})
	var out []string
	for lat := b.south; ; lat += h {
		lat = math.Min(lat, b.north)
		for lon := b.west; ; lon += w {
			lon = math.Min(lon, b.east)
			hash := encode(lat, WrapLongitude(lon), precision)
			if _, ok := seen[hash]; !ok {
				seen[hash] = struct{}{}
				out = append(out, hash)
			}
			if lon >= b.east {
				break
			}
		}
		if lat >= b.north {
			break
		}
	}
	return out
}

// mergeRanges sorts equal-length ranges and combines every pair that
// overlaps or touches.
func mergeRanges(ranges []RangeQuery) []RangeQuery {
	if len(ranges) == 0 {
		return nil
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })

	merged := []RangeQuery{ranges[0]}
	for _, next := range ranges[1:] {
		cur := &merged[len(merged)-1]
		if touches(*cur, next) {
			if next.End > cur.End {
				cur.End = next.End
			}
			continue
		}
		merged = append(merged, next)
	}
	return merged
}

func touches(cur, next RangeQuery) bool {
	if next.Start <= cur.End {
		return true
	}
	succ, ok := successor(cur.End)
	return !ok || next.Start <= succ
}

// RangeSet is a set of range queries with value equality.
type RangeSet map[RangeQuery]struct{}

// NewRangeSet builds a set from the given queries.
func NewRangeSet(queries ...RangeQuery) RangeSet {
	s := make(RangeSet, len(queries))
	for _, q := range queries {
		s[q] = struct{}{}
	}
	return s
}

func (s RangeSet) Add(q RangeQuery) { s[q] = struct{}{} }

func (s RangeSet) Remove(q RangeQuery) { delete(s, q) }

func (s RangeSet) Has(q RangeQuery) bool {
	_, ok := s[q]
	return ok
}

func (s RangeSet) Len() int { return len(s) }

// ContainsGeoHash reports whether any range in the set contains hash.
func (s RangeSet) ContainsGeoHash(hash string) bool {
	for q := range s {
		if q.Contains(hash) {
			return true
		}
	}
	return false
}

// Difference returns the queries of s that are not in other, sorted.
func (s RangeSet) Difference(other RangeSet) []RangeQuery {
	var out []RangeQuery
	for q := range s {
		if !other.Has(q) {
			out = append(out, q)
		}
	}
	sortRanges(out)
	return out
}

// Equal reports whether both sets hold the same queries.
func (s RangeSet) Equal(other RangeSet) bool {
	if len(s) != len(other) {
		return false
	}
	for q := range s {
		if !other.Has(q) {
			return false
		}
	}
	return true
}

// Slice returns the queries ordered by start then end.
func (s RangeSet) Slice() []RangeQuery {
	out := make([]RangeQuery, 0, len(s))
	for q := range s {
		out = append(out, q)
	}
	sortRanges(out)
	return out
}

func (s RangeSet) String() string {
	parts := make([]string, 0, len(s))
	for _, q := range s.Slice() {
		parts = append(parts, q.String())
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func sortRanges(qs []RangeQuery) {
	sort.Slice(qs, func(i, j int) bool {
		if qs[i].Start != qs[j].Start {
			return qs[i].Start < qs[j].Start
		}
		return qs[i].End < qs[j].End
	})
}
