package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/piresc/geoquery/internal/pkg/geo"
)

// Record field names.
const (
	FieldGeoHash   = "g"
	FieldLocation  = "l"
	FieldAddress   = "a"
	FieldAccuracy  = "p"
	FieldTimestamp = "t"
)

// Record is the value persisted per key.
type Record struct {
	GeoHash   string
	Location  geo.Location
	Address   string
	Accuracy  float64
	Timestamp int64
}

// NewRecord builds the record for loc with a DefaultPrecision geohash.
func NewRecord(loc geo.Location) (Record, error) {
	hash, err := geo.NewGeoHash(loc)
	if err != nil {
		return Record{}, err
	}
	return Record{GeoHash: hash.String(), Location: loc}, nil
}

// Value renders the record as a store value.
func (r Record) Value() map[string]interface{} {
	v := map[string]interface{}{
		FieldGeoHash:  r.GeoHash,
		FieldLocation: []interface{}{r.Location.Latitude, r.Location.Longitude},
	}
	if r.Address != "" {
		v[FieldAddress] = r.Address
	}
	if r.Accuracy != 0 {
		v[FieldAccuracy] = r.Accuracy
	}
	if r.Timestamp != 0 {
		v[FieldTimestamp] = r.Timestamp
	}
	return v
}

// DecodeLocation extracts the "l" field of a snapshot.
func DecodeLocation(s Snapshot) (geo.Location, error) {
	raw, ok := s.Field(FieldLocation)
	if !ok {
		return geo.Location{}, fmt.Errorf("missing %q field", FieldLocation)
	}
	return LocationValue(raw)
}

// DecodeRecord extracts the full record of a snapshot.
func DecodeRecord(s Snapshot) (Record, error) {
	loc, err := DecodeLocation(s)
	if err != nil {
		return Record{}, err
	}
	r := Record{Location: loc}
	if g, ok := s.Field(FieldGeoHash); ok {
		if r.GeoHash, ok = g.(string); !ok {
			return Record{}, fmt.Errorf("field %q is %T, not a string", FieldGeoHash, g)
		}
	}
	if a, ok := s.Field(FieldAddress); ok {
		r.Address, _ = a.(string)
	}
	if p, ok := s.Field(FieldAccuracy); ok {
		r.Accuracy, _ = toFloat(p)
	}
	if t, ok := s.Field(FieldTimestamp); ok {
		ts, _ := toFloat(t)
		r.Timestamp = int64(ts)
	}
	return r, nil
}

// LocationValue parses a [latitude, longitude] pair of numbers.
func LocationValue(raw interface{}) (geo.Location, error) {
	var pair [2]float64
	switch v := raw.(type) {
	case []interface{}:
		if len(v) != 2 {
			return geo.Location{}, fmt.Errorf("location has %d elements", len(v))
		}
		for i, e := range v {
			f, ok := toFloat(e)
			if !ok {
				return geo.Location{}, fmt.Errorf("location element %d is %T", i, e)
			}
			pair[i] = f
		}
	case []float64:
		if len(v) != 2 {
			return geo.Location{}, fmt.Errorf("location has %d elements", len(v))
		}
		copy(pair[:], v)
	default:
		return geo.Location{}, fmt.Errorf("location is %T, not a list", raw)
	}
	return geo.NewLocation(pair[0], pair[1])
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// MarshalValue encodes a store value as JSON.
func MarshalValue(v map[string]interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// UnmarshalValue decodes a JSON store value, keeping numbers precise.
func UnmarshalValue(data []byte) (map[string]interface{}, error) {
	var v map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
