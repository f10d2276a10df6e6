package models

import "time"

// Location is a coordinate as carried over HTTP and NATS
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SetLocationRequest is the body of PUT /v1/locations/:key
type SetLocationRequest struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Address   string   `json:"address,omitempty"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// LocationResponse describes the stored location of a key
type LocationResponse struct {
	Key        string   `json:"key"`
	Location   Location `json:"location"`
	GeoHash    string   `json:"geohash"`
	CellCenter Location `json:"cell_center"`
	Neighbours []string `json:"neighbours,omitempty"`
	Address    string   `json:"address,omitempty"`
	Accuracy   float64  `json:"accuracy,omitempty"`
}

// RangeQuery is a geohash range as returned by the debug endpoint
type RangeQuery struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// RegionRangesResponse lists the range queries covering a region
type RegionRangesResponse struct {
	Center   Location     `json:"center"`
	RadiusKm float64      `json:"radius_km"`
	Ranges   []RangeQuery `json:"ranges"`
}

// QueryEvent is one membership transition observed by a query session
type QueryEvent struct {
	ID        int64     `json:"id,omitempty" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	Key       string    `json:"key" db:"key"`
	Event     string    `json:"event" db:"event"`
	Latitude  *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64  `json:"longitude,omitempty" db:"longitude"`
	Error     string    `json:"error,omitempty" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
