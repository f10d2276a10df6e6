package location

import (
	"context"

	"github.com/piresc/geoquery/internal/pkg/geo"
	"github.com/piresc/geoquery/internal/pkg/geoquery"
	"github.com/piresc/geoquery/internal/pkg/models"
	"github.com/piresc/geoquery/internal/pkg/store"
)

//go:generate mockgen -destination=mocks/mock_usecase.go -package=mocks github.com/piresc/geoquery/services/location LocationUC

// CompletionCallback receives the outcome of an asynchronous write. err is
// nil on success.
type CompletionCallback func(key string, err error)

// LocationCallback receives the outcome of a point read
type LocationCallback interface {
	// OnLocationResult is called with a nil location when nothing is stored.
	OnLocationResult(key string, loc *geo.Location)
	// OnCancelled is called with a *store.DecodeError or *store.RemoteError.
	OnCancelled(err error)
}

// EventSink receives the transitions of a query session
type EventSink func(event models.QueryEvent)

// QuerySession is a live query owned by one client
type QuerySession interface {
	ID() string
	Query() *geoquery.Query
	SetRegion(center geo.Location, radiusKm float64) error
	Close()
}

// LocationUC defines the interface for location business logic
type LocationUC interface {
	// Writes
	SetLocation(ctx context.Context, key string, loc geo.Location) error
	SetLocationWithCallback(key string, loc geo.Location, cb CompletionCallback) error
	SetSpot(ctx context.Context, key, address string, accuracy float64, loc geo.Location) error
	RemoveLocation(ctx context.Context, key string) error
	RemoveLocationWithCallback(key string, cb CompletionCallback) error

	// Reads
	GetLocation(ctx context.Context, key string, cb LocationCallback) error
	GetRecord(ctx context.Context, key string) (*store.Record, error)

	// Queries
	OpenQuery(center geo.Location, radiusKm float64) (*geoquery.Query, error)
	OpenSession(center geo.Location, radiusKm float64, sink EventSink) (QuerySession, error)
	RegionRanges(center geo.Location, radiusKm float64) []geo.RangeQuery

	// Event log
	RecordQueryEvent(ctx context.Context, event models.QueryEvent) error
	ListSessionEvents(ctx context.Context, sessionID string, limit int) ([]*models.QueryEvent, error)
}
