package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/piresc/geoquery/internal/pkg/geo"
	"github.com/piresc/geoquery/internal/pkg/geoquery"
	"github.com/piresc/geoquery/internal/pkg/logger"
	"github.com/piresc/geoquery/internal/pkg/metrics"
	"github.com/piresc/geoquery/internal/pkg/models"
	"github.com/piresc/geoquery/internal/pkg/requestcontext"
	"github.com/piresc/geoquery/internal/pkg/store"
	"github.com/piresc/geoquery/services/location"
)

// DefaultWriteTimeout bounds writes issued by the callback variants
const DefaultWriteTimeout = 10 * time.Second

// forbiddenKeyChars cannot appear in keys: they are path or query syntax
// in at least one backing store.
const forbiddenKeyChars = ".#$[]/"

// LocationUC implements location.LocationUC on a store.Store
type LocationUC struct {
	store  store.Store
	gw     location.LocationGW
	repo   location.EventRepo
	cfg    models.GeoConfig
	raiser *geoquery.SerialRaiser
	now    func() time.Time
}

// NewLocationUC creates a new location use case. gw and repo may be nil,
// in which case session events are neither published nor persisted.
func NewLocationUC(st store.Store, gw location.LocationGW, repo location.EventRepo, cfg models.GeoConfig) *LocationUC {
	return &LocationUC{
		store:  st,
		gw:     gw,
		repo:   repo,
		cfg:    cfg,
		raiser: geoquery.NewSerialRaiser(),
		now:    time.Now,
	}
}

// Close stops the event raiser shared by queries from OpenQuery
func (uc *LocationUC) Close() {
	uc.raiser.Close()
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key must not be empty", geo.ErrInvalidArgument)
	}
	if strings.ContainsAny(key, forbiddenKeyChars) {
		return fmt.Errorf("%w: key %q contains one of %q", geo.ErrInvalidArgument, key, forbiddenKeyChars)
	}
	return nil
}

// SetLocation stores loc under key together with its geohash
func (uc *LocationUC) SetLocation(ctx context.Context, key string, loc geo.Location) error {
	if err := validateKey(key); err != nil {
		return err
	}
	rec, err := store.NewRecord(loc)
	if err != nil {
		return err
	}
	return uc.write(ctx, "set", key, rec)
}

// SetLocationWithCallback validates its arguments, then writes in the
// background and reports the outcome to cb
func (uc *LocationUC) SetLocationWithCallback(key string, loc geo.Location, cb location.CompletionCallback) error {
	if err := validateKey(key); err != nil {
		return err
	}
	rec, err := store.NewRecord(loc)
	if err != nil {
		return err
	}
	uc.async(key, cb, func(ctx context.Context) error {
		return uc.write(ctx, "set", key, rec)
	})
	return nil
}

// SetSpot stores a location with a street address, an accuracy in meters
// and a server timestamp
func (uc *LocationUC) SetSpot(ctx context.Context, key, address string, accuracy float64, loc geo.Location) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if accuracy < 0 {
		return fmt.Errorf("%w: accuracy must not be negative", geo.ErrInvalidArgument)
	}
	rec, err := store.NewRecord(loc)
	if err != nil {
		return err
	}
	rec.Address = address
	rec.Accuracy = accuracy
	rec.Timestamp = uc.now().UnixMilli()
	return uc.write(ctx, "set_spot", key, rec)
}

func (uc *LocationUC) write(ctx context.Context, op, key string, rec store.Record) error {
	err := uc.store.Ref(key).Set(ctx, rec.Value(), rec.GeoHash)
	metrics.LocationWritesTotal.WithLabelValues(op, metrics.Status(err)).Inc()
	if err != nil {
		logger.Error("Failed to store location", requestcontext.Fields(ctx, logger.Key(key), logger.Err(err))...)
		return store.NewRemoteError(op, key, err)
	}
	return nil
}

// RemoveLocation deletes the location stored under key
func (uc *LocationUC) RemoveLocation(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return uc.remove(ctx, key)
}

// RemoveLocationWithCallback deletes in the background and reports the
// outcome to cb
func (uc *LocationUC) RemoveLocationWithCallback(key string, cb location.CompletionCallback) error {
	if err := validateKey(key); err != nil {
		return err
	}
	uc.async(key, cb, func(ctx context.Context) error {
		return uc.remove(ctx, key)
	})
	return nil
}

func (uc *LocationUC) remove(ctx context.Context, key string) error {
	err := uc.store.Ref(key).Delete(ctx)
	metrics.LocationWritesTotal.WithLabelValues("remove", metrics.Status(err)).Inc()
	if err != nil {
		logger.Error("Failed to remove location", requestcontext.Fields(ctx, logger.Key(key), logger.Err(err))...)
		return store.NewRemoteError("remove", key, err)
	}
	return nil
}

func (uc *LocationUC) async(key string, cb location.CompletionCallback, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultWriteTimeout)
		defer cancel()
		err := fn(ctx)
		if cb != nil {
			cb(key, err)
		}
	}()
}

// GetRecord reads the record stored under key. It returns nil without an
// error when nothing is stored.
func (uc *LocationUC) GetRecord(ctx context.Context, key string) (*store.Record, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	snap, err := uc.store.Ref(key).Get(ctx)
	if err != nil {
		metrics.LocationReadsTotal.WithLabelValues("error").Inc()
		var decodeErr *store.DecodeError
		if errors.As(err, &decodeErr) {
			return nil, err
		}
		return nil, store.NewRemoteError("get", key, err)
	}
	if !snap.Exists() {
		metrics.LocationReadsTotal.WithLabelValues("absent").Inc()
		return nil, nil
	}

	rec, err := store.DecodeRecord(snap)
	if err != nil {
		metrics.LocationReadsTotal.WithLabelValues("error").Inc()
		logger.Warn("Stored value is not a location", requestcontext.Fields(ctx, logger.Key(key), logger.Err(err))...)
		return nil, &store.DecodeError{Key: key, Value: snap.Value, Err: err}
	}
	metrics.LocationReadsTotal.WithLabelValues("ok").Inc()
	return &rec, nil
}

// GetLocation reads the location of key in the background and reports it
// to cb
func (uc *LocationUC) GetLocation(ctx context.Context, key string, cb location.LocationCallback) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if cb == nil {
		return fmt.Errorf("%w: callback is nil", geo.ErrInvalidArgument)
	}
	go func() {
		rec, err := uc.GetRecord(ctx, key)
		switch {
		case err != nil:
			cb.OnCancelled(err)
		case rec == nil:
			cb.OnLocationResult(key, nil)
		default:
			loc := rec.Location
			cb.OnLocationResult(key, &loc)
		}
	}()
	return nil
}

// OpenQuery creates a query around center. Its events are raised on the
// use case's shared event goroutine.
func (uc *LocationUC) OpenQuery(center geo.Location, radiusKm float64) (*geoquery.Query, error) {
	return uc.newQuery(uc.raiser, center, radiusKm)
}

func (uc *LocationUC) newQuery(raiser geoquery.Raiser, center geo.Location, radiusKm float64) (*geoquery.Query, error) {
	q, err := geoquery.New(uc.store, raiser, center, radiusKm)
	if err != nil {
		return nil, err
	}
	if uc.cfg.ReadTimeout > 0 {
		q.SetReadTimeout(time.Duration(uc.cfg.ReadTimeout) * time.Second)
	}
	return q, nil
}

// RegionRanges returns the geohash ranges covering the region
func (uc *LocationUC) RegionRanges(center geo.Location, radiusKm float64) []geo.RangeQuery {
	radius := geo.CapRadius(radiusKm) * geoquery.KilometerToMeter
	return geo.QueriesForRegion(center, radius).Slice()
}

// RecordQueryEvent appends a session transition to the event log
func (uc *LocationUC) RecordQueryEvent(ctx context.Context, event models.QueryEvent) error {
	if uc.repo == nil {
		return nil
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = uc.now()
	}
	return uc.repo.StoreEvent(ctx, &event)
}

// ListSessionEvents returns the logged transitions of a session, oldest first
func (uc *LocationUC) ListSessionEvents(ctx context.Context, sessionID string, limit int) ([]*models.QueryEvent, error) {
	if uc.repo == nil {
		return []*models.QueryEvent{}, nil
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return uc.repo.ListSessionEvents(ctx, sessionID, limit)
}
