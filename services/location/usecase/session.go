package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/piresc/geoquery/internal/pkg/constants"
	"github.com/piresc/geoquery/internal/pkg/geo"
	"github.com/piresc/geoquery/internal/pkg/geoquery"
	"github.com/piresc/geoquery/internal/pkg/logger"
	"github.com/piresc/geoquery/internal/pkg/metrics"
	"github.com/piresc/geoquery/internal/pkg/models"
	"github.com/piresc/geoquery/internal/pkg/store"
	"github.com/piresc/geoquery/services/location"
)

// eventTimeout bounds publishing or persisting one session event
const eventTimeout = 5 * time.Second

// querySession owns a query and its event goroutine. Every transition is
// forwarded to the sink and to the event log.
type querySession struct {
	id     string
	uc     *LocationUC
	query  *geoquery.Query
	raiser *geoquery.SerialRaiser
	sink   location.EventSink
	once   sync.Once
}

// OpenSession opens a query with its own event goroutine and starts it
func (uc *LocationUC) OpenSession(center geo.Location, radiusKm float64, sink location.EventSink) (location.QuerySession, error) {
	raiser := geoquery.NewSerialRaiser()
	q, err := uc.newQuery(raiser, center, radiusKm)
	if err != nil {
		raiser.Close()
		return nil, err
	}

	s := &querySession{
		id:     uuid.NewString(),
		uc:     uc,
		query:  q,
		raiser: raiser,
		sink:   sink,
	}
	if err := q.AddListener(s); err != nil {
		raiser.Close()
		return nil, err
	}

	metrics.ActiveQuerySessions.Inc()
	metrics.RangesPerRegion.Observe(float64(len(q.RangeQueries())))
	logger.Info("Query session opened",
		logger.String("session_id", s.id),
		logger.String("center", center.String()),
		logger.Float64("radius_km", q.RadiusKm()))

	return s, nil
}

func (s *querySession) ID() string { return s.id }

func (s *querySession) Query() *geoquery.Query { return s.query }

func (s *querySession) SetRegion(center geo.Location, radiusKm float64) error {
	if err := s.query.SetRegion(center, radiusKm); err != nil {
		return err
	}
	metrics.RangesPerRegion.Observe(float64(len(s.query.RangeQueries())))
	return nil
}

func (s *querySession) Close() {
	s.once.Do(func() {
		s.query.RemoveAllListeners()
		s.raiser.Close()
		metrics.ActiveQuerySessions.Dec()
		logger.Info("Query session closed", logger.String("session_id", s.id))
	})
}

func (s *querySession) OnDataEntered(snap store.Snapshot, loc geo.Location) {
	s.emit(constants.EventKeyEntered, snap.Key, &loc, nil)
}

func (s *querySession) OnDataExited(snap store.Snapshot) {
	s.emit(constants.EventKeyExited, snap.Key, nil, nil)
}

func (s *querySession) OnDataMoved(snap store.Snapshot, loc geo.Location) {
	s.emit(constants.EventKeyMoved, snap.Key, &loc, nil)
}

func (s *querySession) OnDataChanged(snap store.Snapshot, loc geo.Location) {
	s.emit(constants.EventKeyChanged, snap.Key, &loc, nil)
}

func (s *querySession) OnQueryReady() {
	s.emit(constants.EventQueryReady, "", nil, nil)
}

func (s *querySession) OnQueryError(err error) {
	s.emit(constants.EventQueryError, "", nil, err)
}

func (s *querySession) emit(kind, key string, loc *geo.Location, err error) {
	event := models.QueryEvent{
		SessionID: s.id,
		Key:       key,
		Event:     kind,
		CreatedAt: s.uc.now(),
	}
	if loc != nil {
		lat, lng := loc.Latitude, loc.Longitude
		event.Latitude = &lat
		event.Longitude = &lng
	}
	if err != nil {
		event.Error = err.Error()
	}

	metrics.QueryEventsTotal.WithLabelValues(kind).Inc()
	s.uc.forward(event)
	if s.sink != nil {
		s.sink(event)
	}
}

// forward publishes a session event, or logs it directly when no gateway
// is configured. Membership events only; ready and errors are not logged.
func (uc *LocationUC) forward(event models.QueryEvent) {
	if event.Key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	if uc.gw != nil {
		if err := uc.gw.PublishQueryEvent(ctx, event); err != nil {
			logger.Warn("Failed to publish query event",
				logger.String("session_id", event.SessionID),
				logger.String("event", event.Event),
				logger.Err(err))
		}
		return
	}
	if err := uc.RecordQueryEvent(ctx, event); err != nil {
		logger.Warn("Failed to record query event",
			logger.String("session_id", event.SessionID),
			logger.String("event", event.Event),
			logger.Err(err))
	}
}
