package handler

import (
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/piresc/geoquery/internal/pkg/middleware"
	"github.com/piresc/geoquery/internal/pkg/models"
	natspkg "github.com/piresc/geoquery/internal/pkg/nats"
	"github.com/piresc/geoquery/internal/pkg/websocket"
	"github.com/piresc/geoquery/services/location"
	httpHandler "github.com/piresc/geoquery/services/location/handler/http"
)

// Write limits per client IP
const (
	writeRateLimit  = 120
	writeRatePeriod = time.Minute
)

// HTTPHandler combines all handlers for the location service
type HTTPHandler struct {
	locationHTTP *httpHandler.LocationHandler
	queryWS      *QueryWSHandler
	eventLog     *EventLogHandler
	cfg          *models.Config
}

// NewHTTPHandler creates a new combined handler. natsClient may be nil, in
// which case no event log consumer is started.
func NewHTTPHandler(
	locationUC location.LocationUC,
	natsClient *natspkg.Client,
	wsManager *websocket.Manager,
	cfg *models.Config,
) *HTTPHandler {
	h := &HTTPHandler{
		locationHTTP: httpHandler.NewLocationHandler(locationUC, cfg.Geo.DefaultRadiusKm),
		queryWS:      NewQueryWSHandler(locationUC, wsManager, cfg.Geo.DefaultRadiusKm),
		cfg:          cfg,
	}
	if natsClient != nil {
		h.eventLog = NewEventLogHandler(locationUC, natsClient)
	}
	return h
}

// RegisterRoutes registers all HTTP routes. Writes require the API key and
// are rate limited when redisClient is not nil.
func (h *HTTPHandler) RegisterRoutes(e *echo.Echo, redisClient *redis.Client) {
	v1 := e.Group("/v1")

	writeMiddleware := []echo.MiddlewareFunc{middleware.ValidateAPIKey(h.cfg.Server.APIKey)}
	if redisClient != nil {
		writeMiddleware = append(writeMiddleware, middleware.IPRateLimiter(writeRateLimit, writeRatePeriod, redisClient))
	}

	// Location routes
	v1.PUT("/locations/:key", h.locationHTTP.SetLocation, writeMiddleware...)
	v1.DELETE("/locations/:key", h.locationHTTP.RemoveLocation, writeMiddleware...)
	v1.GET("/locations/:key", h.locationHTTP.GetLocation)

	// Query routes
	v1.GET("/regions/ranges", h.locationHTTP.RegionRanges)
	v1.GET("/sessions/:id/events", h.locationHTTP.SessionEvents, middleware.JWTAuthMiddleware(h.cfg.JWT))

	e.GET("/ws/query", h.queryWS.HandleQuery, middleware.JWTAuthMiddleware(h.cfg.JWT))
}

// InitNATSConsumers initializes all NATS consumers
func (h *HTTPHandler) InitNATSConsumers() error {
	if h.eventLog == nil {
		return nil
	}
	return h.eventLog.InitNATSConsumers()
}

// Stop drains the NATS consumers
func (h *HTTPHandler) Stop() {
	if h.eventLog != nil {
		h.eventLog.Stop()
	}
}
