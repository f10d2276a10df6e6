package handler

import (
	"encoding/json"
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/piresc/geoquery/internal/pkg/constants"
	"github.com/piresc/geoquery/internal/pkg/geo"
	"github.com/piresc/geoquery/internal/pkg/logger"
	"github.com/piresc/geoquery/internal/pkg/metrics"
	"github.com/piresc/geoquery/internal/pkg/middleware"
	"github.com/piresc/geoquery/internal/pkg/models"
	"github.com/piresc/geoquery/internal/pkg/websocket"
	"github.com/piresc/geoquery/internal/utils"
	"github.com/piresc/geoquery/services/location"
	httpHandler "github.com/piresc/geoquery/services/location/handler/http"
)

// QueryWSHandler streams the transitions of a live query over a websocket
type QueryWSHandler struct {
	locationUC      location.LocationUC
	manager         *websocket.Manager
	defaultRadiusKm float64
}

// NewQueryWSHandler creates a new websocket query handler. defaultRadiusKm
// is used when the connection or a set_region message carries no radius.
func NewQueryWSHandler(locationUC location.LocationUC, manager *websocket.Manager, defaultRadiusKm float64) *QueryWSHandler {
	return &QueryWSHandler{
		locationUC:      locationUC,
		manager:         manager,
		defaultRadiusKm: defaultRadiusKm,
	}
}

// HandleQuery opens a query session for the region in the lat, lng and
// radius parameters and forwards its events until the client disconnects
func (h *QueryWSHandler) HandleQuery(c echo.Context) error {
	center, radius, err := httpHandler.ParseRegion(c, h.defaultRadiusKm)
	if err != nil {
		return utils.BadRequestResponse(c, err.Error())
	}
	clientID := middleware.ClientID(c)

	return h.manager.HandleConnection(c, clientID, func(client *websocket.Client) error {
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		session, err := h.locationUC.OpenSession(center, radius, func(event models.QueryEvent) {
			if err := client.SendMessage(event.Event, event); err != nil {
				logger.Debug("Failed to send query event",
					logger.String("client_id", clientID),
					logger.String("event", event.Event),
					logger.Err(err))
			}
		})
		if err != nil {
			logger.Error("Failed to open query session",
				logger.String("client_id", clientID),
				logger.Err(err))
			_ = client.SendErrorMessage(constants.ErrorInternalError, "failed to open query")
			return nil
		}
		defer session.Close()

		logger.Info("WebSocket query connected",
			logger.String("client_id", clientID),
			logger.String("session_id", session.ID()))

		h.readLoop(client, session)

		logger.Info("WebSocket query disconnected",
			logger.String("client_id", clientID),
			logger.String("session_id", session.ID()))
		return nil
	})
}

func (h *QueryWSHandler) readLoop(client *websocket.Client, session location.QuerySession) {
	for {
		msg, err := client.ReadMessage()
		if err != nil {
			if errors.Is(err, websocket.ErrInvalidMessage) {
				_ = client.SendErrorMessage(constants.ErrorInvalidFormat, "message must be a JSON event")
				continue
			}
			return
		}

		switch msg.Event {
		case constants.EventPing:
			_ = client.SendMessage(constants.EventPong, map[string]string{"session_id": session.ID()})
		case constants.EventSetRegion:
			h.handleSetRegion(client, session, msg.Data)
		default:
			_ = client.SendErrorMessage(constants.ErrorInvalidFormat, "unknown event "+msg.Event)
		}
	}
}

func (h *QueryWSHandler) handleSetRegion(client *websocket.Client, session location.QuerySession, data json.RawMessage) {
	var req models.SetRegionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		_ = client.SendErrorMessage(constants.ErrorInvalidFormat, "invalid set_region payload")
		return
	}
	radius := h.defaultRadiusKm
	if req.Radius != nil {
		radius = *req.Radius
	}
	if radius < 0 {
		_ = client.SendErrorMessage(constants.ErrorValidationFailed, "radius must not be negative")
		return
	}

	center := geo.Location{Latitude: req.Latitude, Longitude: req.Longitude}
	if err := session.SetRegion(center, radius); err != nil {
		if errors.Is(err, geo.ErrInvalidArgument) {
			_ = client.SendErrorMessage(constants.ErrorInvalidLocation, err.Error())
			return
		}
		logger.Error("Failed to move query",
			logger.String("session_id", session.ID()),
			logger.Err(err))
		_ = client.SendErrorMessage(constants.ErrorInternalError, "failed to move query")
	}
}
