package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/piresc/geoquery/internal/pkg/geo"
	"github.com/piresc/geoquery/internal/pkg/logger"
	"github.com/piresc/geoquery/internal/pkg/models"
	"github.com/piresc/geoquery/internal/utils"
	"github.com/piresc/geoquery/services/location"
)

// LocationHandler handles HTTP requests for location operations
type LocationHandler struct {
	locationUC      location.LocationUC
	defaultRadiusKm float64
}

// NewLocationHandler creates a new location HTTP handler. defaultRadiusKm
// is used when a region request carries no radius.
func NewLocationHandler(locationUC location.LocationUC, defaultRadiusKm float64) *LocationHandler {
	return &LocationHandler{
		locationUC:      locationUC,
		defaultRadiusKm: defaultRadiusKm,
	}
}

// SetLocation stores the location of a key. A request carrying an address
// or an accuracy is stored as a spot.
func (h *LocationHandler) SetLocation(c echo.Context) error {
	key := c.Param("key")
	if key == "" {
		return utils.BadRequestResponse(c, "key is required")
	}

	var req models.SetLocationRequest
	if err := c.Bind(&req); err != nil {
		logger.Warn("Failed to bind request", logger.Err(err))
		return utils.BadRequestResponse(c, "invalid request body")
	}

	loc := geo.Location{Latitude: req.Latitude, Longitude: req.Longitude}
	ctx := c.Request().Context()

	var err error
	if req.Address != "" || req.Accuracy != nil {
		var accuracy float64
		if req.Accuracy != nil {
			accuracy = *req.Accuracy
		}
		err = h.locationUC.SetSpot(ctx, key, req.Address, accuracy, loc)
	} else {
		err = h.locationUC.SetLocation(ctx, key, loc)
	}
	if err != nil {
		logger.Error("Failed to set location", logger.Key(key), logger.Err(err))
		return utils.ErrorFromError(c, err)
	}

	return utils.SuccessResponse(c, http.StatusOK, "Location stored", map[string]string{"key": key})
}

// RemoveLocation deletes the location of a key
func (h *LocationHandler) RemoveLocation(c echo.Context) error {
	key := c.Param("key")
	if key == "" {
		return utils.BadRequestResponse(c, "key is required")
	}

	if err := h.locationUC.RemoveLocation(c.Request().Context(), key); err != nil {
		logger.Error("Failed to remove location", logger.Key(key), logger.Err(err))
		return utils.ErrorFromError(c, err)
	}

	return utils.SuccessResponse(c, http.StatusOK, "Location removed", map[string]string{"key": key})
}

// GetLocation returns the stored location of a key with its geohash and
// the neighbouring cells
func (h *LocationHandler) GetLocation(c echo.Context) error {
	key := c.Param("key")
	if key == "" {
		return utils.BadRequestResponse(c, "key is required")
	}

	rec, err := h.locationUC.GetRecord(c.Request().Context(), key)
	if err != nil {
		logger.Error("Failed to get location", logger.Key(key), logger.Err(err))
		return utils.ErrorFromError(c, err)
	}
	if rec == nil {
		return utils.NotFoundResponse(c, "location not found")
	}

	cellLat, cellLng := utils.CellCenter(rec.GeoHash)
	return utils.SuccessResponse(c, http.StatusOK, "Location found", models.LocationResponse{
		Key: key,
		Location: models.Location{
			Latitude:  rec.Location.Latitude,
			Longitude: rec.Location.Longitude,
		},
		GeoHash:    rec.GeoHash,
		CellCenter: models.Location{Latitude: cellLat, Longitude: cellLng},
		Neighbours: utils.Neighbours(rec.GeoHash),
		Address:    rec.Address,
		Accuracy:   rec.Accuracy,
	})
}

// RegionRanges returns the geohash range queries covering a region
func (h *LocationHandler) RegionRanges(c echo.Context) error {
	center, radius, err := ParseRegion(c, h.defaultRadiusKm)
	if err != nil {
		return utils.BadRequestResponse(c, err.Error())
	}

	ranges := h.locationUC.RegionRanges(center, radius)
	resp := models.RegionRangesResponse{
		Center:   models.Location{Latitude: center.Latitude, Longitude: center.Longitude},
		RadiusKm: geo.CapRadius(radius),
		Ranges:   make([]models.RangeQuery, 0, len(ranges)),
	}
	for _, rq := range ranges {
		resp.Ranges = append(resp.Ranges, models.RangeQuery{Start: rq.Start, End: rq.End})
	}

	return utils.SuccessResponse(c, http.StatusOK, "Region ranges", resp)
}

// SessionEvents lists the transitions logged for a query session
func (h *LocationHandler) SessionEvents(c echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return utils.BadRequestResponse(c, "session id is required")
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return utils.BadRequestResponse(c, "invalid limit")
		}
		limit = n
	}

	events, err := h.locationUC.ListSessionEvents(c.Request().Context(), sessionID, limit)
	if err != nil {
		logger.Error("Failed to list session events",
			logger.String("session_id", sessionID),
			logger.Err(err))
		return utils.ErrorFromError(c, err)
	}

	return utils.SuccessResponse(c, http.StatusOK, "Session events", events)
}

// ParseRegion reads the lat, lng and optional radius query parameters. A
// missing radius is returned as defaultRadiusKm; an explicit 0 is kept.
func ParseRegion(c echo.Context, defaultRadiusKm float64) (geo.Location, float64, error) {
	latStr := c.QueryParam("lat")
	lngStr := c.QueryParam("lng")
	if latStr == "" || lngStr == "" {
		return geo.Location{}, 0, errors.New("lat and lng are required")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return geo.Location{}, 0, errors.New("invalid latitude")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return geo.Location{}, 0, errors.New("invalid longitude")
	}
	center, err := geo.NewLocation(lat, lng)
	if err != nil {
		return geo.Location{}, 0, errors.New("invalid location")
	}

	radius := defaultRadiusKm
	if radiusStr := c.QueryParam("radius"); radiusStr != "" {
		radius, err = strconv.ParseFloat(radiusStr, 64)
		if err != nil || radius < 0 {
			return geo.Location{}, 0, errors.New("invalid radius")
		}
	}
	return center, radius, nil
}
