package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/piresc/geoquery/internal/pkg/geo"
	"github.com/piresc/geoquery/internal/pkg/models"
	"github.com/piresc/geoquery/internal/pkg/store"
	"github.com/piresc/geoquery/internal/utils"
	"github.com/piresc/geoquery/services/location/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

const testDefaultRadiusKm = 2.5

func TestNewLocationHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockUC := mocks.NewMockLocationUC(ctrl)
	handler := NewLocationHandler(mockUC, testDefaultRadiusKm)

	assert.NotNil(t, handler)
	assert.Equal(t, mockUC, handler.locationUC)
}

func TestLocationHandler_SetLocation(t *testing.T) {
	tests := []struct {
		name           string
		key            string
		body           string
		mockSetup      func(*mocks.MockLocationUC)
		expectedStatus int
	}{
		{
			name: "Plain location",
			key:  "driver-1",
			body: `{"latitude":-6.175392,"longitude":106.827153}`,
			mockSetup: func(mockUC *mocks.MockLocationUC) {
				mockUC.EXPECT().
					SetLocation(gomock.Any(), "driver-1", geo.Location{Latitude: -6.175392, Longitude: 106.827153}).
					Return(nil).
					Times(1)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Spot with address and accuracy",
			key:  "spot-1",
			body: `{"latitude":-6.2,"longitude":106.8,"address":"Jl. Sudirman","accuracy":15}`,
			mockSetup: func(mockUC *mocks.MockLocationUC) {
				mockUC.EXPECT().
					SetSpot(gomock.Any(), "spot-1", "Jl. Sudirman", 15.0, geo.Location{Latitude: -6.2, Longitude: 106.8}).
					Return(nil).
					Times(1)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Missing key",
			key:            "",
			body:           `{"latitude":1,"longitude":2}`,
			mockSetup:      func(mockUC *mocks.MockLocationUC) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid request body",
			key:            "driver-1",
			body:           `invalid json`,
			mockSetup:      func(mockUC *mocks.MockLocationUC) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Invalid coordinate",
			key:  "driver-1",
			body: `{"latitude":95,"longitude":2}`,
			mockSetup: func(mockUC *mocks.MockLocationUC) {
				mockUC.EXPECT().
					SetLocation(gomock.Any(), "driver-1", gomock.Any()).
					Return(geo.ErrInvalidArgument)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Store failure",
			key:  "driver-1",
			body: `{"latitude":1,"longitude":2}`,
			mockSetup: func(mockUC *mocks.MockLocationUC) {
				mockUC.EXPECT().
					SetLocation(gomock.Any(), "driver-1", gomock.Any()).
					Return(store.NewRemoteError("set", "driver-1", errors.New("connection refused")))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockUC := mocks.NewMockLocationUC(ctrl)
			tt.mockSetup(mockUC)
			handler := NewLocationHandler(mockUC, testDefaultRadiusKm)

			c, rec := newContext(http.MethodPut, "/v1/locations/"+tt.key, tt.body)
			c.SetParamNames("key")
			c.SetParamValues(tt.key)

			err := handler.SetLocation(c)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestLocationHandler_SetLocationHidesBackendErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockUC := mocks.NewMockLocationUC(ctrl)
	mockUC.EXPECT().SetLocation(gomock.Any(), "k", gomock.Any()).
		Return(store.NewRemoteError("set", "k", errors.New("dial tcp 10.0.0.1:6379")))

	c, rec := newContext(http.MethodPut, "/v1/locations/k", `{"latitude":1,"longitude":2}`)
	c.SetParamNames("key")
	c.SetParamValues("k")

	require.NoError(t, NewLocationHandler(mockUC, testDefaultRadiusKm).SetLocation(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.1")
}

func TestLocationHandler_RemoveLocation(t *testing.T) {
	tests := []struct {
		name           string
		key            string
		mockSetup      func(*mocks.MockLocationUC)
		expectedStatus int
	}{
		{
			name: "Success",
			key:  "driver-1",
			mockSetup: func(mockUC *mocks.MockLocationUC) {
				mockUC.EXPECT().RemoveLocation(gomock.Any(), "driver-1").Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Missing key",
			mockSetup:      func(mockUC *mocks.MockLocationUC) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Use case error",
			key:  "driver-1",
			mockSetup: func(mockUC *mocks.MockLocationUC) {
				mockUC.EXPECT().RemoveLocation(gomock.Any(), "driver-1").Return(errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockUC := mocks.NewMockLocationUC(ctrl)
			tt.mockSetup(mockUC)

			c, rec := newContext(http.MethodDelete, "/v1/locations/"+tt.key, "")
			c.SetParamNames("key")
			c.SetParamValues(tt.key)

			assert.NoError(t, NewLocationHandler(mockUC, testDefaultRadiusKm).RemoveLocation(c))
			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestLocationHandler_GetLocation(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockUC := mocks.NewMockLocationUC(ctrl)
		mockUC.EXPECT().GetRecord(gomock.Any(), "driver-1").Return(&store.Record{
			GeoHash:  "qqguwgbvc3",
			Location: geo.Location{Latitude: -6.175392, Longitude: 106.827153},
			Address:  "Monas",
			Accuracy: 4.5,
		}, nil)

		c, rec := newContext(http.MethodGet, "/v1/locations/driver-1", "")
		c.SetParamNames("key")
		c.SetParamValues("driver-1")

		require.NoError(t, NewLocationHandler(mockUC, testDefaultRadiusKm).GetLocation(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Success bool                    `json:"success"`
			Data    models.LocationResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "driver-1", resp.Data.Key)
		assert.Equal(t, "qqguwgbvc3", resp.Data.GeoHash)
		assert.Equal(t, -6.175392, resp.Data.Location.Latitude)
		assert.Equal(t, utils.Neighbours("qqguwgbvc3"), resp.Data.Neighbours)
		assert.Len(t, resp.Data.Neighbours, 8)
		cellLat, cellLng := utils.CellCenter("qqguwgbvc3")
		assert.Equal(t, cellLat, resp.Data.CellCenter.Latitude)
		assert.Equal(t, cellLng, resp.Data.CellCenter.Longitude)
		assert.Equal(t, "Monas", resp.Data.Address)
		assert.Equal(t, 4.5, resp.Data.Accuracy)
	})

	t.Run("Not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockUC := mocks.NewMockLocationUC(ctrl)
		mockUC.EXPECT().GetRecord(gomock.Any(), "ghost").Return(nil, nil)

		c, rec := newContext(http.MethodGet, "/v1/locations/ghost", "")
		c.SetParamNames("key")
		c.SetParamValues("ghost")

		require.NoError(t, NewLocationHandler(mockUC, testDefaultRadiusKm).GetLocation(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Undecodable value", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockUC := mocks.NewMockLocationUC(ctrl)
		mockUC.EXPECT().GetRecord(gomock.Any(), "broken").
			Return(nil, &store.DecodeError{Key: "broken", Value: "x"})

		c, rec := newContext(http.MethodGet, "/v1/locations/broken", "")
		c.SetParamNames("key")
		c.SetParamValues("broken")

		require.NoError(t, NewLocationHandler(mockUC, testDefaultRadiusKm).GetLocation(c))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestLocationHandler_RegionRanges(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		mockSetup      func(*mocks.MockLocationUC)
		expectedStatus int
		expectedRanges int
	}{
		{
			name:  "Success",
			query: "lat=-6.175392&lng=106.827153&radius=1",
			mockSetup: func(mockUC *mocks.MockLocationUC) {
				mockUC.EXPECT().
					RegionRanges(geo.Location{Latitude: -6.175392, Longitude: 106.827153}, 1.0).
					Return([]geo.RangeQuery{{Start: "qqgu0", End: "qqguz"}, {Start: "qqgv0", End: "qqgvz"}})
			},
			expectedStatus: http.StatusOK,
			expectedRanges: 2,
		},
		{
			name:  "Default radius",
			query: "lat=1&lng=2",
			mockSetup: func(mockUC *mocks.MockLocationUC) {
				mockUC.EXPECT().RegionRanges(geo.Location{Latitude: 1, Longitude: 2}, testDefaultRadiusKm).
					Return([]geo.RangeQuery{{Start: "s00", End: "s0z"}})
			},
			expectedStatus: http.StatusOK,
			expectedRanges: 1,
		},
		{
			name:  "Zero radius is kept",
			query: "lat=1&lng=2&radius=0",
			mockSetup: func(mockUC *mocks.MockLocationUC) {
				mockUC.EXPECT().RegionRanges(geo.Location{Latitude: 1, Longitude: 2}, 0.0).
					Return([]geo.RangeQuery{{Start: "s00000000", End: "s0000000z"}})
			},
			expectedStatus: http.StatusOK,
			expectedRanges: 1,
		},
		{
			name:           "Missing parameters",
			query:          "lat=1",
			mockSetup:      func(mockUC *mocks.MockLocationUC) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid latitude",
			query:          "lat=abc&lng=2",
			mockSetup:      func(mockUC *mocks.MockLocationUC) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Out of range",
			query:          "lat=91&lng=2",
			mockSetup:      func(mockUC *mocks.MockLocationUC) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Negative radius",
			query:          "lat=1&lng=2&radius=-3",
			mockSetup:      func(mockUC *mocks.MockLocationUC) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockUC := mocks.NewMockLocationUC(ctrl)
			tt.mockSetup(mockUC)

			c, rec := newContext(http.MethodGet, "/v1/regions/ranges?"+tt.query, "")
			require.NoError(t, NewLocationHandler(mockUC, testDefaultRadiusKm).RegionRanges(c))
			assert.Equal(t, tt.expectedStatus, rec.Code)

			if tt.expectedStatus == http.StatusOK {
				var resp struct {
					Data models.RegionRangesResponse `json:"data"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Len(t, resp.Data.Ranges, tt.expectedRanges)
			}
		})
	}
}

func TestLocationHandler_SessionEvents(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		mockSetup      func(*mocks.MockLocationUC)
		expectedStatus int
	}{
		{
			name:   "Default limit",
			target: "/v1/sessions/s1/events",
			mockSetup: func(mockUC *mocks.MockLocationUC) {
				mockUC.EXPECT().ListSessionEvents(gomock.Any(), "s1", 0).
					Return([]*models.QueryEvent{{ID: 1, SessionID: "s1", Key: "a", Event: "key_entered"}}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "Explicit limit",
			target: "/v1/sessions/s1/events?limit=5",
			mockSetup: func(mockUC *mocks.MockLocationUC) {
				mockUC.EXPECT().ListSessionEvents(gomock.Any(), "s1", 5).Return([]*models.QueryEvent{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Invalid limit",
			target:         "/v1/sessions/s1/events?limit=x",
			mockSetup:      func(mockUC *mocks.MockLocationUC) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "Repository error",
			target: "/v1/sessions/s1/events",
			mockSetup: func(mockUC *mocks.MockLocationUC) {
				mockUC.EXPECT().ListSessionEvents(gomock.Any(), "s1", 0).Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockUC := mocks.NewMockLocationUC(ctrl)
			tt.mockSetup(mockUC)

			c, rec := newContext(http.MethodGet, tt.target, "")
			c.SetParamNames("id")
			c.SetParamValues("s1")

			require.NoError(t, NewLocationHandler(mockUC, testDefaultRadiusKm).SessionEvents(c))
			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}
