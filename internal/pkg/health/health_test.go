package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/piresc/geoquery/internal/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEcho(service *Service) *echo.Echo {
	e := echo.New()
	RegisterEndpoints(e, "location-service", "1.2.3", service)
	return e
}

func TestPing(t *testing.T) {
	e := setupEcho(NewService())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var info BuildInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "location-service", info.ServiceName)
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.False(t, info.ServerTime.IsZero())
}

func TestLiveAndBasic(t *testing.T) {
	e := setupEcho(NewService())

	for _, path := range []string{"/health", "/health/live"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "location-service")
	}
}

func TestDetailedHealth(t *testing.T) {
	tests := []struct {
		name       string
		checkers   map[string]Checker
		wantStatus int
		wantHealth string
	}{
		{
			name:       "no dependencies",
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
		},
		{
			name: "all healthy",
			checkers: map[string]Checker{
				"redis": CheckerFunc(func(context.Context) error { return nil }),
				"nats":  NewNATSChecker(nil),
			},
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
		},
		{
			name: "one unhealthy",
			checkers: map[string]Checker{
				"redis":    CheckerFunc(func(context.Context) error { return nil }),
				"postgres": CheckerFunc(func(context.Context) error { return errors.New("connection refused") }),
			},
			wantStatus: http.StatusServiceUnavailable,
			wantHealth: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewService()
			for name, checker := range tt.checkers {
				service.AddChecker(name, checker)
			}
			e := setupEcho(service)

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)

			var response Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			assert.Equal(t, tt.wantHealth, response.Status)
			assert.Equal(t, "1.2.3", response.Version)
			assert.Len(t, response.Dependencies, len(tt.checkers))

			rec = httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRedisChecker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := &database.RedisClient{Client: goredis.NewClient(&goredis.Options{Addr: mr.Addr()})}
	defer client.Close()

	checker := NewRedisChecker(client)
	assert.NoError(t, checker.CheckHealth(context.Background()))

	mr.Close()
	assert.Error(t, checker.CheckHealth(context.Background()))

	assert.NoError(t, NewRedisChecker(nil).CheckHealth(context.Background()))
	assert.NoError(t, NewPostgresChecker(nil).CheckHealth(context.Background()))
}
