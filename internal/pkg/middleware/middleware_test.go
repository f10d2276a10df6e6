package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	jwtpkg "github.com/piresc/geoquery/internal/pkg/jwt"
	"github.com/piresc/geoquery/internal/pkg/logger"
	"github.com/piresc/geoquery/internal/pkg/models"
	"github.com/piresc/geoquery/internal/pkg/requestcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestRequestIDMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(RequestIDMiddleware())
	e.GET("/", func(c echo.Context) error {
		assert.Equal(t, c.Get("request_id"), requestcontext.RequestID(c.Request().Context()))
		return c.String(http.StatusOK, c.Get("request_id").(string))
	})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get(echo.HeaderXRequestID)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-123")
	rec = serve(e, req)
	assert.Equal(t, "req-123", rec.Header().Get(echo.HeaderXRequestID))
}

func TestPanicRecoveryMiddleware(t *testing.T) {
	var logBuffer bytes.Buffer
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(&logBuffer),
		zapcore.DebugLevel,
	)
	zapLogger := &logger.ZapLogger{Logger: zap.New(core)}

	e := echo.New()
	e.Use(PanicRecoveryMiddleware(zapLogger))
	e.GET("/panic", func(c echo.Context) error {
		panic("listener exploded")
	})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
	assert.Contains(t, logBuffer.String(), "listener exploded")
	assert.Contains(t, logBuffer.String(), "stack_trace")

	assert.Panics(t, func() { PanicRecoveryMiddleware(nil) })
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		header     string
		wantStatus int
	}{
		{name: "disabled", configured: "", header: "", wantStatus: http.StatusOK},
		{name: "missing", configured: "secret", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong", configured: "secret", header: "guess", wantStatus: http.StatusUnauthorized},
		{name: "valid", configured: "secret", header: "secret", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.PUT("/v1/locations/:key", okHandler, ValidateAPIKey(tt.configured))

			req := httptest.NewRequest(http.MethodPut, "/v1/locations/a", nil)
			if tt.header != "" {
				req.Header.Set(APIKeyHeader, tt.header)
			}
			assert.Equal(t, tt.wantStatus, serve(e, req).Code)
		})
	}
}

func TestJWTAuthMiddleware(t *testing.T) {
	cfg := models.JWTConfig{Secret: "jwt-secret", Expiration: 5, Issuer: "test"}
	token, _, err := jwtpkg.GenerateToken("client-7", cfg)
	require.NoError(t, err)

	e := echo.New()
	e.GET("/ws/query", func(c echo.Context) error {
		assert.Equal(t, ClientID(c), requestcontext.ClientID(c.Request().Context()))
		return c.String(http.StatusOK, ClientID(c))
	}, JWTAuthMiddleware(cfg))

	tests := []struct {
		name       string
		target     string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "bearer header", target: "/ws/query", header: "Bearer " + token, wantStatus: http.StatusOK, wantBody: "client-7"},
		{name: "query parameter", target: "/ws/query?token=" + token, wantStatus: http.StatusOK, wantBody: "client-7"},
		{name: "missing", target: "/ws/query", wantStatus: http.StatusUnauthorized},
		{name: "bad scheme", target: "/ws/query", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "bad token", target: "/ws/query", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := serve(e, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestIPRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	e := echo.New()
	e.PUT("/v1/locations/:key", okHandler, IPRateLimiter(2, time.Minute, client))

	for i := 0; i < 2; i++ {
		rec := serve(e, httptest.NewRequest(http.MethodPut, "/v1/locations/a", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec := serve(e, httptest.NewRequest(http.MethodPut, "/v1/locations/b", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	mr.FastForward(time.Minute)
	rec = serve(e, httptest.NewRequest(http.MethodPut, "/v1/locations/a", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	mr.Close()
	rec = serve(e, httptest.NewRequest(http.MethodPut, "/v1/locations/a", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
