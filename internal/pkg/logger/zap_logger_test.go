package logger

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewZapLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	l, err := NewZapLogger(ZapConfig{Level: "debug", FilePath: path, Service: "location-service"})
	require.NoError(t, err)
	assert.Equal(t, path, l.GetFilePath())

	l.Info("key entered", Key("driver-1"), Range("s00000", "s0000z"))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"key entered"`)
	assert.Contains(t, string(data), `"key":"driver-1"`)
	assert.Contains(t, string(data), `"range":"[s00000, s0000z]"`)
	assert.Contains(t, string(data), `"service":"location-service"`)
}

func TestNewZapLoggerDefaultsToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := NewZapLogger(ZapConfig{Level: "not-a-level", FilePath: path})
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("shown")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestZapEchoMiddleware(t *testing.T) {
	path := filepath.Join(t.TempDir(), "http.log")
	l, err := NewZapLogger(ZapConfig{Level: "info", FilePath: path})
	require.NoError(t, err)

	e := echo.New()
	e.Use(ZapEchoMiddleware(l))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	e.GET("/fail", func(c echo.Context) error { return errors.New("boom") })

	for _, target := range []string{"/ok?x=1", "/fail"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	}
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"path":"/ok?x=1"`)
	assert.Contains(t, string(data), `"status":204`)
	assert.Contains(t, string(data), `"status":500`)
	assert.Contains(t, string(data), "Server error")
}

func TestGlobalLogger(t *testing.T) {
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	nop := NewNopLogger()
	SetGlobalLogger(nop)
	assert.Same(t, nop, GetGlobalLogger())
	Info("discarded", String("k", "v"))
	Sync()
}
