package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	"github.com/piresc/geoquery/internal/utils"
)

const (
	APIKeyHeader = "X-API-Key"
)

// ValidateAPIKey guards write endpoints with a shared key. An empty key
// disables the check.
func ValidateAPIKey(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if key == "" {
			return next
		}
		return func(c echo.Context) error {
			apiKey := c.Request().Header.Get(APIKeyHeader)
			if apiKey == "" {
				return utils.UnauthorizedResponse(c, "API key is required")
			}
			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) != 1 {
				return utils.UnauthorizedResponse(c, "Invalid API key")
			}
			return next(c)
		}
	}
}
