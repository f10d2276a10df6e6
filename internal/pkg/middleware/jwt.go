package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	jwtpkg "github.com/piresc/geoquery/internal/pkg/jwt"
	"github.com/piresc/geoquery/internal/pkg/models"
	"github.com/piresc/geoquery/internal/pkg/requestcontext"
	"github.com/piresc/geoquery/internal/utils"
)

// ContextKeyClientID is where JWTAuthMiddleware stores the authenticated client
const ContextKeyClientID = "client_id"

// JWTAuthMiddleware creates a middleware for JWT authentication. Browsers
// cannot set headers on websocket upgrades, so the token may also come in
// the "token" query parameter.
func JWTAuthMiddleware(config models.JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := c.QueryParam("token")
			if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) != 2 || parts[0] != "Bearer" {
					return utils.UnauthorizedResponse(c, "Invalid authorization format")
				}
				tokenString = parts[1]
			}
			if tokenString == "" {
				return utils.UnauthorizedResponse(c, "Authorization header is required")
			}

			claims, err := jwtpkg.ValidateToken(tokenString, config.Secret)
			if err != nil {
				return utils.UnauthorizedResponse(c, "Invalid token")
			}

			c.Set(ContextKeyClientID, claims.ClientID)
			req := c.Request()
			c.SetRequest(req.WithContext(requestcontext.WithClientID(req.Context(), claims.ClientID)))
			return next(c)
		}
	}
}

// ClientID returns the client authenticated by JWTAuthMiddleware
func ClientID(c echo.Context) string {
	id, _ := c.Get(ContextKeyClientID).(string)
	return id
}
