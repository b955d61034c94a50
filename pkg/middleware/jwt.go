package middleware

import (
	"errors"
	"net/http"
	"strings"

	"CampusEvents/internal/auth"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// JWTMiddleware rejects requests without a valid bearer token and stores
// the verified claims under auth.ContextKey.
func JWTMiddleware(tokens *auth.TokenManager, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := bearerToken(c)
			if tokenString == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing Token"})
			}

			claims, err := tokens.Parse(tokenString)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Token expired"})
				}
				logger.Debug("Rejected token", zap.String("path", c.Path()), zap.Error(err))
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid Token"})
			}
			c.Set(auth.ContextKey, claims)
			return next(c)
		}
	}
}

// OptionalJWTMiddleware attaches claims when a valid token is present and
// lets anonymous requests through.
func OptionalJWTMiddleware(tokens *auth.TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if tokenString := bearerToken(c); tokenString != "" {
				if claims, err := tokens.Parse(tokenString); err == nil {
					c.Set(auth.ContextKey, claims)
				}
			}
			return next(c)
		}
	}
}
