package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/cheekoai/cheeko-server/domain/entities"
	"github.com/cheekoai/cheeko-server/internal/auth"
)

const sessionContextKey = "session"

// UserAuth returns middleware that validates a user Bearer token and stores
// the resulting session on the request context.
func UserAuth(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "missing_token",
					Message: "JWT token is required in Authorization header",
				})
			}

			claims, err := auth.ValidateToken(token)
			if err != nil {
				logger.Warn("Request rejected: invalid token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "invalid_token",
					Message: "Invalid or expired JWT token",
				})
			}

			if claims.Role != "user" || claims.UserID == "" {
				return c.JSON(http.StatusForbidden, ErrorResponse{
					Error:   "invalid_role",
					Message: "Only user tokens are allowed for this endpoint",
				})
			}

			c.Set(sessionContextKey, entities.Session{
				UserID: claims.UserID,
				Email:  claims.Email,
			})
			return next(c)
		}
	}
}

// currentSession returns the session stored by UserAuth, or the zero session
// when the middleware did not run.
func currentSession(c echo.Context) entities.Session {
	if session, ok := c.Get(sessionContextKey).(entities.Session); ok {
		return session
	}
	return entities.Session{}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
