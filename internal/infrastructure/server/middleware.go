package server

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	httpHandlers "github.com/taskmaster/tracker/internal/adapters/http"
	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/ports"
)

// authMiddleware validates the bearer token and loads the active user
func (s *Server) authMiddleware(authService ports.AuthService, userService ports.UserService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return entities.ErrInvalidToken
			}

			userID, err := authService.VerifyToken(tokenString)
			if err != nil {
				s.logger.LogSecurityEvent("invalid_token", "", c.RealIP(), map[string]interface{}{
					"error": err.Error(),
				})
				return err
			}

			user, err := userService.GetActiveUser(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, entities.ErrUnauthorized) || errors.Is(err, entities.ErrForbidden) {
					s.logger.LogSecurityEvent("rejected_user", userID.String(), c.RealIP(), map[string]interface{}{
						"error": err.Error(),
					})
				}
				return err
			}

			httpHandlers.SetCurrentUser(c, user)

			return next(c)
		}
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
