package http

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskmaster/tracker/internal/domain/entities"
)

const contextKeyUser = "user"

// SetCurrentUser stores the authenticated user on the request context
func SetCurrentUser(c echo.Context, user *entities.User) {
	c.Set(contextKeyUser, user)
}

// CurrentUser returns the authenticated user, or nil outside the auth middleware
func CurrentUser(c echo.Context) *entities.User {
	user, _ := c.Get(contextKeyUser).(*entities.User)
	return user
}

func getUserIDFromContext(c echo.Context) uuid.UUID {
	if user := CurrentUser(c); user != nil {
		return user.ID
	}
	return uuid.Nil
}
