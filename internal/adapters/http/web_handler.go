package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/tracker/web"
)

// WebHandler serves the server-rendered page shells
type WebHandler struct {
	appName string
	version string
}

// NewWebHandler creates a new web handler
func NewWebHandler(appName, version string) *WebHandler {
	return &WebHandler{
		appName: appName,
		version: version,
	}
}

var pageTitles = map[string]string{
	"index":      "Home",
	"login":      "Log in",
	"register":   "Register",
	"tasks":      "Tasks",
	"categories": "Categories",
	"tags":       "Tags",
	"profile":    "Profile",
}

// Page returns a handler rendering the named page
func (h *WebHandler) Page(name string) echo.HandlerFunc {
	data := web.PageData{
		AppName: h.appName,
		Version: h.version,
		Title:   pageTitles[name],
		Page:    name,
	}
	return func(c echo.Context) error {
		return c.Render(http.StatusOK, name, data)
	}
}
