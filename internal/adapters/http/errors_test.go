package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/taskmaster/tracker/internal/domain/entities"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:    "validation",
			err:     entities.NewValidationError("title", "is required"),
			status:  http.StatusBadRequest,
			code:    CodeValidation,
			message: "title: is required",
		},
		{
			name:    "wrapped conflict",
			err:     fmt.Errorf("create category: %w", entities.ErrCategoryNameTaken),
			status:  http.StatusConflict,
			code:    CodeConflict,
			message: "category with this name already exists",
		},
		{
			name:    "not found",
			err:     entities.ErrTaskNotFound,
			status:  http.StatusNotFound,
			code:    CodeNotFound,
			message: "task not found",
		},
		{
			name:    "bare kind",
			err:     fmt.Errorf("lookup: %w", entities.ErrNotFound),
			status:  http.StatusNotFound,
			code:    CodeNotFound,
			message: "not found",
		},
		{
			name:    "unauthorized",
			err:     entities.ErrInvalidCredentials,
			status:  http.StatusUnauthorized,
			code:    CodeUnauthorized,
			message: "incorrect email or password",
		},
		{
			name:    "forbidden",
			err:     entities.ErrInactiveUser,
			status:  http.StatusForbidden,
			code:    CodeForbidden,
			message: "inactive user",
		},
		{
			name:    "internal detail hidden",
			err:     errors.New("pq: connection refused"),
			status:  http.StatusInternalServerError,
			code:    CodeInternal,
			message: "internal server error",
		},
		{
			name:    "echo not found",
			err:     echo.ErrNotFound,
			status:  http.StatusNotFound,
			code:    CodeNotFound,
			message: "Not Found",
		},
		{
			name:    "echo rate limit",
			err:     echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded"),
			status:  http.StatusTooManyRequests,
			code:    CodeRateLimited,
			message: "rate limit exceeded",
		},
		{
			name:    "echo body too large",
			err:     echo.ErrStatusRequestEntityTooLarge,
			status:  http.StatusRequestEntityTooLarge,
			code:    CodeValidation,
			message: "Request Entity Too Large",
		},
		{
			name:    "echo 5xx message hidden",
			err:     echo.NewHTTPError(http.StatusServiceUnavailable, "db down at 10.0.0.3"),
			status:  http.StatusServiceUnavailable,
			code:    CodeInternal,
			message: "Service Unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := MapError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.message, resp.Error.Message)
		})
	}
}

func TestMapErrorDetails(t *testing.T) {
	err := entities.ValidateStruct(struct {
		Title string `json:"title" validate:"required"`
		Color string `json:"color" validate:"color"`
	}{Color: "red"})

	status, resp := MapError(fmt.Errorf("create: %w", err))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, map[string]string{
		"title": "is required",
		"color": "must be a hex color like #3B82F6",
	}, resp.Error.Details)
}

func TestBindError(t *testing.T) {
	err := bindError(echo.NewBindingError("page", []string{"x"}, "failed to bind field value to int", nil))
	var verr *entities.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "page", verr.Field)

	err = bindError(echo.NewHTTPError(http.StatusBadRequest, "Syntax error: offset=3"))
	assert.ErrorIs(t, err, entities.ErrValidation)
	assert.Contains(t, err.Error(), "invalid request body")

	assert.ErrorIs(t, bindError(errors.New("boom")), entities.ErrValidation)
}
