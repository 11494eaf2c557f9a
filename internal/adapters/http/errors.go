package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/tracker/internal/domain/entities"
)

// Error codes
const (
	CodeValidation   = "validation_error"
	CodeConflict     = "conflict"
	CodeNotFound     = "not_found"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeInternal     = "internal_error"
	CodeRateLimited  = "rate_limited"
)

// ErrorBody is the error payload
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// ErrorResponse wraps every error returned by the API
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// NewErrorResponse builds an error payload
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorBody{Code: code, Message: message}}
}

// MapError translates an error returned by a handler into a status code and
// payload. Unclassified errors become a 500 with a generic message.
func MapError(err error) (int, ErrorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code := codeForStatus(he.Code)
		message := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			message = m
		}
		if he.Code >= http.StatusInternalServerError {
			message = http.StatusText(he.Code)
		}
		return he.Code, NewErrorResponse(code, message)
	}

	var status int
	var code string
	switch {
	case errors.Is(err, entities.ErrValidation):
		status, code = http.StatusBadRequest, CodeValidation
	case errors.Is(err, entities.ErrConflict):
		status, code = http.StatusConflict, CodeConflict
	case errors.Is(err, entities.ErrNotFound):
		status, code = http.StatusNotFound, CodeNotFound
	case errors.Is(err, entities.ErrUnauthorized):
		status, code = http.StatusUnauthorized, CodeUnauthorized
	case errors.Is(err, entities.ErrForbidden):
		status, code = http.StatusForbidden, CodeForbidden
	default:
		return http.StatusInternalServerError, NewErrorResponse(CodeInternal, "internal server error")
	}

	message := entities.PublicMessage(err)
	if message == "" {
		message = unwrapKind(err).Error()
	}
	resp := NewErrorResponse(code, message)

	var verr *entities.ValidationError
	if errors.As(err, &verr) && len(verr.Details) > 0 {
		resp.Error.Details = verr.Details
	}

	return status, resp
}

// unwrapKind returns the innermost error of the chain
func unwrapKind(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType, http.StatusUnprocessableEntity:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusTooManyRequests:
		return CodeRateLimited
	}
	return CodeInternal
}

// bindError converts a request decoding failure into a validation error
func bindError(err error) error {
	var be *echo.BindingError
	if errors.As(err, &be) {
		return entities.NewValidationError(be.Field, "is invalid")
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return entities.NewValidationError("", "invalid request body: %v", he.Message)
	}
	return entities.NewValidationError("", "invalid request: %v", err)
}
