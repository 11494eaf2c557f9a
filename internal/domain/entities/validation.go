package entities

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	colorPattern    = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// ValidationError describes invalid caller input. It matches ErrValidation.
type ValidationError struct {
	Field   string            `json:"field,omitempty"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// NewValidationError returns a ValidationError for a single field.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validator is the shared struct validator with the domain tags registered:
// notblank, color (#RRGGBB), username ([A-Za-z0-9_]), taskstatus and priority.
var Validator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "query", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "color", func(fl validator.FieldLevel) bool {
		return IsValidColor(fl.Field().String())
	})
	mustRegister(v, "taskstatus", func(fl validator.FieldLevel) bool {
		return TaskStatus(fl.Field().String()).IsValid()
	})
	mustRegister(v, "priority", func(fl validator.FieldLevel) bool {
		return Priority(fl.Field().String()).IsValid()
	})
	mustRegister(v, "username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// ValidateStruct validates s against its validate tags and converts failures
// into a *ValidationError.
func ValidateStruct(s interface{}) error {
	err := Validator.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Message: err.Error()}
	}

	out := &ValidationError{Details: make(map[string]string, len(fieldErrs))}
	for i, fe := range fieldErrs {
		msg := describeFieldError(fe)
		out.Details[fe.Field()] = msg
		if i == 0 {
			out.Field = fe.Field()
			out.Message = msg
		}
	}
	return out
}

// IsValidColor reports whether c is a #RRGGBB color.
func IsValidColor(c string) bool {
	return colorPattern.MatchString(c)
}

func describeFieldError(fe validator.FieldError) string {
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}

	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s%s", fe.Param(), unit)
	case "max":
		return fmt.Sprintf("must be at most %s%s", fe.Param(), unit)
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "color":
		return "must be a hex color like #3B82F6"
	case "taskstatus":
		return "must be one of: " + joinValues(TaskStatuses)
	case "priority":
		return "must be one of: " + joinValues(Priorities)
	case "username":
		return "may only contain letters, digits and underscores"
	default:
		return "is invalid"
	}
}

func joinValues[T ~string](values []T) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return strings.Join(out, ", ")
}
