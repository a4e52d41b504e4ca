package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/worktime/worktime-backend/pkg/i18n"
)

// Standard error types
var (
	ErrNotFound   = errors.New("resource not found")
	ErrBadRequest = errors.New("bad request")
	ErrConflict   = errors.New("resource conflict")
	ErrInternal   = errors.New("internal server error")
	ErrValidation = errors.New("validation error")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	MessageKey string            `json:"-"` // i18n key for localization
	Params     map[string]string `json:"-"` // Parameters for i18n interpolation
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Localize returns a localized version of the error message
func (e *AppError) Localize(ctx context.Context) string {
	if e.MessageKey == "" {
		return e.Message
	}
	return i18n.TFromContext(ctx, e.MessageKey, e.localizedParams(i18n.GetLocaleFromContext(ctx)))
}

// localizedParams translates the resource parameter when it is a resource key
func (e *AppError) localizedParams(locale string) map[string]string {
	if e.Params == nil {
		return nil
	}
	out := make(map[string]string, len(e.Params))
	for k, v := range e.Params {
		out[k] = v
	}
	if key, ok := e.Params["resource_key"]; ok {
		out["resource"] = i18n.TWithLocale(locale, "resources."+key)
	}
	return out
}

// Converter is implemented by domain errors that know their HTTP shape
type Converter interface {
	ToAppError() *AppError
}

// FromError resolves any error into an AppError. Unknown errors become
// an opaque internal error so storage details never reach clients.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var conv Converter
	if errors.As(err, &conv) {
		return conv.ToAppError()
	}
	return &AppError{
		Err:        err,
		Code:       "INTERNAL_ERROR",
		Message:    "an unexpected error occurred",
		MessageKey: "errors.internal",
		StatusCode: http.StatusInternalServerError,
	}
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewWithKey creates a new AppError with an i18n key
func NewWithKey(code string, messageKey string, statusCode int, params ...map[string]string) *AppError {
	var p map[string]string
	if len(params) > 0 {
		p = params[0]
	}
	e := &AppError{
		Code:       code,
		MessageKey: messageKey,
		Params:     p,
		StatusCode: statusCode,
	}
	e.Message = i18n.T(messageKey, e.localizedParams(i18n.DefaultLocale))
	return e
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Common error constructors

// NotFound takes a resource key such as "employee"
func NotFound(resourceKey string) *AppError {
	e := NewWithKey("NOT_FOUND", "errors.not_found", http.StatusNotFound,
		map[string]string{"resource_key": resourceKey})
	e.Err = ErrNotFound
	return e
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		MessageKey: "errors.internal",
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		MessageKey: "errors.validation_failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
