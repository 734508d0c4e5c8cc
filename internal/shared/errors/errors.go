// Package errors implements the error kind taxonomy every command
// service and HTTP handler translates into the response envelope.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable, machine-readable error category carried on the
// wire as error.kind. UI routing (form field error vs. toast) keys off
// this, not the message.
type Kind string

const (
	KindUnauthorized    Kind = "unauthorized"
	KindValidation      Kind = "validation_failed"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "optimistic_concurrency_conflict"
	KindConstraint      Kind = "constraint_violated"
	KindTransient       Kind = "transient"
	KindInternal        Kind = "internal"
	KindForbidden       Kind = "forbidden"
)

// Sentinel errors for errors.Is comparisons.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("optimistic concurrency conflict")
	ErrValidation = errors.New("validation failed")
	ErrConstraint = errors.New("constraint violated")
	ErrTransient  = errors.New("transient failure")
)

// AppError is the categorized error every layer above the domain
// aggregates deals in.
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Kind       Kind              `json:"kind"`
	HTTPStatus int               `json:"-"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a not_found error for a missing aggregate.
func NotFound(aggregateType, id string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Message:    fmt.Sprintf("%s %q not found", aggregateType, id),
		Kind:       KindNotFound,
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]string{"aggregateType": aggregateType, "id": id},
	}
}

// Unauthorized creates an unauthorized error - no/invalid session.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:        errors.New("unauthorized"),
		Message:    message,
		Kind:       KindUnauthorized,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden creates a forbidden error, raised at the request boundary.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:        errors.New("forbidden"),
		Message:    message,
		Kind:       KindForbidden,
		HTTPStatus: http.StatusForbidden,
	}
}

// Validation creates a validation_failed error - malformed input,
// illegal state transition, invalid option value.
func Validation(message string, details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Message:    message,
		Kind:       KindValidation,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// Conflict creates an optimistic_concurrency_conflict error.
func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Message:    message,
		Kind:       KindConflict,
		HTTPStatus: http.StatusConflict,
	}
}

// ConstraintViolated creates a constraint_violated error - slug/sku
// already in use, duplicate add, unknown remove.
func ConstraintViolated(message string) *AppError {
	return &AppError{
		Err:        ErrConstraint,
		Message:    message,
		Kind:       KindConstraint,
		HTTPStatus: http.StatusConflict,
	}
}

// Transient creates a transient error - store unavailable, deadlock.
// Callers (including the scheduler) may retry.
func Transient(message string, err error) *AppError {
	return &AppError{
		Err:        fmt.Errorf("%w: %v", ErrTransient, err),
		Message:    message,
		Kind:       KindTransient,
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// Internal wraps an unexpected bug.
func Internal(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "internal server error",
		Kind:       KindInternal,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// Wrap re-messages an error, preserving its kind if it is already an
// AppError, else classifying it internal.
func Wrap(err error, message string) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Err:        appErr.Err,
			Message:    fmt.Sprintf("%s: %s", message, appErr.Message),
			Kind:       appErr.Kind,
			HTTPStatus: appErr.HTTPStatus,
			Details:    appErr.Details,
		}
	}
	return &AppError{
		Err:        err,
		Message:    message,
		Kind:       KindInternal,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// Of reports the Kind of err, defaulting to internal for non-AppErrors.
func Of(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
