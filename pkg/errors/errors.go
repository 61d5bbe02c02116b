package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind groups error codes by how a caller is expected to react.
type Kind string

const (
	KindValidation   Kind = "VALIDATION"
	KindConflict     Kind = "CONFLICT"
	KindState        Kind = "STATE"
	KindNotFound     Kind = "NOT_FOUND"
	KindTransient    Kind = "TRANSIENT"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindInternal     Kind = "INTERNAL"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Retryable reports whether repeating the same call may succeed.
func (e *Error) Retryable() bool {
	return e != nil && e.Kind == KindTransient
}

// New creates a new Error instance.
func New(code string, kind Kind, status int, message string) *Error {
	return &Error{Code: code, Kind: kind, Status: status, Message: message}
}

// Wrap attaches a cause to a copy of base. An empty message keeps the base message.
func Wrap(err error, base *Error, message string) *Error {
	wrapped := Clone(base, message)
	if wrapped == nil {
		wrapped = Clone(ErrInternal, message)
	}
	wrapped.Err = err
	return wrapped
}

// Predefined errors.
var (
	ErrValidation   = New("VALIDATION_ERROR", KindValidation, http.StatusBadRequest, "validation failed")
	ErrNotFound     = New("NOT_FOUND", KindNotFound, http.StatusNotFound, "resource not found")
	ErrUnauthorized = New("UNAUTHORIZED", KindUnauthorized, http.StatusUnauthorized, "unauthorized")
	ErrForbidden    = New("FORBIDDEN", KindForbidden, http.StatusForbidden, "forbidden")
	ErrInternal     = New("INTERNAL_ERROR", KindInternal, http.StatusInternalServerError, "internal server error")
	ErrTransient    = New("TRANSIENT_ERROR", KindTransient, http.StatusServiceUnavailable, "temporarily unavailable, retry later")
	ErrCacheMiss    = New("CACHE_MISS", KindInternal, http.StatusInternalServerError, "cache miss")

	ErrDuplicateAssignment    = New("DUPLICATE_ASSIGNMENT", KindConflict, http.StatusConflict, "nurse is already assigned to this shift")
	ErrShiftFull              = New("SHIFT_FULL", KindConflict, http.StatusConflict, "shift has no remaining slots")
	ErrScheduleConflict       = New("SCHEDULE_CONFLICT", KindConflict, http.StatusConflict, "nurse has an overlapping shift on this date")
	ErrDuplicateActiveRequest = New("DUPLICATE_ACTIVE_REQUEST", KindConflict, http.StatusConflict, "an active leave request already exists for this assignment")
	ErrCapacityBelowAssigned  = New("CAPACITY_BELOW_ASSIGNED", KindConflict, http.StatusConflict, "required nurses cannot drop below active assignments")

	ErrInactiveNurse     = New("INACTIVE_NURSE", KindState, http.StatusUnprocessableEntity, "nurse cannot receive assignments")
	ErrAlreadyProcessed  = New("ALREADY_PROCESSED", KindState, http.StatusConflict, "leave request already processed")
	ErrNotOwner          = New("NOT_OWNER", KindState, http.StatusForbidden, "actor does not own this resource")
	ErrShiftNotFuture    = New("SHIFT_NOT_FUTURE", KindState, http.StatusUnprocessableEntity, "leave can only be requested for future shifts")
	ErrInvalidTransition = New("INVALID_TRANSITION", KindState, http.StatusConflict, "status transition not allowed")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal, "")
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	clone.Err = nil
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Is reports whether err carries the same code as target.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == target.Code
}
