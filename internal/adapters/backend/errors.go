package backend

import (
	"errors"
	"fmt"
)

// Sentinel kinds for backend errors. Error.Is matches against them.
var (
	ErrTransport = errors.New("backend unreachable")
	ErrStatus    = errors.New("backend returned an error status")
	ErrDecode    = errors.New("backend response could not be decoded")
	ErrSchema    = errors.New("backend response does not match schema")
)

// Error is the normalized failure returned by every Client method.
type Error struct {
	// Op is the operation name, e.g. "register" or "fetch_results".
	Op string
	// Kind is one of the sentinel kinds above.
	Kind error
	// Status is the HTTP status code, 0 when no response was received.
	Status int
	// Message is the backend supplied message, if the body carried one.
	Message string
	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("backend %s: %v", e.Op, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool { return target == e.Kind }

// UserMessage returns the backend message when there is one, else fallback.
func (e *Error) UserMessage(fallback string) string {
	if e != nil && e.Message != "" {
		return e.Message
	}
	return fallback
}

// outcome maps an error to the metric label used for backend calls.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrStatus):
		return "status"
	case errors.Is(err, ErrSchema):
		return "schema"
	case errors.Is(err, ErrDecode):
		return "decode"
	default:
		return "unknown"
	}
}

// UserMessage extracts the backend message from err when it is an *Error.
func UserMessage(err error, fallback string) string {
	var be *Error
	if errors.As(err, &be) {
		return be.UserMessage(fallback)
	}
	return fallback
}
