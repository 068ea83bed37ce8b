package models

import "errors"

// Drop reasons shared by every component. Handlers wrap these so the
// signaling boundary can classify a dropped event without a live transport.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrForbidden    = errors.New("forbidden")
	ErrBadPayload   = errors.New("bad payload")
)

// DropReason maps an error to the metric label used for dropped events.
func DropReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrBadPayload):
		return "bad_payload"
	default:
		return "internal"
	}
}
