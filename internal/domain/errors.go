package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound          = errors.New("notice not found")
	ErrInvalidTransition = errors.New("invalid transition for current status")
	ErrUnknownEvent      = errors.New("unknown event: must be submit, approve, publish_now, expire, or delete")
	ErrInvalidTitle      = errors.New("title must not be empty")
	ErrInvalidBody       = errors.New("body must not exceed 65536 characters")
)
