package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// ErrTokenUnregistered marks a push token the gateway reports as permanently
// invalid. The delivery layer recognizes it by value; it is never surfaced to
// the original caller as a hard failure.
var ErrTokenUnregistered = errors.New("push token no longer registered")
