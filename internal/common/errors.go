// Package common defines shared constants and sentinel errors used across
// the StreamFi API layers. Callers should use errors.Is to match these
// values; the HTTP layer maps them to status codes exactly once.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorConflict     = errors.New("conflict")
	ErrorValidation   = errors.New("validation error")

	// Stream lifecycle errors.
	ErrorInvalidTransition = errors.New("invalid stream state transition")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
