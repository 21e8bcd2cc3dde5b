// Package common defines shared constants and sentinel errors used across
// Dayli server components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Billing errors.
	ErrorSignatureInvalid    = errors.New("invalid signature")
	ErrorUnhandledEventType  = errors.New("unhandled event type")
	ErrorPaymentProviderCall = errors.New("payment provider call failed")
	ErrorSubscriptionNeeded  = errors.New("active subscription required")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
