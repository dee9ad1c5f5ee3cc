// Package common defines shared sentinel errors and validation error types
// used across the microblog core. Callers should use errors.Is to match
// the sentinel values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// ErrorUnauthorized covers both unknown-email and wrong-password login
	// failures so that callers cannot tell which emails exist.
	ErrorUnauthorized = errors.New("unauthorized")

	// Password reset lifecycle.
	ErrResetExpired = errors.New("password reset expired")

	// Social graph errors.
	ErrSelfFollow = errors.New("cannot follow self")
)
