// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service/broker layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotConnected indicates the broker session is not currently established.
	ErrNotConnected = errors.New("broker not connected")

	// ErrValidation indicates rejected client input.
	ErrValidation = errors.New("validation failed")
)
