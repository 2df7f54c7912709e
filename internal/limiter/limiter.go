// Package limiter throttles the public share endpoint against token guessing.
package limiter

import (
	"context"
	"time"
)

// Limiter blocks clients that keep probing unknown share tokens.
type Limiter interface {
	// Allow reports whether the client may resolve now and optional retry-after.
	Allow(ctx context.Context, ipHash []byte) (bool, time.Duration, error)
	// Success resets counters after a successful resolve.
	Success(ctx context.Context, ipHash []byte) error
	// Failure records a failed lookup; may place a temporary block.
	Failure(ctx context.Context, ipHash []byte) (bool, time.Duration, error)
}
