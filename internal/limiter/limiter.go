// Package limiter throttles sign-in attempts per account and source address.
package limiter

import (
	"context"
	"time"
)

// Limiter tracks failed sign-ins and applies temporary lockouts.
type Limiter interface {
	// Allow reports whether a sign-in may proceed; when blocked it also
	// returns how long until the next attempt is accepted.
	Allow(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error)
	// Success clears the failure counter after a correct password.
	Success(ctx context.Context, email string, ipHash []byte) error
	// Failure records a wrong password; at the threshold it places a block
	// and reports its duration.
	Failure(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error)
}
