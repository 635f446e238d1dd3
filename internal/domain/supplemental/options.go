package supplemental

import (
	"time"

	"github.com/okian/seasonmatch/pkg/logger"
)

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithTTL keeps a parsed table for d before it is read again. Zero
// disables memoization.
func WithTTL(d time.Duration) Option {
	return func(r *Resolver) {
		if d >= 0 {
			r.ttl = d
		}
	}
}

// WithLogger sets a custom logger for the resolver.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}
