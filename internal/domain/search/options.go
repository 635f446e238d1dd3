package search

import (
	"github.com/okian/seasonmatch/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithSeasonRange sets the inclusive range of corpus seasons scanned.
// Ranges with first after last are ignored.
func WithSeasonRange(first, last int) Option {
	return func(e *Engine) {
		if first > 0 && first <= last {
			e.first, e.last = first, last
		}
	}
}

// WithFetchWorkers prefetches up to n corpus seasons concurrently. Values
// below 2 keep the sequential scan.
func WithFetchWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithResolver sets where unknown aggregate values are backfilled from.
func WithResolver(r ValueResolver) Option {
	return func(e *Engine) {
		if r != nil {
			e.resolver = r
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}
