package repository

import (
	"time"

	"github.com/okian/seasonmatch/pkg/logger"
)

type settings struct {
	ttl time.Duration
	now func() time.Time
	log logger.Logger
}

func newSettings(opts []Option) settings {
	s := settings{
		now: time.Now,
		log: logger.GetOrNop().Named("repository"),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s settings) expired(fetchedAt time.Time) bool {
	return s.ttl > 0 && s.now().Sub(fetchedAt) >= s.ttl
}

// Option applies a configuration option to a store or the cached corpus.
type Option func(*settings)

// WithTTL makes entries older than d misses. Zero keeps entries forever.
func WithTTL(d time.Duration) Option {
	return func(s *settings) {
		if d >= 0 {
			s.ttl = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}
