package statsapi

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/seasonmatch/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests at rps with the given burst. A
// non-positive rps removes the cap.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetries sets how many times a failed request is retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithBackoff sets the first retry delay and its cap. Delays double per
// attempt.
func WithBackoff(initial, maxDelay time.Duration) Option {
	return func(c *Client) {
		if initial > 0 {
			c.backoff = initial
		}
		if maxDelay >= c.backoff {
			c.maxBackoff = maxDelay
		}
	}
}

// WithPlayerPool sets the corpus player pool, e.g. "qualified" or "all".
func WithPlayerPool(pool string) Option {
	return func(c *Client) {
		if pool != "" {
			c.playerPool = pool
		}
	}
}

// WithCorpusLimit caps the candidates requested per corpus season.
func WithCorpusLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}
