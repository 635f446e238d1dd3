// Package statsapi is a client for the MLB Stats API. It supplies player
// identities, single season records and whole corpus seasons.
package statsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/seasonmatch/internal/domain/model"
	"github.com/okian/seasonmatch/pkg/logger"
	"github.com/okian/seasonmatch/pkg/metrics"
)

// Default client configuration constants.
const (
	DefaultBaseURL    = "https://statsapi.mlb.com/api/v1"
	DefaultPlayerPool = "qualified"
	DefaultLimit      = 300

	defaultTimeout    = 10 * time.Second
	defaultRPS        = 10
	defaultBurst      = 5
	defaultRetries    = 3
	defaultBackoff    = 200 * time.Millisecond
	defaultMaxBackoff = 5 * time.Second
	maxErrorBody      = 512
)

// Client talks to the stats API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	http       *http.Client
	limiter    *rate.Limiter
	retries    int
	backoff    time.Duration
	maxBackoff time.Duration
	playerPool string
	limit      int
	log        logger.Logger
}

// New creates a client rooted at baseURL; an empty baseURL uses the public
// service.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(defaultRPS, defaultBurst),
		retries:    defaultRetries,
		backoff:    defaultBackoff,
		maxBackoff: defaultMaxBackoff,
		playerPool: DefaultPlayerPool,
		limit:      DefaultLimit,
		log:        logger.GetOrNop().Named("statsapi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// statusError is a non-2xx answer.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("status %d", e.code)
	}
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= http.StatusInternalServerError
	}
	return !errors.Is(err, ErrDecode)
}

// get fetches path and decodes the JSON body into out. endpoint labels
// metrics and logs. A 404 wraps model.ErrNoRecord; other failures wrap
// ErrUpstream.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			metrics.RecordUpstreamRetry(endpoint)
			if err := sleep(ctx, c.delay(attempt-1)); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrUpstream, endpoint, err)
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrUpstream, endpoint, err)
		}

		lastErr = c.do(ctx, endpoint, u, out)
		if lastErr == nil {
			return nil
		}
		var se *statusError
		if errors.As(lastErr, &se) && se.code == http.StatusNotFound {
			return fmt.Errorf("%s: %w", endpoint, model.ErrNoRecord)
		}
		if ctx.Err() != nil || !retryable(lastErr) {
			break
		}
		c.log.Debug(ctx, "retrying stats api request",
			logger.String("endpoint", endpoint),
			logger.Int("attempt", attempt+1),
			logger.Error(lastErr))
	}

	metrics.RecordErrorByComponent("statsapi", endpoint)
	if errors.Is(lastErr, ErrDecode) {
		return lastErr
	}
	return fmt.Errorf("%w: %s: %w", ErrUpstream, endpoint, lastErr)
}

func (c *Client) do(ctx context.Context, endpoint, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, "error", float64(time.Since(start).Milliseconds()))
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.RecordUpstreamRequest(endpoint, strconv.Itoa(resp.StatusCode), float64(time.Since(start).Milliseconds()))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, endpoint, err)
	}
	return nil
}

// delay is the wait before retry attempt+1: exponential with up to 10%
// jitter, capped at maxBackoff.
func (c *Client) delay(attempt int) time.Duration {
	d := c.backoff << attempt
	if d <= 0 || d > c.maxBackoff {
		d = c.maxBackoff
	}
	if tenth := int64(d / 10); tenth > 0 {
		d += time.Duration(rand.Int64N(tenth))
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
