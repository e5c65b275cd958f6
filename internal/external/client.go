// Package external provides the anti-corruption layer between carbonview
// domain logic and third-party APIs. Outbound HTTP calls go through the
// resilient Client, which enforces circuit breaking, bounded retries with
// jittered backoff, correlation-ID propagation, and error mapping. These
// resilience patterns apply only to outbound calls; request handlers remain
// strictly single-shot.
package external

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"carbonview/internal/types"
)

// RetryPolicy configures the retry behavior for the Client.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryPolicy returns sensible defaults for external API calls.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		MinWait:    500 * time.Millisecond,
		MaxWait:    10 * time.Second,
	}
}

// Client wraps an *http.Client and a circuit breaker. Upstream clients (grid
// intensity) embed Client to inherit this behavior.
//
// Only GET requests may be issued through Client; retried requests are
// replayed as-is and the upstreams consumed here are all read-only.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	retry      RetryPolicy
	userAgent  string
	sleep      func(time.Duration) // injectable for tests
}

// NewClient creates a Client with the given http client, breaker name, retry
// policy, and user agent string.
func NewClient(httpClient *http.Client, breakerName string, retry RetryPolicy, userAgent string) *Client {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Client{
		httpClient: httpClient,
		breaker:    cb,
		retry:      retry,
		userAgent:  userAgent,
		sleep:      time.Sleep,
	}
}

// WithSleepFunc overrides the sleep function used between retries. Intended
// for tests to avoid real delays.
func (c *Client) WithSleepFunc(fn func(time.Duration)) *Client {
	c.sleep = fn
	return c
}

// Do executes the GET request with correlation-ID and User-Agent injection,
// circuit breaker wrapping, and retries on 429/5xx. On success the caller is
// responsible for closing the response body. On exhausted retries or an open
// breaker, Do returns a *types.AppError with the appropriate upstream code.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if reqID := types.GetRequestID(req.Context()); reqID != "" {
		req.Header.Set("X-Request-Id", reqID)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	var (
		lastResp *http.Response
		lastErr  error
	)

	attempts := 1 + c.retry.MaxRetries
	for attempt := 0; attempt < attempts; attempt++ {
		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, doErr := c.httpClient.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			// 5xx and 429 count as failures for the breaker.
			if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
				return r, fmt.Errorf("upstream returned %d", r.StatusCode)
			}
			return r, nil
		})

		if err == nil {
			return resp, nil
		}

		lastErr = err
		if resp != nil {
			if attempt < attempts-1 {
				resp.Body.Close()
			} else {
				lastResp = resp
			}
		}

		// An open breaker means the upstream is already known-bad; retrying
		// would only extend the outage window.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}

		if attempt < attempts-1 {
			c.sleep(c.backoff(attempt, resp))
		}
	}

	if lastResp != nil {
		lastResp.Body.Close()
	}

	return nil, c.mapError(lastResp, lastErr)
}

// backoff determines the wait before the next retry attempt. It respects a
// numeric Retry-After header, otherwise uses exponential backoff with full
// jitter clamped to [MinWait, MaxWait].
func (c *Client) backoff(attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
				wait := time.Duration(seconds) * time.Second
				if wait > c.retry.MaxWait {
					wait = c.retry.MaxWait
				}
				return wait
			}
		}
	}

	base := float64(c.retry.MinWait) * math.Pow(2, float64(attempt))
	if base > float64(c.retry.MaxWait) {
		base = float64(c.retry.MaxWait)
	}
	minWait := float64(c.retry.MinWait)
	if base <= minWait {
		return c.retry.MinWait
	}
	return time.Duration(minWait + rand.Float64()*(base-minWait))
}

// mapError translates HTTP-level failures into domain-level AppErrors.
func (c *Client) mapError(resp *http.Response, err error) *types.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppError(
			types.ErrCodeUpstreamRateLimited,
			"circuit breaker is open; upstream service unavailable",
			err,
		)
	}

	if resp != nil {
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return types.NewAppError(types.ErrCodeUpstreamRateLimited, "upstream rate limit exceeded", err)
		case resp.StatusCode >= 500:
			return types.NewAppError(
				types.ErrCodeUpstreamUnavailable,
				fmt.Sprintf("upstream returned %d after retries", resp.StatusCode),
				err,
			)
		}
	}

	return types.NewAppError(types.ErrCodeUpstreamUnavailable, "upstream request failed", err)
}
