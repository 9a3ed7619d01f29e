package firecrawl

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Retry controls how transient submit and status-check failures are retried.
// Attempts counts the first try; 1 or less disables retries.
type Retry struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
	// Jitter is a fraction of the computed delay (0.25 = ±25%).
	Jitter float64
}

// DefaultRetry returns the retry policy used for API calls.
func DefaultRetry() Retry {
	return Retry{
		Attempts: 3,
		Initial:  500 * time.Millisecond,
		Max:      10 * time.Second,
		Jitter:   0.25,
	}
}

// WithRetry retries transient failures of the extract submit and each status
// check according to r.
func WithRetry(r Retry) PollOption {
	return func(c *pollConfig) {
		c.retry = r
	}
}

// IsTransient reports whether err is safe to retry: 408, 429 and 5xx
// responses, network timeouts and refused or reset connections.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return isTransientStatus(apiErr.StatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED)
}

func isTransientStatus(code int) bool {
	switch code {
	case 408, 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// withRetry runs fn until it succeeds, fails permanently, the attempts run
// out or ctx is done. The last error is returned unchanged.
func withRetry[T any](ctx context.Context, r Retry, op string, fn func(context.Context) (T, error)) (T, error) {
	attempts := max(r.Attempts, 1)

	var zero T
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsTransient(err) || attempt == attempts-1 {
			break
		}

		zap.L().Warn("firecrawl: retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		timer := time.NewTimer(r.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}

func (r Retry) backoff(attempt int) time.Duration {
	initial := r.Initial
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	delay := float64(initial) * math.Pow(2, float64(attempt))
	if r.Max > 0 && delay > float64(r.Max) {
		delay = float64(r.Max)
	}
	if r.Jitter > 0 {
		delay += (rand.Float64()*2 - 1) * delay * r.Jitter
	}
	return time.Duration(max(delay, 0))
}
