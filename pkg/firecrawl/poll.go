package firecrawl

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultPollInitial = 2 * time.Second
	defaultPollCap     = 15 * time.Second
	defaultPollTimeout = 5 * time.Minute
)

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	initial time.Duration
	cap     time.Duration
	timeout time.Duration
	retry   Retry
}

func defaultPollConfig() pollConfig {
	return pollConfig{
		initial: defaultPollInitial,
		cap:     defaultPollCap,
		timeout: defaultPollTimeout,
		retry:   Retry{Attempts: 1},
	}
}

// WithPollInterval overrides the initial poll interval.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.initial = d
	}
}

// WithPollCap overrides the maximum poll interval.
func WithPollCap(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.cap = d
	}
}

// WithPollTimeout overrides the default timeout (applied only if the parent
// context has no deadline).
func WithPollTimeout(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.timeout = d
	}
}

// PollExtract polls GetExtractStatus until the extract job completes, fails,
// or the context expires. Uses exponential backoff: 2s -> 4s -> 8s -> 15s (capped).
func PollExtract(ctx context.Context, client Client, id string, opts ...PollOption) (*ExtractStatusResponse, error) {
	cfg := defaultPollConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	interval := cfg.initial
	for {
		status, err := withRetry(ctx, cfg.retry, "status", func(ctx context.Context) (*ExtractStatusResponse, error) {
			return client.GetExtractStatus(ctx, id)
		})
		if err != nil {
			return nil, eris.Wrap(err, fmt.Sprintf("firecrawl: poll extract %s", id))
		}

		switch status.Status {
		case StatusCompleted:
			return status, nil
		case StatusFailed, StatusCancelled:
			if status.Error != "" {
				return nil, eris.Errorf("firecrawl: extract %s %s: %s", id, status.Status, status.Error)
			}
			return nil, eris.Errorf("firecrawl: extract %s %s", id, status.Status)
		}

		select {
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), fmt.Sprintf("firecrawl: poll extract %s timed out", id))
		case <-time.After(interval):
		}

		interval *= 2
		if interval > cfg.cap {
			interval = cfg.cap
		}
	}
}

// ExtractAndWait starts an extract job and blocks until it finishes.
func ExtractAndWait(ctx context.Context, client Client, req ExtractRequest, opts ...PollOption) (*ExtractStatusResponse, error) {
	cfg := defaultPollConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	started, err := withRetry(ctx, cfg.retry, "extract", func(ctx context.Context) (*ExtractResponse, error) {
		return client.Extract(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return PollExtract(ctx, client, started.ID, opts...)
}
