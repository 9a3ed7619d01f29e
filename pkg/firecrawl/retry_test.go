package firecrawl

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) Retry {
	return Retry{Attempts: attempts, Initial: time.Millisecond, Max: 5 * time.Millisecond}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429", &APIError{StatusCode: 429}, true},
		{"503 wrapped", fmt.Errorf("submit: %w", &APIError{StatusCode: 503}), true},
		{"402", &APIError{StatusCode: 402}, false},
		{"400", &APIError{StatusCode: 400}, false},
		{"conn refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"plain", errors.New("bad schema"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestExtractAndWait_RetriesTransientSubmit(t *testing.T) {
	var submits atomic.Int32
	stub := &stubClient{
		extractFunc: func(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
			if submits.Add(1) < 3 {
				return nil, &APIError{StatusCode: 502, Body: "bad gateway"}
			}
			return &ExtractResponse{Success: true, ID: "ext-r"}, nil
		},
		extractStatusFunc: func(ctx context.Context, id string) (*ExtractStatusResponse, error) {
			return &ExtractStatusResponse{Status: StatusCompleted, Data: []byte(`{"ok":true}`)}, nil
		},
	}

	resp, err := ExtractAndWait(context.Background(), stub, ExtractRequest{URLs: []string{"https://a.example"}},
		WithPollInterval(time.Millisecond), WithRetry(fastRetry(3)))
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, resp.Status)
	assert.Equal(t, int32(3), submits.Load())
}

func TestExtractAndWait_NoRetryOnPermanent(t *testing.T) {
	var submits atomic.Int32
	stub := &stubClient{
		extractFunc: func(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
			submits.Add(1)
			return nil, &APIError{StatusCode: 402, Body: "payment required"}
		},
	}

	_, err := ExtractAndWait(context.Background(), stub, ExtractRequest{}, WithRetry(fastRetry(5)))
	require.Error(t, err)
	assert.Equal(t, int32(1), submits.Load())
}

func TestPollExtract_RetriesStatusUntilExhausted(t *testing.T) {
	var checks atomic.Int32
	stub := &stubClient{
		extractStatusFunc: func(ctx context.Context, id string) (*ExtractStatusResponse, error) {
			checks.Add(1)
			return nil, &APIError{StatusCode: 503, Body: "unavailable"}
		},
	}

	_, err := PollExtract(context.Background(), stub, "ext-x", WithRetry(fastRetry(2)))
	require.Error(t, err)
	assert.Equal(t, int32(2), checks.Load())

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestRetryBackoff(t *testing.T) {
	r := Retry{Initial: 100 * time.Millisecond, Max: 300 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, r.backoff(0))
	assert.Equal(t, 200*time.Millisecond, r.backoff(1))
	assert.Equal(t, 300*time.Millisecond, r.backoff(2))

	r.Jitter = 0.5
	for i := 0; i < 20; i++ {
		d := r.backoff(0)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}
