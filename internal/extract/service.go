// Package extract builds extraction requests, runs them against the
// extraction service and normalizes the returned JSON into tables.
package extract

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/extract-chat/internal/model"
	"github.com/sells-group/extract-chat/internal/schema"
	"github.com/sells-group/extract-chat/pkg/firecrawl"
)

// Outcome is the result of one completed extraction.
type Outcome struct {
	Request  Request
	Payload  json.RawMessage
	Result   Result
	Duration time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithRateLimit caps outbound extraction calls per minute across all
// sessions. Zero or negative disables the limit.
func WithRateLimit(perMinute int) Option {
	return func(s *Service) {
		if perMinute <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
}

// WithPollOptions passes polling options through to the extract job wait.
func WithPollOptions(opts ...firecrawl.PollOption) Option {
	return func(s *Service) {
		s.pollOpts = append(s.pollOpts, opts...)
	}
}

// WithResultValidation checks returned data against the request schema and
// logs mismatches.
func WithResultValidation(on bool) Option {
	return func(s *Service) {
		s.validateResults = on
	}
}

// Service runs extractions against the extraction service.
type Service struct {
	client          firecrawl.Client
	limiter         *rate.Limiter
	pollOpts        []firecrawl.PollOption
	validateResults bool
}

// NewService creates a Service backed by client.
func NewService(client firecrawl.Client, opts ...Option) *Service {
	s := &Service{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates the inputs, builds the schema from fields and runs the
// extraction. Validation failures return a *ValidationError without touching
// the service.
func (s *Service) Submit(ctx context.Context, url, prompt string, fields []model.SchemaField) (*Outcome, error) {
	if err := ValidateURL(url); err != nil {
		return nil, err
	}
	sch, err := schema.Build(fields)
	if err != nil {
		return nil, err
	}
	req, err := NewRequest(url, prompt, sch)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, req)
}

// Run sends req, waits for the job to finish and normalizes the payload.
// Any service failure is returned as a *RemoteError.
func (s *Service) Run(ctx context.Context, req Request) (*Outcome, error) {
	log := zap.L().With(
		zap.Strings("urls", req.URLs),
		zap.Bool("schema", req.Schema != nil),
	)

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, &RemoteError{Err: eris.Wrap(err, "extract: rate limit wait")}
		}
	}

	start := time.Now()
	log.Info("extraction started", zap.String("prompt", req.Prompt))

	status, err := firecrawl.ExtractAndWait(ctx, s.client, req.Firecrawl(), s.pollOpts...)
	if err != nil {
		log.Error("extraction failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, &RemoteError{Err: eris.Wrap(err, "extract: call service")}
	}

	if s.validateResults && req.Schema != nil {
		if verr := req.Schema.CheckData(status.Data); verr != nil {
			log.Warn("extraction result does not match schema", zap.Error(verr))
		}
	}

	payload, err := wrapData(status.Data)
	if err != nil {
		log.Warn("could not re-encode extraction payload", zap.Error(err))
		return &Outcome{
			Request:  req,
			Payload:  status.Data,
			Result:   rawText(string(status.Data)),
			Duration: time.Since(start),
		}, nil
	}

	result := Normalize(payload)
	elapsed := time.Since(start)
	log.Info("extraction complete",
		zap.String("kind", string(result.Kind)),
		zap.Int("rows", result.Table.NumRows()),
		zap.Duration("elapsed", elapsed),
	)

	return &Outcome{
		Request:  req,
		Payload:  payload,
		Result:   result,
		Duration: elapsed,
	}, nil
}

// wrapData restores the {"data": ...} envelope the normalizer keys on.
func wrapData(data json.RawMessage) (json.RawMessage, error) {
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	out, err := json.Marshal(struct {
		Data json.RawMessage `json:"data"`
	}{Data: data})
	if err != nil {
		return nil, eris.Wrap(err, "extract: encode payload")
	}
	return out, nil
}
