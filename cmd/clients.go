package main

import (
	"time"

	"github.com/sells-group/extract-chat/internal/config"
	"github.com/sells-group/extract-chat/internal/extract"
	"github.com/sells-group/extract-chat/pkg/firecrawl"
)

// newExtractService wires the Firecrawl client and the extraction service
// from configuration.
func newExtractService(c *config.Config) *extract.Service {
	client := firecrawl.NewClient(c.Firecrawl.Key,
		firecrawl.WithBaseURL(c.Firecrawl.BaseURL),
		firecrawl.WithTimeout(time.Duration(c.Firecrawl.TimeoutSecs)*time.Second),
	)

	retry := firecrawl.DefaultRetry()
	retry.Attempts = c.Firecrawl.MaxAttempts
	pollOpts := []firecrawl.PollOption{firecrawl.WithRetry(retry)}
	if c.Firecrawl.PollIntervalMs > 0 {
		pollOpts = append(pollOpts, firecrawl.WithPollInterval(time.Duration(c.Firecrawl.PollIntervalMs)*time.Millisecond))
	}
	if c.Firecrawl.PollTimeoutSecs > 0 {
		pollOpts = append(pollOpts, firecrawl.WithPollTimeout(time.Duration(c.Firecrawl.PollTimeoutSecs)*time.Second))
	}

	return extract.NewService(client,
		extract.WithRateLimit(c.Firecrawl.RatePerMinute),
		extract.WithPollOptions(pollOpts...),
		extract.WithResultValidation(c.Extract.ValidateResults),
	)
}
