package extract

import (
	"strings"

	"github.com/sells-group/extract-chat/internal/schema"
	"github.com/sells-group/extract-chat/pkg/firecrawl"
)

// MaxResults caps the number of records requested per extraction.
const MaxResults = 20

// User-facing validation messages.
const (
	MsgMissingURL    = "Please enter a website URL first!"
	MsgInvalidURL    = "Please enter a valid URL starting with http:// or https://"
	MsgMissingPrompt = "Please enter a prompt describing what to extract."
)

// Request is one extraction submission.
type Request struct {
	URLs       []string
	Prompt     string
	Schema     *schema.Schema
	MaxResults int
}

// HasHTTPScheme reports whether raw starts with http:// or https://.
func HasHTTPScheme(raw string) bool {
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}

// ValidateURL rejects empty URLs and URLs without an http(s) scheme.
func ValidateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return &ValidationError{Field: "url", Message: MsgMissingURL}
	}
	if !HasHTTPScheme(raw) {
		return &ValidationError{Field: "url", Message: MsgInvalidURL}
	}
	return nil
}

// NewRequest validates the URL and prompt and builds a Request with the
// fixed result cap. A nil schema leaves the request schemaless.
func NewRequest(url, prompt string, s *schema.Schema) (Request, error) {
	if err := ValidateURL(url); err != nil {
		return Request{}, err
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Request{}, &ValidationError{Field: "prompt", Message: MsgMissingPrompt}
	}
	return Request{
		URLs:       []string{strings.TrimSpace(url)},
		Prompt:     prompt,
		Schema:     s,
		MaxResults: MaxResults,
	}, nil
}

// Firecrawl converts the request into the API body.
func (r Request) Firecrawl() firecrawl.ExtractRequest {
	return firecrawl.ExtractRequest{
		URLs:       r.URLs,
		Prompt:     r.Prompt,
		Schema:     r.Schema.Map(),
		MaxResults: r.MaxResults,
	}
}
