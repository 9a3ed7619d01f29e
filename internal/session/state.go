// Package session holds per-browser UI state: chat log, schema-builder rows,
// the extraction counter and the intro flag.
package session

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sells-group/extract-chat/internal/model"
)

// NoticeLevel is the severity of a one-shot banner.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a banner shown once on the next render. Detail holds the
// expandable diagnostic text for errors.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
	Detail  string      `json:"detail,omitempty"`
}

// ExamplePrompts are offered by the "try an example" button.
var ExamplePrompts = []string{
	"Extract all product names, prices, and image URLs from this e-commerce site",
	"Find all blog post titles, publish dates, and author names",
	"Extract the company contact information including email, phone, and address",
	"Get all project titles, descriptions, and links from the portfolio section",
	"Extract all team member names, positions, and bios from the about page",
}

// State is one user's session. All methods are safe for concurrent use; the
// in-flight guard allows a single extraction at a time.
type State struct {
	ID string

	mu              sync.Mutex
	websiteURL      string
	messages        []model.ChatMessage
	fields          []model.SchemaField
	extractionCount int
	showIntro       bool
	examplePrompt   string
	notice          *Notice
	lastSeen        time.Time

	inflight sync.Mutex
}

// New returns a State with default values: no messages, one blank schema
// row, a zero counter and the intro shown.
func New(id string) *State {
	return &State{
		ID:        id,
		fields:    []model.SchemaField{model.BlankField()},
		showIntro: true,
		lastSeen:  time.Now(),
	}
}

// Snapshot is an immutable copy of a State for rendering.
type Snapshot struct {
	ID              string              `json:"id"`
	WebsiteURL      string              `json:"website_url"`
	Messages        []model.ChatMessage `json:"messages"`
	Fields          []model.SchemaField `json:"fields"`
	ExtractionCount int                 `json:"extraction_count"`
	ShowIntro       bool                `json:"show_intro"`
	ExamplePrompt   string              `json:"example_prompt,omitempty"`
	Notice          *Notice             `json:"notice,omitempty"`
}

// CanAddField reports whether another schema row may be added.
func (s Snapshot) CanAddField() bool { return len(s.Fields) < model.MaxSchemaFields }

// CanRemoveField reports whether a schema row may be removed.
func (s Snapshot) CanRemoveField() bool { return len(s.Fields) > model.MinSchemaFields }

// Snapshot copies the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:              s.ID,
		WebsiteURL:      s.websiteURL,
		Messages:        append([]model.ChatMessage(nil), s.messages...),
		Fields:          append([]model.SchemaField(nil), s.fields...),
		ExtractionCount: s.extractionCount,
		ShowIntro:       s.showIntro,
		ExamplePrompt:   s.examplePrompt,
	}
	if s.notice != nil {
		n := *s.notice
		snap.Notice = &n
	}
	return snap
}

// TakeNotice returns the pending notice and clears it.
func (s *State) TakeNotice() *Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.notice
	s.notice = nil
	return n
}

// SetNotice replaces the pending notice.
func (s *State) SetNotice(level NoticeLevel, message, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = &Notice{Level: level, Message: message, Detail: detail}
}

// WebsiteURL returns the target URL.
func (s *State) WebsiteURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.websiteURL
}

// SetWebsiteURL stores the target URL as typed.
func (s *State) SetWebsiteURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.websiteURL = url
}

// DismissIntro switches the UI from the intro screen to the chat.
func (s *State) DismissIntro() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showIntro = false
}

// Append adds a message to the chat log.
func (s *State) Append(msg model.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// Message returns the message at index i.
func (s *State) Message(i int) (model.ChatMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.messages) {
		return model.ChatMessage{}, false
	}
	return s.messages[i], true
}

// RecordExtraction increments the extraction counter and returns the new
// value.
func (s *State) RecordExtraction() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extractionCount++
	return s.extractionCount
}

// ResetChat clears the chat log and the extraction counter.
func (s *State) ResetChat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.extractionCount = 0
}

// Fields returns a copy of the schema-builder rows.
func (s *State) Fields() []model.SchemaField {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.SchemaField(nil), s.fields...)
}

// SetFields replaces the rows, clamped to the allowed row count. An empty
// list resets to one blank row.
func (s *State) SetFields(fields []model.SchemaField) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(fields) > model.MaxSchemaFields {
		fields = fields[:model.MaxSchemaFields]
	}
	if len(fields) == 0 {
		fields = []model.SchemaField{model.BlankField()}
	}
	s.fields = append([]model.SchemaField(nil), fields...)
}

// UpdateField edits row i in place.
func (s *State) UpdateField(i int, f model.SchemaField) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.fields) {
		return false
	}
	s.fields[i] = f
	return true
}

// AddField appends a blank row unless the maximum is reached.
func (s *State) AddField() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.fields) >= model.MaxSchemaFields {
		return false
	}
	s.fields = append(s.fields, model.BlankField())
	return true
}

// RemoveField drops the last row unless only the minimum remains.
func (s *State) RemoveField() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.fields) <= model.MinSchemaFields {
		return false
	}
	s.fields = s.fields[:len(s.fields)-1]
	return true
}

// ResetSchema returns the builder to a single blank row.
func (s *State) ResetSchema() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = []model.SchemaField{model.BlankField()}
}

// PickExamplePrompt chooses a random example prompt and remembers it.
func (s *State) PickExamplePrompt() string {
	p := ExamplePrompts[rand.IntN(len(ExamplePrompts))]
	s.mu.Lock()
	defer s.mu.Unlock()
	s.examplePrompt = p
	return p
}

// TryBeginExtraction claims the session's single extraction slot. The
// returned func releases it.
func (s *State) TryBeginExtraction() (func(), bool) {
	if !s.inflight.TryLock() {
		return nil, false
	}
	return s.inflight.Unlock, true
}

func (s *State) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *State) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
