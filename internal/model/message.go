package model

import "time"

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry in a session's conversation log. Exactly one of
// Text or Table is set.
type ChatMessage struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text,omitempty"`
	Table     *Table    `json:"table,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsUser reports whether the message was typed by the user.
func (m ChatMessage) IsUser() bool { return m.Role == RoleUser }

// HasTable reports whether the message carries tabular content.
func (m ChatMessage) HasTable() bool { return m.Table != nil }

// UserMessage builds a user-authored text message.
func UserMessage(text string) ChatMessage {
	return ChatMessage{Role: RoleUser, Text: text, CreatedAt: time.Now().UTC()}
}

// AssistantText builds an assistant text message.
func AssistantText(text string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Text: text, CreatedAt: time.Now().UTC()}
}

// AssistantTable builds an assistant message carrying a table.
func AssistantTable(t *Table) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Table: t, CreatedAt: time.Now().UTC()}
}
