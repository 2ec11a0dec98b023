package domain

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a conversation transcript. Messages are
// immutable once appended; the transcript is append-only and its
// insertion order is chronological and authoritative for rendering.
// Suggestions are only ever set on assistant messages.
type Message struct {
	Role        Role     `json:"role"`
	Text        string   `json:"text"`
	Suggestions []string `json:"suggestions,omitempty"`
}
