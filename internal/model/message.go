package model

// Role identifies who authored a transcript message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in the conversation transcript.
// The JSON field names match the backend's chat_history format, so the
// same type is used for the persisted history fetch and the live view.
type Message struct {
	Role     Role   `json:"role"`
	Content  string `json:"content"`
	Thinking string `json:"thinking,omitempty"`
	Time     string `json:"time,omitempty"`     // display timestamp, e.g. "12:00:01"
	Duration string `json:"duration,omitempty"` // display string, e.g. "1m 12s"
}

// Final reports whether the message stopped receiving stream updates.
// User messages are always final; an assistant message is final once the
// backend stamped it with a completion time.
func (m Message) Final() bool {
	return m.Role != RoleAssistant || m.Time != ""
}
