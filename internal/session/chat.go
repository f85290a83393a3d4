package session

import "strings"

// Role identifies who wrote a chat message.
type Role int

const (
	RoleUser Role = iota
	RoleAssistant
)

func (r Role) String() string {
	if r == RoleUser {
		return "user"
	}
	return "assistant"
}

// FallbackReply replaces the assistant answer when a chat turn fails.
const FallbackReply = "Error connecting to AI."

// Message is one entry of the conversation.
type Message struct {
	Role    Role
	Content string
}

// ChatLog is an append-only conversation. Entries are never edited or reordered.
type ChatLog struct {
	messages []Message
}

// Append adds a message at the end.
func (l *ChatLog) Append(role Role, content string) {
	l.messages = append(l.messages, Message{Role: role, Content: content})
}

// Messages returns a copy of the history.
func (l *ChatLog) Messages() []Message {
	return append([]Message(nil), l.messages...)
}

// Len reports the number of messages.
func (l *ChatLog) Len() int {
	return len(l.messages)
}

func (l *ChatLog) reset() {
	l.messages = nil
}

// AssemblePrompt folds the prior history and the new question into the single
// custom_prompt string the backend expects for chat turns.
func AssemblePrompt(history []Message, question string) string {
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		speaker := "AI Tutor"
		if msg.Role == RoleUser {
			speaker = "Student"
		}
		lines = append(lines, speaker+": "+msg.Content)
	}
	return "History:\n" + strings.Join(lines, "\n") + "\n\nStudent: " + question
}
