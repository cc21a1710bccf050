// Package memory implements the layered conversation memory behind the
// assistant: a rolling turn buffer, a periodic summary, and a semantic
// store of past user messages.
//
// A memory value belongs to one conversation and is not safe for concurrent
// use; Sessions serializes access per session.
package memory

import "strings"

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultMaxTurns is the buffer size, in user/assistant pairs, when none is set.
const DefaultMaxTurns = 10

// Turn is one message in a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Buffer keeps the most recent turns, at most two per configured turn.
type Buffer struct {
	limit int
	turns []Turn
}

// NewBuffer creates a buffer holding maxTurns user/assistant pairs.
func NewBuffer(maxTurns int) *Buffer {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Buffer{limit: maxTurns * 2}
}

// Add appends a turn and drops the oldest ones past the limit.
func (b *Buffer) Add(role, content string) {
	b.turns = append(b.turns, Turn{Role: role, Content: content})
	if over := len(b.turns) - b.limit; over > 0 {
		b.turns = append(b.turns[:0:0], b.turns[over:]...)
	}
}

// Turns returns a copy of the buffered turns, oldest first.
func (b *Buffer) Turns() []Turn {
	return append([]Turn(nil), b.turns...)
}

// Len returns the number of buffered turns.
func (b *Buffer) Len() int { return len(b.turns) }

// Transcript renders the buffer as "role: content" lines.
func (b *Buffer) Transcript() string {
	var sb strings.Builder
	for i, t := range b.turns {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(t.Role)
		sb.WriteString(": ")
		sb.WriteString(t.Content)
	}
	return sb.String()
}
