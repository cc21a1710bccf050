package memory

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/p-n-ai/pai-insights/internal/ai"
)

// FallbackReply is returned when the completion service cannot answer.
const FallbackReply = "Sorry, I'm having trouble answering right now. Please try again in a moment."

// DefaultReplyTimeout bounds a single completion call.
const DefaultReplyTimeout = 30 * time.Second

// Reply is the assistant's answer to one turn.
type Reply struct {
	Text     string `json:"response"`
	Fallback bool   `json:"fallback"`
}

// Bot is one persona-specific assistant with its own memory. Not safe for
// concurrent use.
type Bot struct {
	persona string
	llm     ai.Completer
	memory  *Hybrid
	timeout time.Duration
}

// NewBot creates a bot. A zero timeout selects DefaultReplyTimeout.
func NewBot(persona string, llm ai.Completer, mem *Hybrid, timeout time.Duration) *Bot {
	if timeout <= 0 {
		timeout = DefaultReplyTimeout
	}
	return &Bot{persona: persona, llm: llm, memory: mem, timeout: timeout}
}

// Memory returns the bot's memory.
func (b *Bot) Memory() *Hybrid { return b.memory }

// Chat records the user's message, asks the completion service with the
// persona header and memory context, and records the answer. Failures and
// timeouts yield FallbackReply and are not recorded.
func (b *Bot) Chat(ctx context.Context, input string) Reply {
	b.memory.Update(ctx, RoleUser, input)

	var prompt strings.Builder
	prompt.WriteString("--- Memory Context ---\n")
	prompt.WriteString(b.memory.Context(ctx, input))
	prompt.WriteString("\n\n--- Conversation ---\nUser: ")
	prompt.WriteString(input)
	prompt.WriteString("\nAssistant:")

	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	reply, err := ai.Ask(callCtx, b.llm, ai.TaskChat, SystemPrompt(b.persona), prompt.String())
	if err != nil {
		slog.Warn("chat completion failed, using fallback reply",
			"persona", b.persona,
			"error", err,
		)
		return Reply{Text: FallbackReply, Fallback: true}
	}

	b.memory.Update(ctx, RoleAssistant, reply)
	return Reply{Text: reply}
}
