package memory_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/p-n-ai/pai-insights/internal/ai"
	"github.com/p-n-ai/pai-insights/internal/memory"
)

func newBot(persona string, llm ai.Completer, timeout time.Duration) *memory.Bot {
	mem := memory.NewHybrid(memory.Config{MaxTurns: 5}, nil, ai.NewHashEmbedder(32))
	return memory.NewBot(persona, llm, mem, timeout)
}

func TestBot_Chat(t *testing.T) {
	mock := ai.NewMockProvider("Fractions split a whole into parts.")
	bot := newBot(memory.PersonaStudent, mock, 0)

	reply := bot.Chat(t.Context(), "What is a fraction?")

	if reply.Fallback {
		t.Fatal("unexpected fallback")
	}
	if reply.Text != "Fractions split a whole into parts." {
		t.Errorf("Text = %q", reply.Text)
	}

	turns := bot.Memory().Buffer().Turns()
	if len(turns) != 2 || turns[1].Role != memory.RoleAssistant {
		t.Fatalf("turns = %+v, want user and assistant", turns)
	}

	req := mock.LastRequest()
	if req.Task != ai.TaskChat {
		t.Errorf("Task = %v, want TaskChat", req.Task)
	}
	if !strings.Contains(req.Messages[0].Content, "The user is a student.") {
		t.Errorf("system prompt = %q", req.Messages[0].Content)
	}
	prompt := req.Messages[1].Content
	for _, part := range []string{"--- Memory Context ---", "user: What is a fraction?", "--- Conversation ---\nUser: What is a fraction?\nAssistant:"} {
		if !strings.Contains(prompt, part) {
			t.Errorf("prompt missing %q:\n%s", part, prompt)
		}
	}
}

func TestBot_FallbackOnError(t *testing.T) {
	bot := newBot(memory.PersonaParent, &ai.MockProvider{Err: errors.New("quota")}, 0)

	reply := bot.Chat(t.Context(), "How is my child doing?")

	if !reply.Fallback || reply.Text != memory.FallbackReply {
		t.Errorf("reply = %+v, want fallback", reply)
	}
	if n := bot.Memory().Buffer().Len(); n != 1 {
		t.Errorf("buffer len = %d, want only the user turn", n)
	}
}

func TestBot_FallbackOnTimeout(t *testing.T) {
	mock := &ai.MockProvider{Response: "too late", Delay: time.Second}
	bot := newBot(memory.PersonaTeacher, mock, 20*time.Millisecond)

	start := time.Now()
	reply := bot.Chat(t.Context(), "Ideas for a science fair?")

	if !reply.Fallback {
		t.Errorf("reply = %+v, want fallback", reply)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Chat took %v, timeout not applied", elapsed)
	}
}

func TestBot_EmptyReplyFallsBack(t *testing.T) {
	bot := newBot(memory.PersonaStudent, ai.NewMockProvider("   "), 0)

	if reply := bot.Chat(t.Context(), "hello"); !reply.Fallback {
		t.Errorf("reply = %+v, want fallback", reply)
	}
}
