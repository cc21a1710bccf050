package memory_test

import (
	"sync"
	"testing"
	"time"

	"github.com/p-n-ai/pai-insights/internal/ai"
	"github.com/p-n-ai/pai-insights/internal/memory"
)

func TestSessions_SerializesTurns(t *testing.T) {
	var (
		mu   sync.Mutex
		bots []*memory.Bot
	)
	sessions := memory.NewSessions(func(persona string) *memory.Bot {
		b := newBotWithTurns(persona, 100)
		mu.Lock()
		bots = append(bots, b)
		mu.Unlock()
		return b
	}, 0)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sessions.Chat(t.Context(), "s1", memory.PersonaStudent, "hi")
		}()
	}
	wg.Wait()

	if len(bots) != 1 {
		t.Fatalf("created %d bots, want 1", len(bots))
	}
	turns := bots[0].Memory().Buffer().Turns()
	if len(turns) != 20 {
		t.Fatalf("len(turns) = %d, want 20", len(turns))
	}
	for i, turn := range turns {
		want := memory.RoleUser
		if i%2 == 1 {
			want = memory.RoleAssistant
		}
		if turn.Role != want {
			t.Errorf("turns[%d].Role = %q, want %q", i, turn.Role, want)
		}
	}
}

func TestSessions_SeparateSessions(t *testing.T) {
	sessions := memory.NewSessions(func(persona string) *memory.Bot {
		return newBotWithTurns(persona, 5)
	}, 0)

	sessions.Chat(t.Context(), "a", memory.PersonaStudent, "hi")
	sessions.Chat(t.Context(), "b", memory.PersonaParent, "hi")
	sessions.Chat(t.Context(), "a", memory.PersonaStudent, "again")

	if sessions.Len() != 2 {
		t.Errorf("Len() = %d, want 2", sessions.Len())
	}
}

func TestSessions_Sweep(t *testing.T) {
	sessions := memory.NewSessions(func(persona string) *memory.Bot {
		return newBotWithTurns(persona, 5)
	}, time.Minute)

	sessions.Chat(t.Context(), "a", memory.PersonaStudent, "hi")

	if n := sessions.Sweep(time.Now()); n != 0 {
		t.Errorf("Sweep(now) dropped %d, want 0", n)
	}
	if n := sessions.Sweep(time.Now().Add(2 * time.Minute)); n != 1 {
		t.Errorf("Sweep(later) dropped %d, want 1", n)
	}
	if sessions.Len() != 0 {
		t.Errorf("Len() = %d, want 0", sessions.Len())
	}
}

func TestSessions_SweepDisabled(t *testing.T) {
	sessions := memory.NewSessions(func(persona string) *memory.Bot {
		return newBotWithTurns(persona, 5)
	}, 0)
	sessions.Chat(t.Context(), "a", memory.PersonaStudent, "hi")

	if n := sessions.Sweep(time.Now().Add(24 * time.Hour)); n != 0 {
		t.Errorf("Sweep() dropped %d with idle disabled", n)
	}
}

func newBotWithTurns(persona string, maxTurns int) *memory.Bot {
	mem := memory.NewHybrid(memory.Config{MaxTurns: maxTurns}, nil, ai.NewHashEmbedder(16))
	return memory.NewBot(persona, ai.NewMockProvider("ok"), mem, 0)
}
