package store_test

import (
	"testing"

	"github.com/p-n-ai/pai-insights/internal/store"
)

func TestMemoryEventLogger_LogEvent(t *testing.T) {
	logger := store.NewMemoryEventLogger()

	err := logger.LogEvent(t.Context(), store.Event{
		StudentID: "s1",
		EventType: store.EventQuizRecorded,
		Data:      map[string]any{"topics": 2},
	})
	if err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}

	events := logger.Events()
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].EventType != store.EventQuizRecorded {
		t.Errorf("EventType = %q, want %q", events[0].EventType, store.EventQuizRecorded)
	}
	if events[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestMemoryEventLogger_RequiresType(t *testing.T) {
	if err := store.NewMemoryEventLogger().LogEvent(t.Context(), store.Event{StudentID: "s1"}); err == nil {
		t.Error("expected error for missing event type")
	}
}

func TestPostgresEventLogger_LogEvent_NilPool(t *testing.T) {
	logger := store.NewPostgresEventLogger(nil)

	err := logger.LogEvent(t.Context(), store.Event{
		StudentID: "s1",
		EventType: store.EventChatRecorded,
	})
	if err == nil {
		t.Fatal("expected error for nil pool")
	}
}
