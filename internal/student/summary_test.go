package student_test

import (
	"errors"
	"testing"
	"time"

	"github.com/p-n-ai/pai-insights/internal/student"
)

func TestDecodeSummary(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    int
		wantErr bool
	}{
		{"valid", `[{"topic":"Math","correct":8,"total":10},{"topic":"Sci","correct":3,"total":10}]`, 2, false},
		{"empty list", `[]`, 0, false},
		{"missing total", `[{"topic":"Math","correct":8}]`, 0, true},
		{"string count", `[{"topic":"Math","correct":"8","total":10}]`, 0, true},
		{"negative", `[{"topic":"Math","correct":-1,"total":10}]`, 0, true},
		{"correct exceeds total", `[{"topic":"Math","correct":11,"total":10}]`, 0, true},
		{"not json", `nope`, 0, true},
		{"empty input", ``, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := student.DecodeSummary([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeSummary() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, student.ErrInvalidSummary) {
					t.Errorf("error %v should wrap ErrInvalidSummary", err)
				}
				return
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestEncodeSummary_RejectsInvalid(t *testing.T) {
	_, err := student.EncodeSummary([]student.QuizEntry{{Topic: "Math", Correct: 5, Total: 4}})
	if !errors.Is(err, student.ErrInvalidSummary) {
		t.Fatalf("EncodeSummary() error = %v, want ErrInvalidSummary", err)
	}

	data, err := student.EncodeSummary(nil)
	if err != nil {
		t.Fatalf("EncodeSummary(nil) error = %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("EncodeSummary(nil) = %s, want []", data)
	}
}

func TestAggregateAnswers(t *testing.T) {
	got := student.AggregateAnswers(map[string]student.Answer{
		"q1": {Subject: "Science", IsCorrect: true},
		"q2": {Subject: "Math", IsCorrect: true},
		"q3": {Subject: "Math", IsCorrect: false},
		"q4": {Subject: "", IsCorrect: true},
	})

	want := []student.QuizEntry{
		{Topic: "Math", Correct: 1, Total: 2},
		{Topic: "Science", Correct: 1, Total: 1},
		{Topic: "Unknown", Correct: 1, Total: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestChatMessagesFromLogs(t *testing.T) {
	got := student.ChatMessagesFromLogs([]student.ChatLog{
		{UserMessage: "why?", BotResponse: "because"},
		{UserMessage: "", BotResponse: "hello"},
	})
	want := []string{"why?", "because", "hello"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, m := range got {
		if m.Message != want[i] {
			t.Errorf("msg[%d] = %q, want %q", i, m.Message, want[i])
		}
	}
}

func TestGoal_Overdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		goal student.Goal
		want bool
	}{
		{"open past deadline", student.Goal{Status: student.GoalInProgress, Deadline: &past}, true},
		{"completed past deadline", student.Goal{Status: student.GoalCompleted, Deadline: &past}, false},
		{"open future deadline", student.Goal{Status: student.GoalInProgress, Deadline: &future}, false},
		{"no deadline", student.Goal{Status: student.GoalInProgress}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.goal.Overdue(now); got != tt.want {
				t.Errorf("Overdue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLatest(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	got, ok := student.Latest([]student.QuizResult{
		{ID: "a", TakenAt: base},
		{ID: "b", TakenAt: base.Add(48 * time.Hour)},
		{ID: "c", TakenAt: base.Add(24 * time.Hour)},
	})
	if !ok || got.ID != "b" {
		t.Errorf("Latest() = %q, %v; want b, true", got.ID, ok)
	}
	if _, ok := student.Latest(nil); ok {
		t.Error("Latest(nil) should report false")
	}
}
