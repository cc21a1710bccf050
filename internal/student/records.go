// Package student defines the typed records the analytics pipeline consumes:
// quiz results, chat logs, logged activities, goals, and static student info.
package student

import (
	"fmt"
	"strings"
	"time"
)

// Goal statuses. Any status other than GoalCompleted counts as open.
const (
	GoalInProgress = "in-progress"
	GoalCompleted  = "completed"
)

// Activity categories used by the progress and notification rules.
const (
	CategorySports = "sports"
	CategoryArt    = "art"
)

// QuizEntry is the per-topic aggregate of one quiz.
type QuizEntry struct {
	Topic   string `json:"topic"`
	Correct int    `json:"correct"`
	Total   int    `json:"total"`
}

// Validate checks the entry invariants: non-empty topic, 0 <= correct <= total.
func (e QuizEntry) Validate() error {
	if strings.TrimSpace(e.Topic) == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidSummary)
	}
	if e.Correct < 0 || e.Total < 0 {
		return fmt.Errorf("%w: negative counts for topic %q", ErrInvalidSummary, e.Topic)
	}
	if e.Correct > e.Total {
		return fmt.Errorf("%w: correct %d exceeds total %d for topic %q", ErrInvalidSummary, e.Correct, e.Total, e.Topic)
	}
	return nil
}

// QuizResult is one persisted quiz attempt.
type QuizResult struct {
	ID        string      `json:"id"`
	StudentID string      `json:"student_id"`
	Entries   []QuizEntry `json:"summary_data"`
	TakenAt   time.Time   `json:"taken_at"`
}

// ChatLog is one persisted exchange between a student and the assistant.
type ChatLog struct {
	ID          string    `json:"id,omitempty"`
	StudentID   string    `json:"student_id"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	SentAt      time.Time `json:"sent_at"`
}

// ChatMessage is the unit of chat analysis.
type ChatMessage struct {
	Message string `json:"message"`
}

// Activity is a logged block of time spent on a category.
type Activity struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	TimeSpent   int       `json:"time_spent"` // minutes
	CreatedAt   time.Time `json:"created_at"`
}

// Goal is a learning goal with an optional deadline.
type Goal struct {
	ID        string     `json:"id"`
	StudentID string     `json:"student_id"`
	Title     string     `json:"title"`
	Status    string     `json:"status"`
	Deadline  *time.Time `json:"deadline"`
	Progress  float64    `json:"progress"`
}

// Overdue reports whether the goal is open and past its deadline at now.
func (g Goal) Overdue(now time.Time) bool {
	return g.Status != GoalCompleted && g.Deadline != nil && g.Deadline.Before(now)
}

// MoodLog is a self-reported mood check-in.
type MoodLog struct {
	ID        string    `json:"id,omitempty"`
	StudentID string    `json:"student_id"`
	Mood      string    `json:"mood"`
	LoggedAt  time.Time `json:"logged_at"`
}

// Assignment is a class assignment for a grade and section.
type Assignment struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Grade     string    `json:"grade"`
	Section   string    `json:"section"`
	DueDate   time.Time `json:"due_date"`
	Completed bool      `json:"is_completed"`
}

// Info is the static part of a student profile.
type Info struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Age           int    `json:"age"`
	Grade         string `json:"grade"`
	Section       string `json:"section,omitempty"`
	School        string `json:"school,omitempty"`
	ProfilePicURL string `json:"profilePicUrl"`
	ParentID      string `json:"-"`
}

// ChatMessagesFromLogs flattens chat logs into analysable messages, user text
// before bot text, skipping empty sides.
func ChatMessagesFromLogs(logs []ChatLog) []ChatMessage {
	msgs := make([]ChatMessage, 0, len(logs)*2)
	for _, l := range logs {
		if l.UserMessage != "" {
			msgs = append(msgs, ChatMessage{Message: l.UserMessage})
		}
		if l.BotResponse != "" {
			msgs = append(msgs, ChatMessage{Message: l.BotResponse})
		}
	}
	return msgs
}

// MergeEntries concatenates the entries of several quiz results in order.
func MergeEntries(results []QuizResult) []QuizEntry {
	var entries []QuizEntry
	for _, r := range results {
		entries = append(entries, r.Entries...)
	}
	return entries
}

// Latest returns the most recently taken quiz result.
func Latest(results []QuizResult) (QuizResult, bool) {
	if len(results) == 0 {
		return QuizResult{}, false
	}
	latest := results[0]
	for _, r := range results[1:] {
		if r.TakenAt.After(latest.TakenAt) {
			latest = r
		}
	}
	return latest, true
}
