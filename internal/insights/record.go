package insights

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/p-n-ai/pai-insights/internal/analytics"
	"github.com/p-n-ai/pai-insights/internal/memory"
	"github.com/p-n-ai/pai-insights/internal/store"
	"github.com/p-n-ai/pai-insights/internal/student"
)

// RecordQuiz folds raw per-question answers into per-subject entries and
// stores them as one quiz result taken now.
func (s *Service) RecordQuiz(ctx context.Context, studentID string, answers map[string]student.Answer) (student.QuizResult, error) {
	if studentID == "" || len(answers) == 0 {
		return student.QuizResult{}, fmt.Errorf("%w: quiz answers are required", ErrInvalidInput)
	}
	if _, err := s.store.Student(ctx, studentID); err != nil {
		return student.QuizResult{}, fmt.Errorf("find student %s: %w", studentID, err)
	}

	entries := student.AggregateAnswers(answers)
	r, err := s.store.AddQuizResult(ctx, student.QuizResult{
		StudentID: studentID,
		Entries:   entries,
		TakenAt:   s.now().UTC(),
	})
	if err != nil {
		return student.QuizResult{}, fmt.Errorf("store quiz result: %w", err)
	}

	s.logEvent(ctx, studentID, store.EventQuizRecorded, map[string]any{
		"quiz_id":  r.ID,
		"subjects": len(entries),
		"accuracy": analytics.QuizAccuracy(entries),
	})
	return r, nil
}

// RecordChat stores a batch of chat exchanges for a student. Exchanges with
// neither side set are rejected.
func (s *Service) RecordChat(ctx context.Context, studentID string, logs []student.ChatLog) error {
	if studentID == "" || len(logs) == 0 {
		return fmt.Errorf("%w: chat messages are required", ErrInvalidInput)
	}
	for i, l := range logs {
		if strings.TrimSpace(l.UserMessage) == "" && strings.TrimSpace(l.BotResponse) == "" {
			return fmt.Errorf("%w: chat message %d is empty", ErrInvalidInput, i)
		}
	}
	if _, err := s.store.Student(ctx, studentID); err != nil {
		return fmt.Errorf("find student %s: %w", studentID, err)
	}

	now := s.now().UTC()
	for _, l := range logs {
		l.StudentID = studentID
		if l.SentAt.IsZero() {
			l.SentAt = now
		}
		if err := s.store.AddChatLog(ctx, l); err != nil {
			return fmt.Errorf("store chat log: %w", err)
		}
	}

	s.logEvent(ctx, studentID, store.EventChatRecorded, map[string]any{"messages": len(logs)})
	return nil
}

// RecordActivity stores a logged activity for a student.
func (s *Service) RecordActivity(ctx context.Context, studentID string, a student.Activity) (student.Activity, error) {
	if strings.TrimSpace(a.Title) == "" || strings.TrimSpace(a.Category) == "" || a.TimeSpent < 0 {
		return student.Activity{}, fmt.Errorf("%w: activity needs a title, a category and non-negative minutes", ErrInvalidInput)
	}
	if _, err := s.store.Student(ctx, studentID); err != nil {
		return student.Activity{}, fmt.Errorf("find student %s: %w", studentID, err)
	}
	a.StudentID = studentID
	a.Category = strings.ToLower(strings.TrimSpace(a.Category))
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now().UTC()
	}
	saved, err := s.store.AddActivity(ctx, a)
	if err != nil {
		return student.Activity{}, fmt.Errorf("store activity: %w", err)
	}
	return saved, nil
}

// RecordGoal stores a goal for a student. An empty status means in progress.
func (s *Service) RecordGoal(ctx context.Context, studentID string, g student.Goal) (student.Goal, error) {
	if strings.TrimSpace(g.Title) == "" {
		return student.Goal{}, fmt.Errorf("%w: goal title is required", ErrInvalidInput)
	}
	if _, err := s.store.Student(ctx, studentID); err != nil {
		return student.Goal{}, fmt.Errorf("find student %s: %w", studentID, err)
	}
	g.StudentID = studentID
	if g.Status == "" {
		g.Status = student.GoalInProgress
	}
	saved, err := s.store.AddGoal(ctx, g)
	if err != nil {
		return student.Goal{}, fmt.Errorf("store goal: %w", err)
	}
	return saved, nil
}

// RecordMood stores a mood check-in for a student.
func (s *Service) RecordMood(ctx context.Context, studentID, mood string) error {
	mood = strings.TrimSpace(mood)
	if mood == "" {
		return fmt.Errorf("%w: mood is required", ErrInvalidInput)
	}
	if _, err := s.store.Student(ctx, studentID); err != nil {
		return fmt.Errorf("find student %s: %w", studentID, err)
	}
	if err := s.store.AddMoodLog(ctx, student.MoodLog{StudentID: studentID, Mood: mood, LoggedAt: s.now().UTC()}); err != nil {
		return fmt.Errorf("store mood: %w", err)
	}
	return nil
}

// CreateAssignment stores a class assignment for a grade and section.
func (s *Service) CreateAssignment(ctx context.Context, a student.Assignment) (student.Assignment, error) {
	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" || a.Grade == "" || a.Section == "" || a.DueDate.IsZero() {
		return student.Assignment{}, fmt.Errorf("%w: assignment needs a title, grade, section and due date", ErrInvalidInput)
	}
	saved, err := s.store.AddAssignment(ctx, a)
	if err != nil {
		return student.Assignment{}, fmt.Errorf("store assignment: %w", err)
	}
	return saved, nil
}

// Assignments lists the assignments of a grade and section by due date.
func (s *Service) Assignments(ctx context.Context, grade, section string) ([]student.Assignment, error) {
	as, err := s.store.Assignments(ctx, grade, section)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return as, nil
}

// ChatRequest is one turn with the assistant.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Persona   string `json:"persona"`
	Prompt    string `json:"prompt"`
	StudentID string `json:"student_id,omitempty"`
}

// Chat runs one assistant turn in the request's session. An empty persona
// uses the default prompt and an unknown one is rejected. When the turn
// belongs to a student and the assistant answered, the exchange is stored
// as a chat log so later analysis sees it.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (memory.Reply, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return memory.Reply{}, fmt.Errorf("%w: no prompt provided", ErrInvalidInput)
	}
	if req.SessionID == "" {
		req.SessionID = req.StudentID
	}
	if req.SessionID == "" {
		return memory.Reply{}, fmt.Errorf("%w: session_id is required", ErrInvalidInput)
	}
	req.Persona = strings.ToLower(strings.TrimSpace(req.Persona))
	if req.Persona != "" && !memory.ValidPersona(req.Persona) {
		return memory.Reply{}, fmt.Errorf("%w: unknown persona %q", ErrInvalidInput, req.Persona)
	}
	if s.sessions == nil {
		return memory.Reply{Text: memory.FallbackReply, Fallback: true}, nil
	}

	// A session keeps the persona it started with, so each persona gets its own.
	key := req.Persona + ":" + req.SessionID
	reply := s.sessions.Chat(ctx, key, req.Persona, req.Prompt)
	if req.StudentID == "" || reply.Fallback {
		return reply, nil
	}

	err := s.store.AddChatLog(ctx, student.ChatLog{
		StudentID:   req.StudentID,
		UserMessage: req.Prompt,
		BotResponse: reply.Text,
		SentAt:      s.now().UTC(),
	})
	if err != nil {
		slog.Warn("failed to store chat exchange", "student_id", req.StudentID, "error", err)
	}
	return reply, nil
}
