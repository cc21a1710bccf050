package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-insights/internal/notify"
	"github.com/p-n-ai/pai-insights/internal/student"
)

// MemoryStore is an in-memory Repository for tests and local runs.
type MemoryStore struct {
	mu            sync.RWMutex
	students      map[string]student.Info
	order         []string
	quizzes       []student.QuizResult
	chats         []student.ChatLog
	activities    []student.Activity
	goals         []student.Goal
	moods         []student.MoodLog
	assignments   []student.Assignment
	notifications []notify.Notification
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{students: make(map[string]student.Info)}
}

func (s *MemoryStore) SaveStudent(_ context.Context, info student.Info) error {
	if info.ID == "" {
		return fmt.Errorf("student id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[info.ID]; !ok {
		s.order = append(s.order, info.ID)
	}
	s.students[info.ID] = info
	return nil
}

func (s *MemoryStore) Student(_ context.Context, id string) (student.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.students[id]
	if !ok {
		return student.Info{}, fmt.Errorf("student %s: %w", id, ErrNotFound)
	}
	return info, nil
}

func (s *MemoryStore) Students(_ context.Context, f Filter) ([]student.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []student.Info{}
	for _, id := range s.order {
		if info := s.students[id]; f.Matches(info) {
			out = append(out, info)
		}
	}
	return out, nil
}

func (s *MemoryStore) ChildOf(_ context.Context, parentID string) (student.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if info := s.students[id]; parentID != "" && info.ParentID == parentID {
			return info, nil
		}
	}
	return student.Info{}, fmt.Errorf("child of parent %s: %w", parentID, ErrNotFound)
}

func (s *MemoryStore) ParentIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, id := range s.order {
		if p := s.students[id].ParentID; p != "" && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) AddQuizResult(_ context.Context, r student.QuizResult) (student.QuizResult, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.TakenAt.IsZero() {
		r.TakenAt = time.Now()
	}
	s.mu.Lock()
	s.quizzes = append(s.quizzes, r)
	s.mu.Unlock()
	return r, nil
}

func (s *MemoryStore) QuizResults(_ context.Context, studentID string) ([]student.QuizResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedBy(filterBy(s.quizzes, func(r student.QuizResult) bool { return r.StudentID == studentID }),
		func(r student.QuizResult) time.Time { return r.TakenAt }), nil
}

func (s *MemoryStore) AllQuizResults(_ context.Context) ([]student.QuizResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedBy(slices.Clone(s.quizzes), func(r student.QuizResult) time.Time { return r.TakenAt }), nil
}

func (s *MemoryStore) AddChatLog(_ context.Context, l student.ChatLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.SentAt.IsZero() {
		l.SentAt = time.Now()
	}
	s.mu.Lock()
	s.chats = append(s.chats, l)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ChatLogs(_ context.Context, studentID string) ([]student.ChatLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterBy(s.chats, func(l student.ChatLog) bool { return l.StudentID == studentID }), nil
}

func (s *MemoryStore) AddActivity(_ context.Context, a student.Activity) (student.Activity, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	s.mu.Lock()
	s.activities = append(s.activities, a)
	s.mu.Unlock()
	return a, nil
}

func (s *MemoryStore) Activities(_ context.Context, studentID string) ([]student.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedBy(filterBy(s.activities, func(a student.Activity) bool { return a.StudentID == studentID }),
		func(a student.Activity) time.Time { return a.CreatedAt }), nil
}

func (s *MemoryStore) AddGoal(_ context.Context, g student.Goal) (student.Goal, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Status == "" {
		g.Status = student.GoalInProgress
	}
	s.mu.Lock()
	s.goals = append(s.goals, g)
	s.mu.Unlock()
	return g, nil
}

func (s *MemoryStore) Goals(_ context.Context, studentID string) ([]student.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterBy(s.goals, func(g student.Goal) bool { return g.StudentID == studentID }), nil
}

func (s *MemoryStore) AddMoodLog(_ context.Context, m student.MoodLog) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.LoggedAt.IsZero() {
		m.LoggedAt = time.Now()
	}
	s.mu.Lock()
	s.moods = append(s.moods, m)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) MoodLogs(_ context.Context, studentID string) ([]student.MoodLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedBy(filterBy(s.moods, func(m student.MoodLog) bool { return m.StudentID == studentID }),
		func(m student.MoodLog) time.Time { return m.LoggedAt }), nil
}

func (s *MemoryStore) AddAssignment(_ context.Context, a student.Assignment) (student.Assignment, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.mu.Lock()
	s.assignments = append(s.assignments, a)
	s.mu.Unlock()
	return a, nil
}

func (s *MemoryStore) Assignments(_ context.Context, grade, section string) ([]student.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedBy(filterBy(s.assignments, func(a student.Assignment) bool {
		return a.Grade == grade && a.Section == section
	}), func(a student.Assignment) time.Time { return a.DueDate }), nil
}

func (s *MemoryStore) AddNotification(_ context.Context, n notify.Notification) error {
	if n.ID == "" {
		return fmt.Errorf("notification id is required")
	}
	s.mu.Lock()
	s.notifications = append(s.notifications, n)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Notifications(_ context.Context, parentID string, limit int) ([]notify.Notification, error) {
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := filterBy(s.notifications, func(n notify.Notification) bool { return n.ParentID == parentID })
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b notify.Notification) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) MarkNotificationRead(_ context.Context, parentID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notifications {
		if n.ID == id && n.ParentID == parentID {
			s.notifications[i].Read = true
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, ErrNotFound)
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func filterBy[T any](items []T, keep func(T) bool) []T {
	out := []T{}
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func sortedBy[T any](items []T, at func(T) time.Time) []T {
	slices.SortStableFunc(items, func(a, b T) int { return cmp.Compare(at(a).UnixNano(), at(b).UnixNano()) })
	return items
}
