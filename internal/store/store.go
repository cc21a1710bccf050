// Package store persists the records the analytics read: students, quiz
// results, chat logs, activities, goals, mood logs, assignments, and parent
// notifications.
package store

import (
	"context"
	"errors"

	"github.com/p-n-ai/pai-insights/internal/notify"
	"github.com/p-n-ai/pai-insights/internal/student"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// DefaultNotificationLimit caps a notification listing.
const DefaultNotificationLimit = 50

// Filter narrows a student listing. Empty fields match everything.
type Filter struct {
	Grade   string
	Section string
	School  string
}

// Matches reports whether info passes the filter.
func (f Filter) Matches(info student.Info) bool {
	return (f.Grade == "" || f.Grade == info.Grade) &&
		(f.Section == "" || f.Section == info.Section) &&
		(f.School == "" || f.School == info.School)
}

// Repository is the persistence boundary of the service. Lists are returned
// oldest first unless noted.
type Repository interface {
	SaveStudent(ctx context.Context, info student.Info) error
	Student(ctx context.Context, id string) (student.Info, error)
	Students(ctx context.Context, f Filter) ([]student.Info, error)
	ChildOf(ctx context.Context, parentID string) (student.Info, error)
	ParentIDs(ctx context.Context) ([]string, error)

	AddQuizResult(ctx context.Context, r student.QuizResult) (student.QuizResult, error)
	QuizResults(ctx context.Context, studentID string) ([]student.QuizResult, error)
	AllQuizResults(ctx context.Context) ([]student.QuizResult, error)

	AddChatLog(ctx context.Context, l student.ChatLog) error
	ChatLogs(ctx context.Context, studentID string) ([]student.ChatLog, error)

	AddActivity(ctx context.Context, a student.Activity) (student.Activity, error)
	Activities(ctx context.Context, studentID string) ([]student.Activity, error)

	AddGoal(ctx context.Context, g student.Goal) (student.Goal, error)
	Goals(ctx context.Context, studentID string) ([]student.Goal, error)

	AddMoodLog(ctx context.Context, m student.MoodLog) error
	MoodLogs(ctx context.Context, studentID string) ([]student.MoodLog, error)

	AddAssignment(ctx context.Context, a student.Assignment) (student.Assignment, error)
	Assignments(ctx context.Context, grade, section string) ([]student.Assignment, error)

	AddNotification(ctx context.Context, n notify.Notification) error
	// Notifications returns a parent's notifications newest first.
	Notifications(ctx context.Context, parentID string, limit int) ([]notify.Notification, error)
	MarkNotificationRead(ctx context.Context, parentID, id string) error

	Ping(ctx context.Context) error
}
