// Package notify detects situations a parent or teacher should hear about
// and pushes parent alerts to connected clients over websocket.
package notify

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-insights/internal/analytics"
	"github.com/p-n-ai/pai-insights/internal/student"
)

// Alert types.
const (
	TypeAcademic  = "academic"
	TypeGoals     = "goals"
	TypeWellbeing = "wellbeing"
)

// Alert severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert is the output of a single rule.
type Alert struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Notification is an alert addressed to a parent about one student.
type Notification struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"-"`
	StudentID string    `json:"student_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// NewNotification addresses an alert to a parent.
func NewNotification(parentID, studentID string, a Alert, now time.Time) Notification {
	return Notification{
		ID:        uuid.NewString(),
		ParentID:  parentID,
		StudentID: studentID,
		Type:      a.Type,
		Title:     a.Title,
		Message:   a.Message,
		Severity:  a.Severity,
		CreatedAt: now,
	}
}

// Rules holds the notification thresholds.
type Rules struct {
	DropBaseline float64
	DropMargin   float64
	InactiveDays int
	Categories   []string
}

// NewRules takes the notification thresholds from th and watches sports
// and art activity.
func NewRules(th analytics.Thresholds) Rules {
	return Rules{
		DropBaseline: th.DropBaseline,
		DropMargin:   th.DropMargin,
		InactiveDays: th.InactiveDays,
		Categories:   []string{student.CategorySports, student.CategoryArt},
	}
}

// AcademicDrop fires when the previous week was at or above the baseline
// and the current week fell more than the margin below it.
func (r Rules) AcademicDrop(prev, curr float64) (Alert, bool) {
	if prev < r.DropBaseline || curr >= prev-r.DropMargin {
		return Alert{}, false
	}
	return Alert{
		Type:     TypeAcademic,
		Title:    "Academic performance dropped",
		Message:  fmt.Sprintf("Weekly quiz performance dropped from %s%% to %s%%.", formatScore(prev), formatScore(curr)),
		Severity: SeverityWarning,
	}, true
}

// MissedGoals fires when any goal is open and past its deadline.
func (r Rules) MissedGoals(goals []student.Goal, now time.Time) (Alert, bool) {
	overdue := 0
	for _, g := range goals {
		if g.Overdue(now) {
			overdue++
		}
	}
	if overdue == 0 {
		return Alert{}, false
	}
	return Alert{
		Type:     TypeGoals,
		Title:    "Missed learning goals",
		Message:  fmt.Sprintf("%d goals were missed this week.", overdue),
		Severity: SeverityCritical,
	}, true
}

// Inactivity fires when no activity of category was logged in the trailing
// window of InactiveDays days.
func (r Rules) Inactivity(activities []student.Activity, category string, now time.Time) (Alert, bool) {
	days := r.InactiveDays
	if days <= 0 {
		days = 7
	}
	since := now.AddDate(0, 0, -days)
	for _, a := range activities {
		if a.Category == category && a.CreatedAt.After(since) {
			return Alert{}, false
		}
	}
	return Alert{
		Type:     TypeWellbeing,
		Title:    fmt.Sprintf("Low %s activity", category),
		Message:  fmt.Sprintf("No %s activity logged in the past %d days.", category, days),
		Severity: SeverityInfo,
	}, true
}

// History is what the rules look at for one student.
type History struct {
	Quizzes    []student.QuizResult
	Goals      []student.Goal
	Activities []student.Activity
}

// Evaluate runs every rule against one student's history. The academic drop
// rule only runs when both of the last two weeks have quizzes.
func (r Rules) Evaluate(h History, now time.Time) []Alert {
	var alerts []Alert
	if prev, curr, ok := analytics.WeeklyDelta(h.Quizzes, now); ok {
		if a, ok := r.AcademicDrop(prev, curr); ok {
			alerts = append(alerts, a)
		}
	}
	if a, ok := r.MissedGoals(h.Goals, now); ok {
		alerts = append(alerts, a)
	}
	for _, c := range r.Categories {
		if a, ok := r.Inactivity(h.Activities, c, now); ok {
			alerts = append(alerts, a)
		}
	}
	return alerts
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
