package insights_test

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/p-n-ai/pai-insights/internal/analytics"
	"github.com/p-n-ai/pai-insights/internal/insights"
	"github.com/p-n-ai/pai-insights/internal/notify"
	"github.com/p-n-ai/pai-insights/internal/store"
	"github.com/p-n-ai/pai-insights/internal/student"
)

func TestParentProgress_Weekly(t *testing.T) {
	f := newFixture(t, nil)

	got, err := f.svc.ParentProgress(t.Context(), "p1", analytics.PeriodWeekly)
	if err != nil {
		t.Fatalf("ParentProgress() error = %v", err)
	}

	want := insights.Scores{Academic: 60, Creative: 0, Sports: 0.6}
	if got.Summary != want {
		t.Errorf("Summary = %+v, want %+v", got.Summary, want)
	}
	if len(got.Trend) != 2 || got.Trend[0].Label != "Week 10" || got.Trend[1].Sports != 0.6 {
		t.Errorf("Trend = %+v", got.Trend)
	}
	if got.Insight != "Academic growth is strongest. Encourage creative or physical balance." {
		t.Errorf("Insight = %q", got.Insight)
	}
}

func TestParentProgress_UnknownParent(t *testing.T) {
	f := newFixture(t, nil)

	if _, err := f.svc.ParentProgress(t.Context(), "p9", analytics.PeriodWeekly); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestParentRecommendations(t *testing.T) {
	f := newFixture(t, nil)

	got, err := f.svc.ParentRecommendations(t.Context(), "p1")
	if err != nil {
		t.Fatalf("ParentRecommendations() error = %v", err)
	}
	if got.Summary.Academic != 40 {
		t.Errorf("monthly academic = %v, want 40", got.Summary.Academic)
	}

	var types []string
	for _, r := range got.Recommendations {
		types = append(types, r.Type)
	}
	if want := []string{"academic", "sports"}; !slices.Equal(types, want) {
		t.Errorf("recommendation types = %v, want %v", types, want)
	}
}

func TestParentReport_Weekly(t *testing.T) {
	f := newFixture(t, nil)
	ctx := t.Context()

	for _, a := range []student.Assignment{
		{Title: "Essay", Grade: "9", Section: "A", DueDate: now.AddDate(0, 0, 3), Completed: true},
		{Title: "Worksheet", Grade: "9", Section: "A", DueDate: now.AddDate(0, 0, -2)},
		{Title: "Other class", Grade: "10", Section: "B", DueDate: now},
	} {
		if _, err := f.store.AddAssignment(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	r, info, err := f.svc.ParentReport(ctx, "p1", analytics.PeriodWeekly)
	if err != nil {
		t.Fatalf("ParentReport() error = %v", err)
	}
	if info.ID != "s1" {
		t.Errorf("child = %q, want s1", info.ID)
	}
	// Only the quiz from the last seven days counts.
	if r.Academics.AverageScore != 60 {
		t.Errorf("AverageScore = %v, want 60", r.Academics.AverageScore)
	}
	want := analytics.Counts{Total: 2, Completed: 1, Pending: 1, Overdue: 1}
	if r.Academics.Assignments != want {
		t.Errorf("Assignments = %+v, want %+v", r.Academics.Assignments, want)
	}
	if r.ActivityPercent[student.CategorySports] != 100 {
		t.Errorf("ActivityPercent = %v", r.ActivityPercent)
	}
}

// dropFixture gives s2 a previous week at 90% and a current week at 50%,
// one overdue goal, and no activity.
func dropFixture(t *testing.T) fixture {
	t.Helper()
	f := newFixture(t, nil)
	ctx := t.Context()

	for _, q := range []student.QuizResult{
		{StudentID: "s2", TakenAt: now.AddDate(0, 0, -10), Entries: []student.QuizEntry{{Topic: "Math", Correct: 9, Total: 10}}},
		{StudentID: "s2", TakenAt: now.AddDate(0, 0, -2), Entries: []student.QuizEntry{{Topic: "Math", Correct: 5, Total: 10}}},
	} {
		if _, err := f.store.AddQuizResult(ctx, q); err != nil {
			t.Fatal(err)
		}
	}
	deadline := now.AddDate(0, 0, -1)
	if _, err := f.store.AddGoal(ctx, student.Goal{StudentID: "s2", Title: "Read a book", Status: student.GoalInProgress, Deadline: &deadline}); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestGenerateParentNotifications(t *testing.T) {
	f := dropFixture(t)

	created, err := f.svc.GenerateParentNotifications(t.Context(), "p2")
	if err != nil {
		t.Fatalf("GenerateParentNotifications() error = %v", err)
	}

	var messages []string
	for _, n := range created {
		messages = append(messages, n.Message)
		if n.StudentID != "s2" || n.ParentID != "p2" || !n.CreatedAt.Equal(now) {
			t.Errorf("notification = %+v", n)
		}
	}
	want := []string{
		"Weekly quiz performance dropped from 90% to 50%.",
		"1 goals were missed this week.",
		"No sports activity logged in the past 7 days.",
		"No art activity logged in the past 7 days.",
	}
	if !slices.Equal(messages, want) {
		t.Errorf("messages = %v, want %v", messages, want)
	}

	if len(f.push.sent) != 4 {
		t.Errorf("pushed %d notifications, want 4", len(f.push.sent))
	}
	if n := eventCount(f.events, store.EventNotificationCreated); n != 4 {
		t.Errorf("notification events = %d, want 4", n)
	}

	listed, err := f.svc.Notifications(t.Context(), "p2")
	if err != nil {
		t.Fatalf("Notifications() error = %v", err)
	}
	if len(listed) != 4 {
		t.Errorf("listed %d notifications, want 4", len(listed))
	}
}

func TestGenerateParentNotifications_SkipsUnreadDuplicates(t *testing.T) {
	f := dropFixture(t)
	ctx := t.Context()

	first, err := f.svc.GenerateParentNotifications(ctx, "p2")
	if err != nil {
		t.Fatal(err)
	}

	again, err := f.svc.GenerateParentNotifications(ctx, "p2")
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 0 {
		t.Errorf("second sweep created %d notifications, want 0", len(again))
	}

	var goals notify.Notification
	for _, n := range first {
		if n.Type == notify.TypeGoals {
			goals = n
		}
	}
	if err := f.svc.MarkNotificationRead(ctx, "p2", goals.ID); err != nil {
		t.Fatalf("MarkNotificationRead() error = %v", err)
	}

	third, err := f.svc.GenerateParentNotifications(ctx, "p2")
	if err != nil {
		t.Fatal(err)
	}
	if len(third) != 1 || third[0].Type != notify.TypeGoals {
		t.Errorf("after reading the goals alert got %+v, want it raised again", third)
	}
}

func TestGenerateParentNotifications_NoChild(t *testing.T) {
	f := newFixture(t, nil)

	got, err := f.svc.GenerateParentNotifications(t.Context(), "p9")
	if err != nil || got != nil {
		t.Errorf("GenerateParentNotifications(p9) = %v, %v; want nothing", got, err)
	}
}

func TestMarkNotificationRead_OtherParent(t *testing.T) {
	f := dropFixture(t)
	ctx := t.Context()

	created, err := f.svc.GenerateParentNotifications(ctx, "p2")
	if err != nil || len(created) == 0 {
		t.Fatalf("setup: %v, %d notifications", err, len(created))
	}
	if err := f.svc.MarkNotificationRead(ctx, "p1", created[0].ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestJobSweepsEveryParent(t *testing.T) {
	f := dropFixture(t)

	n, err := notify.NewJob(f.svc, time.Hour).RunOnce(t.Context())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	// p1's child has no drop, no goals and recent sports: only the art alert.
	if n != 5 {
		t.Errorf("RunOnce() created %d, want 4 for p2 and 1 for p1", n)
	}
}
