package analytics_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/p-n-ai/pai-insights/internal/analytics"
	"github.com/p-n-ai/pai-insights/internal/student"
)

func TestParentReport(t *testing.T) {
	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -3)
	future := now.AddDate(0, 0, 3)

	in := analytics.ReportInput{
		Period: analytics.PeriodWeekly,
		Now:    now,
		Quizzes: []student.QuizResult{
			{TakenAt: now.AddDate(0, 0, -1), Entries: []student.QuizEntry{{Topic: "Math", Correct: 8, Total: 10}}},
			{TakenAt: now.AddDate(0, 0, -2), Entries: []student.QuizEntry{{Topic: "Sci", Correct: 2, Total: 10}}},
			{TakenAt: now.AddDate(0, 0, -20), Entries: []student.QuizEntry{{Topic: "Art", Correct: 0, Total: 10}}},
		},
		Activities: []student.Activity{
			{Category: student.CategorySports, TimeSpent: 90, CreatedAt: now.AddDate(0, 0, -1)},
			{Category: student.CategoryArt, TimeSpent: 30, CreatedAt: now.AddDate(0, 0, -2)},
			{Category: student.CategoryArt, TimeSpent: 500, CreatedAt: now.AddDate(0, 0, -12)},
		},
		Goals: []student.Goal{
			{Status: student.GoalCompleted, Deadline: &past},
			{Status: student.GoalInProgress, Deadline: &past},
			{Status: student.GoalInProgress, Deadline: &future},
			{Status: student.GoalInProgress},
		},
		Assignments: []student.Assignment{
			{Completed: true, DueDate: past},
			{DueDate: past},
			{DueDate: future},
		},
	}

	r := newAnalyzer().ParentReport(in)

	if r.Academics.AverageScore != 50 {
		t.Errorf("AverageScore = %v, want 50", r.Academics.AverageScore)
	}
	if len(r.Academics.Subjects) != 2 {
		t.Errorf("Subjects = %+v, want the two quizzes inside the window", r.Academics.Subjects)
	}
	wantAssignments := analytics.Counts{Total: 3, Completed: 1, Pending: 2, Overdue: 1}
	if r.Academics.Assignments != wantAssignments {
		t.Errorf("Assignments = %+v, want %+v", r.Academics.Assignments, wantAssignments)
	}
	wantGoals := analytics.Counts{Total: 4, Completed: 1, Pending: 3, Overdue: 1}
	if r.Goals != wantGoals {
		t.Errorf("Goals = %+v, want %+v", r.Goals, wantGoals)
	}
	wantSplit := map[string]int{"sports": 75, "art": 25}
	if !reflect.DeepEqual(r.ActivityPercent, wantSplit) {
		t.Errorf("ActivityPercent = %v, want %v", r.ActivityPercent, wantSplit)
	}
	if len(r.Activities) != 2 {
		t.Errorf("Activities = %d, want 2", len(r.Activities))
	}
	if r.Mood.RiskScore != 50 || r.Mood.RiskLevel != analytics.RiskMedium {
		t.Errorf("Mood = %+v, want neutral chat to be medium risk", r.Mood)
	}
	if !r.From.Equal(now.AddDate(0, 0, -7)) {
		t.Errorf("From = %v", r.From)
	}
}

func TestParentReport_Empty(t *testing.T) {
	r := newAnalyzer().ParentReport(analytics.ReportInput{Period: analytics.PeriodMonthly, Now: time.Now()})

	if r.Academics.AverageScore != 0 || len(r.ActivityPercent) != 0 {
		t.Errorf("report = %+v, want zero values", r)
	}
	if r.Activities == nil {
		t.Error("Activities should be empty, not nil")
	}
}

func TestParentReport_ActivitySplitRoundsHalfToEven(t *testing.T) {
	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	r := newAnalyzer().ParentReport(analytics.ReportInput{
		Period: analytics.PeriodWeekly,
		Now:    now,
		Activities: []student.Activity{
			{Category: student.CategorySports, TimeSpent: 10, CreatedAt: now.AddDate(0, 0, -1)},
			{Category: student.CategoryArt, TimeSpent: 70, CreatedAt: now.AddDate(0, 0, -1)},
		},
	})

	// 12.5 and 87.5 percent.
	want := map[string]int{"sports": 12, "art": 88}
	if !reflect.DeepEqual(r.ActivityPercent, want) {
		t.Errorf("ActivityPercent = %v, want %v", r.ActivityPercent, want)
	}
}
