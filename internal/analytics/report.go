package analytics

import (
	"math"
	"time"

	"github.com/p-n-ai/pai-insights/internal/student"
)

// ReportInput is the raw data behind a parent report. Quizzes and
// activities are windowed by the report itself.
type ReportInput struct {
	Period      Period
	Now         time.Time
	Quizzes     []student.QuizResult
	Activities  []student.Activity
	Goals       []student.Goal
	Assignments []student.Assignment
	Messages    []student.ChatMessage
}

// Counts tallies a set of tracked items.
type Counts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
}

// Academics is the academic section of a parent report.
type Academics struct {
	AverageScore float64         `json:"averageScore"`
	Subjects     []TopicAccuracy `json:"subjects"`
	Assignments  Counts          `json:"assignments"`
}

// MoodSummary is the emotional section of a parent report.
type MoodSummary struct {
	RiskLevel string `json:"riskLevel"`
	RiskScore int    `json:"risk_score"`
}

// Report is the periodic summary sent to a parent.
type Report struct {
	Period          Period             `json:"period"`
	From            time.Time          `json:"from"`
	To              time.Time          `json:"to"`
	Academics       Academics          `json:"academics"`
	Goals           Counts             `json:"goals"`
	ActivityPercent map[string]int     `json:"activity_percent"`
	Activities      []student.Activity `json:"activities"`
	Mood            MoodSummary        `json:"mood"`
}

// ReportWindow returns the start of the report window ending at now: seven
// days for weekly reports and thirty otherwise.
func ReportWindow(p Period, now time.Time) time.Time {
	days := 30
	if p == PeriodWeekly {
		days = 7
	}
	return now.AddDate(0, 0, -days)
}

// ParentReport builds the report for one student. Assignments are counted
// overdue only while they are not completed.
func (a *Analyzer) ParentReport(in ReportInput) Report {
	from := ReportWindow(in.Period, in.Now)

	var entries []student.QuizEntry
	for _, q := range in.Quizzes {
		if !q.TakenAt.Before(from) {
			entries = append(entries, q.Entries...)
		}
	}
	quiz := a.AnalyzeQuiz(entries)

	var assignments Counts
	assignments.Total = len(in.Assignments)
	for _, as := range in.Assignments {
		if as.Completed {
			assignments.Completed++
		} else if as.DueDate.Before(in.Now) {
			assignments.Overdue++
		}
	}
	assignments.Pending = assignments.Total - assignments.Completed

	var goals Counts
	goals.Total = len(in.Goals)
	for _, g := range in.Goals {
		if g.Status == student.GoalCompleted {
			goals.Completed++
		}
		if g.Overdue(in.Now) {
			goals.Overdue++
		}
	}
	goals.Pending = goals.Total - goals.Completed

	activities := []student.Activity{}
	split := map[string]int{}
	total := 0
	for _, act := range in.Activities {
		if act.CreatedAt.Before(from) {
			continue
		}
		activities = append(activities, act)
		split[act.Category] += act.TimeSpent
		total += act.TimeSpent
	}
	percent := make(map[string]int, len(split))
	for cat, minutes := range split {
		percent[cat] = int(math.RoundToEven(float64(minutes) / float64(max(total, 1)) * 100))
	}

	risk := EmotionalRisk(a.AnalyzeChat(in.Messages).SentimentScore)

	return Report{
		Period: in.Period,
		From:   from,
		To:     in.Now,
		Academics: Academics{
			AverageScore: quiz.OverallAccuracy,
			Subjects:     quiz.TopicAnalysis,
			Assignments:  assignments,
		},
		Goals:           goals,
		ActivityPercent: percent,
		Activities:      activities,
		Mood:            MoodSummary{RiskLevel: a.riskBand(risk), RiskScore: risk},
	}
}
