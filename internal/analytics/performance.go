package analytics

import (
	"slices"
	"time"

	"github.com/p-n-ai/pai-insights/internal/student"
)

// SubjectScore is the accuracy of one subject across many quizzes.
type SubjectScore struct {
	Subject      string  `json:"subject"`
	AverageScore float64 `json:"average_score"`
}

// SubjectPerformance sums correct and total per topic over every quiz and
// reports the pooled accuracy, in the order topics first appear.
func SubjectPerformance(quizzes []student.QuizResult) []SubjectScore {
	type tally struct{ correct, total int }
	var order []string
	totals := map[string]*tally{}
	for _, q := range quizzes {
		for _, e := range q.Entries {
			t, ok := totals[e.Topic]
			if !ok {
				t = &tally{}
				totals[e.Topic] = t
				order = append(order, e.Topic)
			}
			t.correct += e.Correct
			t.total += e.Total
		}
	}

	out := make([]SubjectScore, 0, len(order))
	for _, topic := range order {
		t := totals[topic]
		out = append(out, SubjectScore{Subject: topic, AverageScore: percent(t.correct, t.total)})
	}
	return out
}

// AverageQuizScore is the mean per-quiz accuracy, 0 without quizzes.
func AverageQuizScore(quizzes []student.QuizResult) float64 {
	if len(quizzes) == 0 {
		return 0
	}
	scores := make([]float64, len(quizzes))
	for i, q := range quizzes {
		scores[i] = QuizAccuracy(q.Entries)
	}
	return round2(mean(scores))
}

// History is the raw record set used to rate one student's risk.
type History struct {
	Quizzes []student.QuizResult
	Moods   []student.MoodLog
}

// StudentRisk rates a student from their mean quiz accuracy and escalates
// the rating one level when enough negative moods were logged. A student
// with no quizzes is high risk.
func (a *Analyzer) StudentRisk(h History) string {
	if len(h.Quizzes) == 0 {
		return RiskHigh
	}
	th := a.th

	var sum float64
	for _, q := range h.Quizzes {
		sum += QuizAccuracy(q.Entries)
	}
	avg := sum / float64(len(h.Quizzes))

	risk := RiskLow
	switch {
	case avg < th.AcademicRisk:
		risk = RiskHigh
	case avg < th.MediumAcademicRisk:
		risk = RiskMedium
	}

	negative := 0
	for _, m := range h.Moods {
		if slices.Contains(th.NegativeMoodNames, m.Mood) {
			negative++
		}
	}
	if negative >= th.NegativeMoodCount {
		switch risk {
		case RiskLow:
			risk = RiskMedium
		case RiskMedium:
			risk = RiskHigh
		}
	}
	return risk
}

// RiskDistribution counts students per risk level.
func (a *Analyzer) RiskDistribution(histories []History) []RiskCount {
	counts := map[string]int{}
	for _, h := range histories {
		counts[a.StudentRisk(h)]++
	}
	return []RiskCount{
		{Type: RiskLow, Value: counts[RiskLow]},
		{Type: RiskMedium, Value: counts[RiskMedium]},
		{Type: RiskHigh, Value: counts[RiskHigh]},
	}
}

const week = 7 * 24 * time.Hour

// WeeklyDelta averages quiz accuracy over the trailing week and the week
// before it. ok is false unless both weeks have quizzes.
func WeeklyDelta(quizzes []student.QuizResult, now time.Time) (prev, curr float64, ok bool) {
	startCurrent := now.Add(-week)
	startPrevious := now.Add(-2 * week)

	var prevScores, currScores []float64
	for _, q := range quizzes {
		acc := QuizAccuracy(q.Entries)
		switch {
		case !q.TakenAt.Before(startCurrent):
			currScores = append(currScores, acc)
		case !q.TakenAt.Before(startPrevious):
			prevScores = append(prevScores, acc)
		}
	}
	if len(prevScores) == 0 || len(currScores) == 0 {
		return 0, 0, false
	}
	return round2(mean(prevScores)), round2(mean(currScores)), true
}
