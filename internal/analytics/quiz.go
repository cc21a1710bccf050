package analytics

import (
	"strconv"

	"github.com/p-n-ai/pai-insights/internal/student"
)

// TopicAccuracy is the accuracy of a single topic on a 0-100 scale.
type TopicAccuracy struct {
	Topic    string  `json:"topic"`
	Accuracy float64 `json:"accuracy"`
}

// QuizAnalysis summarizes accuracy across one or more quizzes.
type QuizAnalysis struct {
	OverallAccuracy float64         `json:"overall_accuracy"`
	TopicAnalysis   []TopicAccuracy `json:"topic_analysis"`
	WeakTopics      []string        `json:"weak_topics"`
	Message         string          `json:"message,omitempty"`
}

const noQuizMessage = "No quizzes available for analysis."

// Analyzer holds the thresholds and sentiment scorer shared by the analyzers.
type Analyzer struct {
	th     Thresholds
	scorer Scorer
}

// NewAnalyzer creates an Analyzer. A nil scorer selects VADER.
func NewAnalyzer(th Thresholds, scorer Scorer) *Analyzer {
	if scorer == nil {
		scorer = NewVaderScorer()
	}
	return &Analyzer{th: th, scorer: scorer}
}

// Thresholds returns the tuning this analyzer was built with.
func (a *Analyzer) Thresholds() Thresholds {
	return a.th
}

// AnalyzeQuiz computes per-topic and overall accuracy and flags weak topics.
// Entries are expected to be validated (see student.DecodeSummary); a topic
// with zero questions scores 0.
func (a *Analyzer) AnalyzeQuiz(entries []student.QuizEntry) QuizAnalysis {
	if len(entries) == 0 {
		return QuizAnalysis{
			TopicAnalysis: []TopicAccuracy{},
			WeakTopics:    []string{},
			Message:       noQuizMessage,
		}
	}

	res := QuizAnalysis{
		TopicAnalysis: make([]TopicAccuracy, 0, len(entries)),
		WeakTopics:    []string{},
	}

	var correct, total int
	for _, e := range entries {
		acc := percent(e.Correct, e.Total)
		res.TopicAnalysis = append(res.TopicAnalysis, TopicAccuracy{Topic: e.Topic, Accuracy: acc})
		if acc < a.th.WeakTopic {
			res.WeakTopics = append(res.WeakTopics, e.Topic)
		}
		correct += e.Correct
		total += e.Total
	}
	res.OverallAccuracy = percent(correct, total)

	return res
}

// QuizAccuracy is the overall accuracy of one quiz's entries.
func QuizAccuracy(entries []student.QuizEntry) float64 {
	var correct, total int
	for _, e := range entries {
		correct += e.Correct
		total += e.Total
	}
	return percent(correct, total)
}

func percent(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round2(float64(correct) / float64(total) * 100)
}

// round2 rounds to two decimals from the exact binary value, so ties such
// as 3.125 go to the even digit.
func round2(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}
