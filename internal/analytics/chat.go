package analytics

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/p-n-ai/pai-insights/internal/student"
)

// ChatAnalysis captures engagement signals from chat history.
type ChatAnalysis struct {
	SentimentScore float64 `json:"sentiment_score"`
	CuriosityLevel int     `json:"curiosity_level"`
	HelpRequests   int     `json:"help_requests"`
}

var (
	curiosityMarkers = []string{"why", "how", "can you explain"}
	helpMarkers      = []string{"i don't understand", "help", "confused"}
)

// AnalyzeChat counts curiosity and help-seeking messages and averages the
// per-message sentiment. Each message counts at most once per signal.
// Blank messages are skipped.
func (a *Analyzer) AnalyzeChat(messages []student.ChatMessage) ChatAnalysis {
	fold := cases.Fold()

	var res ChatAnalysis
	var polarities []float64
	for _, m := range messages {
		if strings.TrimSpace(m.Message) == "" {
			continue
		}
		text := foldMessage(fold, m.Message)

		if containsAny(text, curiosityMarkers) {
			res.CuriosityLevel++
		}
		if containsAny(text, helpMarkers) {
			res.HelpRequests++
		}
		polarities = append(polarities, a.scorer.Polarity(m.Message))
	}

	if len(polarities) > 0 {
		res.SentimentScore = round2(mean(polarities))
	}
	return res
}

// foldMessage case-folds text and maps typographic apostrophes to ASCII so
// "I Don’t Understand" matches "i don't understand".
func foldMessage(fold cases.Caser, s string) string {
	s = norm.NFKC.String(s)
	s = strings.NewReplacer("’", "'", "‘", "'").Replace(s)
	return fold.String(s)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
