package analytics_test

import (
	"math"
	"testing"

	"github.com/p-n-ai/pai-insights/internal/analytics"
	"github.com/p-n-ai/pai-insights/internal/student"
)

type fixedScorer map[string]float64

func (f fixedScorer) Polarity(text string) float64 { return f[text] }

func messages(texts ...string) []student.ChatMessage {
	out := make([]student.ChatMessage, len(texts))
	for i, s := range texts {
		out[i] = student.ChatMessage{Message: s}
	}
	return out
}

func TestAnalyzeChat_Markers(t *testing.T) {
	tests := []struct {
		name      string
		msgs      []string
		curiosity int
		help      int
	}{
		{"one of each", []string{"why does gravity work?", "I am confused, help"}, 1, 1},
		{"multiple markers count once", []string{"why and how? can you explain"}, 1, 0},
		{"case insensitive", []string{"WHY is the sky blue", "HELP"}, 1, 1},
		{"curly apostrophe", []string{"I don’t understand fractions"}, 0, 1},
		{"both signals in one message", []string{"how do I do this, I'm confused"}, 1, 1},
		{"neither", []string{"the answer is 42"}, 0, 0},
		{"blank skipped", []string{"", "   "}, 0, 0},
	}

	a := newAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.AnalyzeChat(messages(tt.msgs...))
			if got.CuriosityLevel != tt.curiosity {
				t.Errorf("CuriosityLevel = %d, want %d", got.CuriosityLevel, tt.curiosity)
			}
			if got.HelpRequests != tt.help {
				t.Errorf("HelpRequests = %d, want %d", got.HelpRequests, tt.help)
			}
		})
	}
}

func TestAnalyzeChat_Sentiment(t *testing.T) {
	scorer := fixedScorer{"a": 0.5, "b": -0.2, "c": 0.111}
	a := analytics.NewAnalyzer(analytics.DefaultThresholds(), scorer)

	got := a.AnalyzeChat(messages("a", "b", "c"))
	// (0.5 - 0.2 + 0.111) / 3 = 0.137
	if got.SentimentScore != 0.14 {
		t.Errorf("SentimentScore = %v, want 0.14", got.SentimentScore)
	}

	if got := a.AnalyzeChat(nil); got.SentimentScore != 0 {
		t.Errorf("empty SentimentScore = %v, want 0", got.SentimentScore)
	}
}

func TestVaderScorer(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"The book was good.", 0.4404},
		{"The book was only kind of good.", 0.3832},
		{"The plot was good, but the characters are uncompelling and the dialog is not great.", -0.7042},
		{"Sentiment analysis has never been good.", -0.3412},
		{"", 0},
		{"   ", 0},
	}

	s := analytics.NewVaderScorer()
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := s.Polarity(tt.text)
			if math.Abs(got-tt.want) > 1e-3 {
				t.Errorf("Polarity(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestAnalyzeChat_DefaultScorer(t *testing.T) {
	got := newAnalyzer().AnalyzeChat(messages("The book was good.", "Sentiment analysis has never been good."))
	// (0.4404 - 0.3412) / 2
	if got.SentimentScore != 0.05 {
		t.Errorf("SentimentScore = %v, want 0.05", got.SentimentScore)
	}
}
