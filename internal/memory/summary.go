package memory

import (
	"context"
	"log/slog"
	"strings"

	"github.com/p-n-ai/pai-insights/internal/ai"
)

const (
	// DefaultSummarizeEvery is how many updates pass between summaries.
	DefaultSummarizeEvery = 10

	initialSummary = "The conversation just started."
)

// SummarizeFunc condenses a transcript into a short summary.
type SummarizeFunc func(ctx context.Context, transcript string) (string, error)

// ShouldSummarize reports whether update number count is a summary point.
func ShouldSummarize(count, every int) bool {
	return every > 0 && count > 0 && count%every == 0
}

// Summary is a single rolling summary refreshed every few updates.
type Summary struct {
	text      string
	count     int
	every     int
	summarize SummarizeFunc
}

// NewSummary creates a summary refreshed every `every` updates by fn.
// A nil fn keeps the initial placeholder forever.
func NewSummary(every int, fn SummarizeFunc) *Summary {
	if every <= 0 {
		every = DefaultSummarizeEvery
	}
	return &Summary{text: initialSummary, every: every, summarize: fn}
}

// Update counts one update and, at a summary point, replaces the summary
// with a condensed transcript. On failure the previous summary is kept.
func (s *Summary) Update(ctx context.Context, transcript string) {
	s.count++
	if !ShouldSummarize(s.count, s.every) || s.summarize == nil {
		return
	}

	text, err := s.summarize(ctx, transcript)
	if err != nil {
		slog.Warn("summary update failed, keeping previous summary", "error", err, "update", s.count)
		return
	}
	if text = strings.TrimSpace(text); text != "" {
		s.text = text
	}
}

// Text returns the current summary.
func (s *Summary) Text() string { return s.text }

// Count returns the number of updates seen.
func (s *Summary) Count() int { return s.count }

// Context renders the summary for a prompt.
func (s *Summary) Context() string {
	return "Conversation summary: " + s.text
}

const summarizePrompt = `Summarize this conversation briefly. Capture the topics discussed and what the user needed help with. Keep it under 100 words.`

// LLMSummarizer returns a SummarizeFunc backed by a completion service.
func LLMSummarizer(c ai.Completer) SummarizeFunc {
	return func(ctx context.Context, transcript string) (string, error) {
		return ai.Ask(ctx, c, ai.TaskSummary, summarizePrompt, transcript)
	}
}
