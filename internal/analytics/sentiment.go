package analytics

import (
	"strings"
	"sync"

	"github.com/jonreiter/govader"
)

// Scorer assigns a polarity in [-1, 1] to a piece of text.
type Scorer interface {
	Polarity(text string) float64
}

// VaderScorer scores text with the VADER rule-based model. Polarity is the
// compound score.
type VaderScorer struct {
	sia *govader.SentimentIntensityAnalyzer
}

// The lexicon is parsed once and only read afterwards.
var vaderAnalyzer = sync.OnceValue(govader.NewSentimentIntensityAnalyzer)

// NewVaderScorer returns a scorer backed by the shared VADER lexicon.
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{sia: vaderAnalyzer()}
}

// Polarity implements Scorer. Blank text is neutral.
func (s *VaderScorer) Polarity(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return clampFloat(s.sia.PolarityScores(text).Compound, -1, 1)
}

func clampFloat(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
