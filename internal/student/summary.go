package student

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidSummary is returned when quiz summary data fails validation.
var ErrInvalidSummary = errors.New("invalid quiz summary")

const summarySchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["topic", "correct", "total"],
    "properties": {
      "topic":   {"type": "string", "minLength": 1},
      "correct": {"type": "integer", "minimum": 0},
      "total":   {"type": "integer", "minimum": 0}
    }
  }
}`

var summaryValidator = mustSchema(summarySchema)

func mustSchema(def string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(def))
	if err != nil {
		panic(fmt.Sprintf("compile summary schema: %v", err))
	}
	return s
}

// DecodeSummary parses and validates a JSON-encoded quiz summary
// (a list of {topic, correct, total}). Missing keys, non-integer counts and
// correct > total are rejected rather than defaulted.
func DecodeSummary(data []byte) ([]QuizEntry, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty summary", ErrInvalidSummary)
	}

	res, err := summaryValidator.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSummary, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidSummary, strings.Join(msgs, "; "))
	}

	var entries []QuizEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSummary, err)
	}
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// EncodeSummary validates and serializes entries in the stored summary format.
func EncodeSummary(entries []QuizEntry) ([]byte, error) {
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}
	if entries == nil {
		entries = []QuizEntry{}
	}
	return json.Marshal(entries)
}

// Answer is a single graded question as submitted by the quiz UI.
type Answer struct {
	Subject   string `json:"subject"`
	IsCorrect bool   `json:"isCorrect"`
}

// AggregateAnswers folds per-question answers into per-subject entries,
// ordered by subject name. Answers without a subject count as "Unknown".
func AggregateAnswers(answers map[string]Answer) []QuizEntry {
	bySubject := make(map[string]*QuizEntry)
	for _, a := range answers {
		subject := strings.TrimSpace(a.Subject)
		if subject == "" {
			subject = "Unknown"
		}
		e, ok := bySubject[subject]
		if !ok {
			e = &QuizEntry{Topic: subject}
			bySubject[subject] = e
		}
		e.Total++
		if a.IsCorrect {
			e.Correct++
		}
	}

	entries := make([]QuizEntry, 0, len(bySubject))
	for _, e := range bySubject {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Topic < entries[j].Topic })
	return entries
}
