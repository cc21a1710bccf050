// Package quizgen produces multiple-choice quizzes: a daily quiz across a
// fixed subject list and on-demand quizzes for a custom topic. Questions come
// from the completion service and fall back to a YAML question bank.
package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/p-n-ai/pai-insights/internal/ai"
	"github.com/p-n-ai/pai-insights/internal/platform/cache"
)

const (
	DefaultDifficulty = "medium"
	DefaultCount      = 5
	MaxCount          = 20
	OptionsPerItem    = 4

	DefaultTimeout = 2 * time.Minute

	dailyKey = "quiz:daily"
)

var (
	// ErrTopicRequired is returned for a custom quiz without a topic.
	ErrTopicRequired = errors.New("topic is required")
	// ErrInvalidQuiz is returned when a generated quiz fails validation.
	ErrInvalidQuiz = errors.New("invalid generated quiz")
)

// Question is one multiple-choice question.
type Question struct {
	ID       string   `json:"id" yaml:"id"`
	Subject  string   `json:"subject" yaml:"subject"`
	Question string   `json:"question" yaml:"question"`
	Options  []string `json:"options" yaml:"options"`
	Answer   string   `json:"answer" yaml:"answer"`
}

// Validate checks that the question has text, four distinct options, and an
// answer among them.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("%w: question text is empty", ErrInvalidQuiz)
	}
	if len(q.Options) != OptionsPerItem {
		return fmt.Errorf("%w: %d options, want %d", ErrInvalidQuiz, len(q.Options), OptionsPerItem)
	}
	seen := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		if seen[o] {
			return fmt.Errorf("%w: duplicate option %q", ErrInvalidQuiz, o)
		}
		seen[o] = true
	}
	if !seen[q.Answer] {
		return fmt.Errorf("%w: answer %q is not an option", ErrInvalidQuiz, q.Answer)
	}
	return nil
}

func (q Question) clone() Question {
	q.Options = slices.Clone(q.Options)
	return q
}

// Daily is the daily quiz: questions keyed by subject.
type Daily map[string][]Question

// CustomRequest asks for a quiz on one topic.
type CustomRequest struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
}

// Normalize fills defaults and clamps Count to [1, MaxCount].
func (r CustomRequest) Normalize() CustomRequest {
	r.Topic = strings.TrimSpace(r.Topic)
	r.Difficulty = strings.ToLower(strings.TrimSpace(r.Difficulty))
	if r.Difficulty == "" {
		r.Difficulty = DefaultDifficulty
	}
	if r.Count <= 0 {
		r.Count = DefaultCount
	}
	r.Count = min(r.Count, MaxCount)
	return r
}

// Options configures a Generator.
type Options struct {
	Subjects []string
	Count    int
	Timeout  time.Duration
	Now      func() time.Time
}

// Generator builds quizzes. The completion service and cache are optional:
// without a completer every quiz comes from the bank, without a cache the
// daily quiz is regenerated on each call.
type Generator struct {
	llm      ai.Completer
	cache    cache.DayCache
	bank     *Bank
	subjects []string
	count    int
	timeout  time.Duration
	now      func() time.Time
	flight   singleflight.Group
}

// New creates a Generator. A nil bank selects DefaultBank; without
// subjects the daily quiz covers every subject in the bank.
func New(llm ai.Completer, dc cache.DayCache, bank *Bank, opts Options) *Generator {
	if bank == nil {
		bank = DefaultBank()
	}
	if len(opts.Subjects) == 0 {
		opts.Subjects = bank.Subjects()
	}
	if opts.Count <= 0 {
		opts.Count = DefaultCount
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Generator{
		llm:      llm,
		cache:    dc,
		bank:     bank,
		subjects: slices.Clone(opts.Subjects),
		count:    min(opts.Count, MaxCount),
		timeout:  opts.Timeout,
		now:      opts.Now,
	}
}

// Daily returns today's quiz. A quiz generated entirely by the model is
// cached until midnight; one that needed the bank for any subject is not, so
// the next call retries the model.
func (g *Generator) Daily(ctx context.Context) (Daily, error) {
	key := cache.DayKey(dailyKey, g.now())

	if quiz, ok := g.cachedDaily(ctx, key); ok {
		return quiz, nil
	}

	v, err, _ := g.flight.Do(key, func() (any, error) {
		return g.buildDaily(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(Daily), nil
}

func (g *Generator) cachedDaily(ctx context.Context, key string) (Daily, bool) {
	if g.cache == nil {
		return nil, false
	}
	data, ok, err := g.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("daily quiz cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var quiz Daily
	if err := json.Unmarshal(data, &quiz); err != nil {
		slog.Warn("discarding unreadable cached daily quiz", "key", key, "error", err)
		return nil, false
	}
	return quiz, true
}

func (g *Generator) buildDaily(ctx context.Context, key string) (Daily, error) {
	results := make([][]Question, len(g.subjects))
	generated := make([]bool, len(g.subjects))

	eg, egctx := errgroup.WithContext(ctx)
	for i, subject := range g.subjects {
		eg.Go(func() error {
			results[i], generated[i] = g.questions(egctx, subject, DefaultDifficulty, g.count, dailyPrompt(subject, g.count))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("generating daily quiz: %w", err)
	}

	quiz := make(Daily, len(g.subjects))
	for i, subject := range g.subjects {
		quiz[subject] = results[i]
	}

	if g.cache == nil || slices.Contains(generated, false) {
		return quiz, nil
	}
	data, err := json.Marshal(quiz)
	if err != nil {
		return nil, fmt.Errorf("encoding daily quiz: %w", err)
	}
	if err := g.cache.Set(ctx, key, data); err != nil {
		slog.Warn("daily quiz cache write failed", "key", key, "error", err)
	}
	return quiz, nil
}

// Custom generates a quiz on req.Topic. When the model fails, questions from
// the bank for that topic are returned, which may be none.
func (g *Generator) Custom(ctx context.Context, req CustomRequest) ([]Question, error) {
	req = req.Normalize()
	if req.Topic == "" {
		return nil, ErrTopicRequired
	}
	qs, _ := g.questions(ctx, req.Topic, req.Difficulty, req.Count, customPrompt(req))
	return qs, nil
}

// questions asks the model for count questions on subject and reports
// whether the reply was used.
func (g *Generator) questions(ctx context.Context, subject, difficulty string, count int, prompt string) ([]Question, bool) {
	if g.llm == nil {
		return g.bank.Questions(subject, count), false
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.llm.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Task: ai.TaskQuiz,
		JSON: true,
	})
	if err == nil {
		var qs []Question
		qs, err = ParseQuestions(resp.Content, subject, count)
		if err == nil {
			return qs, true
		}
	}

	slog.Warn("quiz generation failed, using question bank",
		"subject", subject,
		"difficulty", difficulty,
		"error", err,
	)
	return g.bank.Questions(subject, count), false
}

const systemPrompt = "You are a professional educational content creator. Reply with JSON only, no markdown or explanations."

func dailyPrompt(subject string, count int) string {
	return fmt.Sprintf(`Create %d multiple-choice questions for the subject %q.
Difficulty: %s.
Each question needs "id" (unique), "subject", "question", "options" (exactly %d unique strings) and "answer" (one of the options).
Return a JSON object of the form {"questions": [...]}.
Example: {"questions": [{"id": "Math-1", "subject": "Math", "question": "What is 5 + 7?", "options": ["10", "11", "12", "13"], "answer": "12"}]}`,
		count, subject, DefaultDifficulty, OptionsPerItem)
}

func customPrompt(req CustomRequest) string {
	return fmt.Sprintf(`Create %d educational multiple-choice questions about %q.
Difficulty: %s.
Each question needs "id", "subject", "question", "options" (exactly %d unique strings) and "answer" (one of the options).
Return a JSON object of the form {"questions": [{"id": "Custom-1", "subject": %q, "question": "...", "options": ["A", "B", "C", "D"], "answer": "..."}]}.`,
		req.Count, req.Topic, req.Difficulty, OptionsPerItem, req.Topic)
}

const quizSchema = `{
  "type": "object",
  "required": ["questions"],
  "properties": {
    "questions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["question", "options", "answer"],
        "properties": {
          "id":       {"type": "string"},
          "subject":  {"type": "string"},
          "question": {"type": "string", "minLength": 1},
          "options":  {
            "type": "array",
            "minItems": 4,
            "maxItems": 4,
            "uniqueItems": true,
            "items": {"type": "string", "minLength": 1}
          },
          "answer":   {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

var quizValidator = mustSchema(quizSchema)

func mustSchema(def string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(def))
	if err != nil {
		panic(fmt.Sprintf("compile quiz schema: %v", err))
	}
	return s
}

// ParseQuestions decodes a model reply into at most count questions on
// subject. The reply may be a {"questions": [...]} object or a bare array,
// optionally inside a markdown code fence. Missing IDs are numbered and the
// subject is always set to subject.
func ParseQuestions(content, subject string, count int) ([]Question, error) {
	body := stripFence(content)
	if strings.HasPrefix(body, "[") {
		body = `{"questions":` + body + `}`
	}

	res, err := quizValidator.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuiz, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuiz, strings.Join(msgs, "; "))
	}

	var reply struct {
		Questions []Question `json:"questions"`
	}
	if err := json.Unmarshal([]byte(body), &reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuiz, err)
	}

	out := make([]Question, 0, len(reply.Questions))
	for i, q := range reply.Questions {
		q.Subject = subject
		if q.ID == "" {
			q.ID = fmt.Sprintf("%s-%d", subject, i+1)
		}
		if err := q.Validate(); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if count > 0 && len(out) > count {
		out = out[:count]
	}
	return out, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
