// Package insights composes storage, analytics, notifications, and
// conversation memory into the operations exposed over HTTP.
package insights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/p-n-ai/pai-insights/internal/ai"
	"github.com/p-n-ai/pai-insights/internal/analytics"
	"github.com/p-n-ai/pai-insights/internal/memory"
	"github.com/p-n-ai/pai-insights/internal/notify"
	"github.com/p-n-ai/pai-insights/internal/store"
	"github.com/p-n-ai/pai-insights/internal/student"
)

// ErrInvalidInput is returned when a request is missing required data.
var ErrInvalidInput = errors.New("invalid input")

// TeacherSummary is the canned class summary on the teacher dashboard.
const TeacherSummary = "Class performance is stable. Attention needed for low performers."

// Publisher delivers a stored notification to connected clients.
type Publisher interface {
	Publish(ctx context.Context, n notify.Notification) int
}

// Config holds the dependencies of a Service.
type Config struct {
	Store    store.Repository
	Analyzer *analytics.Analyzer
	LLM      ai.Completer      // optional; interventions fall back to rules
	Events   store.EventLogger // optional
	Push     Publisher         // optional
	Sessions *memory.Sessions  // optional; Chat reports a fallback without it

	InterventionTimeout time.Duration
	Now                 func() time.Time
}

// Service implements the analytics operations. It is safe for concurrent use.
type Service struct {
	store    store.Repository
	analyzer *analytics.Analyzer
	rules    notify.Rules
	llm      ai.Completer
	events   store.EventLogger
	push     Publisher
	sessions *memory.Sessions
	timeout  time.Duration
	now      func() time.Time
}

// New creates a Service. Store is required; a nil Analyzer selects the
// default thresholds.
func New(cfg Config) *Service {
	analyzer := cfg.Analyzer
	if analyzer == nil {
		analyzer = analytics.NewAnalyzer(analytics.DefaultThresholds(), nil)
	}
	events := cfg.Events
	if events == nil {
		events = store.NopEventLogger{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:    cfg.Store,
		analyzer: analyzer,
		rules:    notify.NewRules(analyzer.Thresholds()),
		llm:      cfg.LLM,
		events:   events,
		push:     cfg.Push,
		sessions: cfg.Sessions,
		timeout:  cfg.InterventionTimeout,
		now:      now,
	}
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// studentOrChild resolves id as a student, or as a parent whose child is
// returned.
func (s *Service) studentOrChild(ctx context.Context, id string) (student.Info, error) {
	info, err := s.store.Student(ctx, id)
	if err == nil {
		return info, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return student.Info{}, err
	}
	return s.store.ChildOf(ctx, id)
}

// profile builds the dashboard profile of one student from their latest
// quiz, all chat logs, and all activities. The latest quiz's analysis is
// returned alongside; ok is false when the student has no quiz.
func (s *Service) profile(ctx context.Context, info student.Info) (analytics.Profile, analytics.QuizAnalysis, bool, error) {
	quizzes, err := s.store.QuizResults(ctx, info.ID)
	if err != nil {
		return analytics.Profile{}, analytics.QuizAnalysis{}, false, fmt.Errorf("load quizzes: %w", err)
	}
	logs, err := s.store.ChatLogs(ctx, info.ID)
	if err != nil {
		return analytics.Profile{}, analytics.QuizAnalysis{}, false, fmt.Errorf("load chat logs: %w", err)
	}
	activities, err := s.store.Activities(ctx, info.ID)
	if err != nil {
		return analytics.Profile{}, analytics.QuizAnalysis{}, false, fmt.Errorf("load activities: %w", err)
	}

	latest, ok := student.Latest(quizzes)
	quiz := s.analyzer.AnalyzeQuiz(latest.Entries)
	chat := s.analyzer.AnalyzeChat(student.ChatMessagesFromLogs(logs))
	return s.analyzer.BuildProfile(quiz, chat, info, activities), quiz, ok, nil
}

// StudentProfile returns the profile of a student. A parent ID resolves to
// the parent's child.
func (s *Service) StudentProfile(ctx context.Context, id string) (analytics.Profile, error) {
	info, err := s.studentOrChild(ctx, id)
	if err != nil {
		return analytics.Profile{}, fmt.Errorf("find student %s: %w", id, err)
	}
	p, _, _, err := s.profile(ctx, info)
	if err != nil {
		return analytics.Profile{}, fmt.Errorf("build profile for %s: %w", info.ID, err)
	}
	return p, nil
}

// StudentQuery filters a student listing. "all" matches every grade or
// section; Search matches a name substring case-insensitively.
type StudentQuery struct {
	Grade   string
	Section string
	School  string
	Search  string
}

func (q StudentQuery) filter() store.Filter {
	f := store.Filter{Grade: q.Grade, Section: q.Section, School: q.School}
	if strings.EqualFold(f.Grade, "all") {
		f.Grade = ""
	}
	if strings.EqualFold(f.Section, "all") {
		f.Section = ""
	}
	return f
}

// StudentSummary is one row of the teacher's student list.
type StudentSummary struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Grade        string  `json:"grade"`
	Section      string  `json:"section"`
	Avatar       string  `json:"avatar"`
	AverageScore float64 `json:"averageScore"`
}

// Students lists the students matching q.
func (s *Service) Students(ctx context.Context, q StudentQuery) ([]StudentSummary, error) {
	infos, err := s.store.Students(ctx, q.filter())
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := []StudentSummary{}
	for _, info := range infos {
		if search != "" && !strings.Contains(strings.ToLower(info.Name), search) {
			continue
		}
		quizzes, err := s.store.QuizResults(ctx, info.ID)
		if err != nil {
			return nil, fmt.Errorf("load quizzes for %s: %w", info.ID, err)
		}
		out = append(out, StudentSummary{
			ID:           info.ID,
			Name:         info.Name,
			Grade:        info.Grade,
			Section:      info.Section,
			Avatar:       avatar(info),
			AverageScore: analytics.AverageQuizScore(quizzes),
		})
	}
	return out, nil
}

// avatar is the profile picture URL, or the initials of the first two
// words of the name.
func avatar(info student.Info) string {
	if info.ProfilePicURL != "" {
		return info.ProfilePicURL
	}
	var b strings.Builder
	for i, w := range strings.Fields(info.Name) {
		if i == 2 {
			break
		}
		r := []rune(w)
		b.WriteString(strings.ToUpper(string(r[0])))
	}
	return b.String()
}

// ClassSummary aggregates the profiles of the students matching q. The
// weekly trend covers every recorded quiz.
func (s *Service) ClassSummary(ctx context.Context, q StudentQuery) (analytics.CohortSummary, error) {
	infos, err := s.store.Students(ctx, q.filter())
	if err != nil {
		return analytics.CohortSummary{}, fmt.Errorf("list students: %w", err)
	}

	profiles := make([]analytics.Profile, 0, len(infos))
	for _, info := range infos {
		p, _, _, err := s.profile(ctx, info)
		if err != nil {
			return analytics.CohortSummary{}, fmt.Errorf("build profile for %s: %w", info.ID, err)
		}
		profiles = append(profiles, p)
	}

	quizzes, err := s.store.AllQuizResults(ctx)
	if err != nil {
		return analytics.CohortSummary{}, fmt.Errorf("load quizzes: %w", err)
	}
	return s.analyzer.AggregateProfiles(profiles, quizzes), nil
}

// Interventions drafts a suggestion for every student matching q who has
// taken at least one quiz.
func (s *Service) Interventions(ctx context.Context, q StudentQuery) ([]notify.Intervention, error) {
	infos, err := s.store.Students(ctx, q.filter())
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	out := []notify.Intervention{}
	for _, info := range infos {
		p, quiz, ok, err := s.profile(ctx, info)
		if err != nil {
			return nil, fmt.Errorf("build profile for %s: %w", info.ID, err)
		}
		if !ok {
			continue
		}

		c := notify.BuildInterventionContext(info.Name, quiz, p, s.analyzer.Thresholds())
		text, generated := notify.GenerateIntervention(ctx, s.llm, c, s.timeout)
		out = append(out, notify.Intervention{
			StudentID:    info.ID,
			StudentName:  info.Name,
			RiskLevel:    c.RiskLevel(),
			Intervention: text,
			AIGenerated:  generated,
		})
		s.logEvent(ctx, info.ID, store.EventInterventionDrafted, map[string]any{
			"risk_level":   c.RiskLevel(),
			"ai_generated": generated,
		})
	}
	return out, nil
}

// TeacherStats is the headline of the teacher dashboard.
type TeacherStats struct {
	TotalStudents int     `json:"totalStudents"`
	AvgQuizScore  float64 `json:"avgQuizScore"`
	AISummary     string  `json:"aiSummary"`
}

// TeacherStats counts all students and averages every recorded quiz.
func (s *Service) TeacherStats(ctx context.Context) (TeacherStats, error) {
	infos, err := s.store.Students(ctx, store.Filter{})
	if err != nil {
		return TeacherStats{}, fmt.Errorf("list students: %w", err)
	}
	quizzes, err := s.store.AllQuizResults(ctx)
	if err != nil {
		return TeacherStats{}, fmt.Errorf("load quizzes: %w", err)
	}
	return TeacherStats{
		TotalStudents: len(infos),
		AvgQuizScore:  analytics.AverageQuizScore(quizzes),
		AISummary:     TeacherSummary,
	}, nil
}

// PerformanceData is the pooled accuracy of each subject across all quizzes.
func (s *Service) PerformanceData(ctx context.Context) ([]analytics.SubjectScore, error) {
	quizzes, err := s.store.AllQuizResults(ctx)
	if err != nil {
		return nil, fmt.Errorf("load quizzes: %w", err)
	}
	return analytics.SubjectPerformance(quizzes), nil
}

// Overview is the school-wide analytics view.
type Overview struct {
	WeeklyTrend   []analytics.WeekScore `json:"weeklyTrend"`
	BehaviorRisks []analytics.RiskCount `json:"behaviorRisks"`
}

// Overview returns the weekly quiz trend and the risk distribution of
// every student.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	infos, err := s.store.Students(ctx, store.Filter{})
	if err != nil {
		return Overview{}, fmt.Errorf("list students: %w", err)
	}

	histories := make([]analytics.History, 0, len(infos))
	for _, info := range infos {
		quizzes, err := s.store.QuizResults(ctx, info.ID)
		if err != nil {
			return Overview{}, fmt.Errorf("load quizzes for %s: %w", info.ID, err)
		}
		moods, err := s.store.MoodLogs(ctx, info.ID)
		if err != nil {
			return Overview{}, fmt.Errorf("load moods for %s: %w", info.ID, err)
		}
		histories = append(histories, analytics.History{Quizzes: quizzes, Moods: moods})
	}

	all, err := s.store.AllQuizResults(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("load quizzes: %w", err)
	}
	return Overview{
		WeeklyTrend:   analytics.WeeklyQuizTrend(all),
		BehaviorRisks: s.analyzer.RiskDistribution(histories),
	}, nil
}

func (s *Service) logEvent(ctx context.Context, studentID, eventType string, data map[string]any) {
	err := s.events.LogEvent(ctx, store.Event{
		StudentID: studentID,
		EventType: eventType,
		Data:      data,
		CreatedAt: s.now(),
	})
	if err != nil {
		slog.Warn("failed to log event",
			"student_id", studentID,
			"event_type", eventType,
			"error", err,
		)
	}
}
