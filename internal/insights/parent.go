package insights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/pai-insights/internal/analytics"
	"github.com/p-n-ai/pai-insights/internal/notify"
	"github.com/p-n-ai/pai-insights/internal/store"
	"github.com/p-n-ai/pai-insights/internal/student"
)

// Scores are the latest progress values per category.
type Scores struct {
	Academic float64 `json:"academic"`
	Creative float64 `json:"creative"`
	Sports   float64 `json:"sports"`
}

// Progress is a parent's view of their child's trends.
type Progress struct {
	Summary Scores                  `json:"summary"`
	Trend   []analytics.MergedPoint `json:"trend"`
	Insight string                  `json:"insight"`
}

// Recommendations are the parent suggestions with the monthly scores they
// were derived from.
type Recommendations struct {
	Summary         Scores                     `json:"summary"`
	Recommendations []analytics.Recommendation `json:"recommendations"`
}

func (s *Service) child(ctx context.Context, parentID string) (student.Info, error) {
	info, err := s.store.ChildOf(ctx, parentID)
	if err != nil {
		return student.Info{}, fmt.Errorf("find child of parent %s: %w", parentID, err)
	}
	return info, nil
}

func (s *Service) progress(ctx context.Context, studentID string, p analytics.Period) (Scores, []analytics.MergedPoint, error) {
	quizzes, err := s.store.QuizResults(ctx, studentID)
	if err != nil {
		return Scores{}, nil, fmt.Errorf("load quizzes: %w", err)
	}
	activities, err := s.store.Activities(ctx, studentID)
	if err != nil {
		return Scores{}, nil, fmt.Errorf("load activities: %w", err)
	}

	academic, academicTrend := analytics.AcademicProgress(quizzes, p)
	creative, creativeTrend := analytics.ActivityProgress(activities, student.CategoryArt, p, "creative")
	sports, sportsTrend := analytics.ActivityProgress(activities, student.CategorySports, p, "sports")

	scores := Scores{Academic: academic, Creative: creative, Sports: sports}
	return scores, analytics.MergeTrends(academicTrend, creativeTrend, sportsTrend), nil
}

// ParentProgress returns the child's latest scores, merged trend, and a
// one-line insight for the period.
func (s *Service) ParentProgress(ctx context.Context, parentID string, p analytics.Period) (Progress, error) {
	info, err := s.child(ctx, parentID)
	if err != nil {
		return Progress{}, err
	}
	scores, trend, err := s.progress(ctx, info.ID, p)
	if err != nil {
		return Progress{}, fmt.Errorf("progress for %s: %w", info.ID, err)
	}
	return Progress{
		Summary: scores,
		Trend:   trend,
		Insight: s.analyzer.ProgressInsight(scores.Academic, scores.Creative, scores.Sports),
	}, nil
}

// ParentRecommendations evaluates the recommendation rules on the child's
// monthly scores.
func (s *Service) ParentRecommendations(ctx context.Context, parentID string) (Recommendations, error) {
	info, err := s.child(ctx, parentID)
	if err != nil {
		return Recommendations{}, err
	}
	scores, _, err := s.progress(ctx, info.ID, analytics.PeriodMonthly)
	if err != nil {
		return Recommendations{}, fmt.Errorf("progress for %s: %w", info.ID, err)
	}
	return Recommendations{
		Summary:         scores,
		Recommendations: s.analyzer.Recommendations(scores.Academic, scores.Creative, scores.Sports),
	}, nil
}

// ParentReport builds the periodic report of the parent's child. The
// child's record is returned for rendering.
func (s *Service) ParentReport(ctx context.Context, parentID string, p analytics.Period) (analytics.Report, student.Info, error) {
	info, err := s.child(ctx, parentID)
	if err != nil {
		return analytics.Report{}, student.Info{}, err
	}

	in := analytics.ReportInput{Period: p, Now: s.now()}
	if in.Quizzes, err = s.store.QuizResults(ctx, info.ID); err != nil {
		return analytics.Report{}, info, fmt.Errorf("load quizzes: %w", err)
	}
	if in.Activities, err = s.store.Activities(ctx, info.ID); err != nil {
		return analytics.Report{}, info, fmt.Errorf("load activities: %w", err)
	}
	if in.Goals, err = s.store.Goals(ctx, info.ID); err != nil {
		return analytics.Report{}, info, fmt.Errorf("load goals: %w", err)
	}
	if in.Assignments, err = s.store.Assignments(ctx, info.Grade, info.Section); err != nil {
		return analytics.Report{}, info, fmt.Errorf("load assignments: %w", err)
	}
	logs, err := s.store.ChatLogs(ctx, info.ID)
	if err != nil {
		return analytics.Report{}, info, fmt.Errorf("load chat logs: %w", err)
	}
	in.Messages = student.ChatMessagesFromLogs(logs)

	return s.analyzer.ParentReport(in), info, nil
}

// Notifications returns the newest notifications of a parent.
func (s *Service) Notifications(ctx context.Context, parentID string) ([]notify.Notification, error) {
	ns, err := s.store.Notifications(ctx, parentID, store.DefaultNotificationLimit)
	if err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", parentID, err)
	}
	return ns, nil
}

// MarkNotificationRead marks one of the parent's notifications as read.
func (s *Service) MarkNotificationRead(ctx context.Context, parentID, id string) error {
	if err := s.store.MarkNotificationRead(ctx, parentID, id); err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	return nil
}

// ParentIDs lists every parent with a linked child.
func (s *Service) ParentIDs(ctx context.Context) ([]string, error) {
	return s.store.ParentIDs(ctx)
}

// GenerateParentNotifications runs the notification rules for the parent's
// child, stores each new alert, and pushes it to connected clients. An
// alert matching an unread notification about the same child is not
// repeated. A parent without a linked child gets nothing.
func (s *Service) GenerateParentNotifications(ctx context.Context, parentID string) ([]notify.Notification, error) {
	info, err := s.store.ChildOf(ctx, parentID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find child of parent %s: %w", parentID, err)
	}

	var h notify.History
	if h.Quizzes, err = s.store.QuizResults(ctx, info.ID); err != nil {
		return nil, fmt.Errorf("load quizzes: %w", err)
	}
	if h.Goals, err = s.store.Goals(ctx, info.ID); err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}
	if h.Activities, err = s.store.Activities(ctx, info.ID); err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}

	now := s.now()
	alerts := s.rules.Evaluate(h, now)
	if len(alerts) == 0 {
		return nil, nil
	}

	existing, err := s.store.Notifications(ctx, parentID, store.DefaultNotificationLimit)
	if err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", parentID, err)
	}
	unread := make(map[string]bool, len(existing))
	for _, n := range existing {
		if !n.Read && n.StudentID == info.ID {
			unread[n.Type+"\x00"+n.Message] = true
		}
	}

	var created []notify.Notification
	for _, a := range alerts {
		if unread[a.Type+"\x00"+a.Message] {
			continue
		}
		n := notify.NewNotification(parentID, info.ID, a, now)
		if err := s.store.AddNotification(ctx, n); err != nil {
			return created, fmt.Errorf("store notification: %w", err)
		}
		created = append(created, n)

		delivered := 0
		if s.push != nil {
			delivered = s.push.Publish(ctx, n)
		}
		slog.Info("parent notification created",
			"parent_id", parentID,
			"student_id", info.ID,
			"type", n.Type,
			"severity", n.Severity,
			"delivered", delivered,
		)
		s.logEvent(ctx, info.ID, store.EventNotificationCreated, map[string]any{
			"notification_id": n.ID,
			"type":            n.Type,
			"severity":        n.Severity,
		})
	}
	return created, nil
}
