package notify

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/p-n-ai/pai-insights/internal/ai"
	"github.com/p-n-ai/pai-insights/internal/analytics"
)

// DefaultInterventionTimeout bounds one intervention completion.
const DefaultInterventionTimeout = 20 * time.Second

// Intervention risk levels.
const (
	InterventionHigh     = "High"
	InterventionModerate = "Moderate"
)

const progressingNormally = "Student is progressing normally. Continue regular monitoring."

var distressedEmotions = []string{"Anxious", "Stressed", "Sad"}

// InterventionContext is what a teacher suggestion is based on.
type InterventionContext struct {
	StudentName     string   `json:"student_name"`
	OverallAccuracy float64  `json:"overall_accuracy"`
	WeakTopics      []string `json:"weak_topics"`
	BehaviorRisk    int      `json:"behavior_risk"`
	Emotion         string   `json:"emotion"`
	AcademicRisk    bool     `json:"academic_risk"`
	HighBehavior    int      `json:"-"`
}

// BuildInterventionContext collects the signals for one student.
func BuildInterventionContext(name string, quiz analytics.QuizAnalysis, profile analytics.Profile, th analytics.Thresholds) InterventionContext {
	emotion := profile.Emotions.Mood
	if emotion == "" {
		emotion = "Unknown"
	}
	return InterventionContext{
		StudentName:     name,
		OverallAccuracy: quiz.OverallAccuracy,
		WeakTopics:      quiz.WeakTopics,
		BehaviorRisk:    profile.Behavior.RiskScore,
		Emotion:         emotion,
		AcademicRisk:    quiz.OverallAccuracy < th.AcademicRisk,
		HighBehavior:    th.HighBehavior,
	}
}

// RiskLevel is High for academic risk and Moderate otherwise.
func (c InterventionContext) RiskLevel() string {
	if c.AcademicRisk {
		return InterventionHigh
	}
	return InterventionModerate
}

const interventionSystem = "You are an AI assistant helping a teacher support a student."

// InterventionPrompt renders the context for the completion service.
func InterventionPrompt(c InterventionContext) string {
	weak := "None"
	if len(c.WeakTopics) > 0 {
		weak = strings.Join(c.WeakTopics, ", ")
	}
	return fmt.Sprintf(`Student Name: %s
Overall Accuracy: %s%%
Weak Topics: %s
Behavior Risk Score: %d
Current Emotion: %s

Task:
- Suggest 2-3 concrete, practical interventions a teacher can apply.
- Be supportive, professional, and realistic.
- Do NOT diagnose medical or psychological conditions.
- Keep the response concise.`,
		c.StudentName, formatScore(c.OverallAccuracy), weak, c.BehaviorRisk, c.Emotion)
}

// FallbackIntervention builds a rule-based suggestion when no model reply
// is available.
func FallbackIntervention(c InterventionContext) string {
	var suggestions []string
	if c.AcademicRisk {
		suggestions = append(suggestions, "Provide additional remedial practice and review fundamentals.")
	}
	if len(c.WeakTopics) > 0 {
		suggestions = append(suggestions, fmt.Sprintf("Focus revision sessions on: %s.", strings.Join(c.WeakTopics, ", ")))
	}
	if c.BehaviorRisk >= c.HighBehavior {
		suggestions = append(suggestions, "Monitor behavior closely and consider a counseling referral.")
	}
	if slices.Contains(distressedEmotions, c.Emotion) {
		suggestions = append(suggestions, "Offer emotional support and reduce academic pressure temporarily.")
	}
	if len(suggestions) == 0 {
		return progressingNormally
	}
	return strings.Join(suggestions, " ")
}

// GenerateIntervention asks the completion service for suggestions and
// falls back to FallbackIntervention when the model fails or stays silent.
// The bool reports whether the text came from the model.
func GenerateIntervention(ctx context.Context, llm ai.Completer, c InterventionContext, timeout time.Duration) (string, bool) {
	if llm == nil {
		return FallbackIntervention(c), false
	}
	if timeout <= 0 {
		timeout = DefaultInterventionTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text, err := ai.Ask(ctx, llm, ai.TaskIntervention, interventionSystem, InterventionPrompt(c))
	if err != nil {
		slog.Warn("intervention completion failed, using rules",
			"student", c.StudentName,
			"error", err,
		)
		return FallbackIntervention(c), false
	}
	return text, true
}

// Intervention is one row of a class intervention list.
type Intervention struct {
	StudentID    string `json:"studentId"`
	StudentName  string `json:"studentName"`
	RiskLevel    string `json:"riskLevel"`
	Intervention string `json:"intervention"`
	AIGenerated  bool   `json:"aiGenerated"`
}
