package analytics

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/p-n-ai/pai-insights/internal/student"
)

// Skill levels.
const (
	LevelAdvanced         = "Advanced"
	LevelProficient       = "Proficient"
	LevelNeedsImprovement = "Needs Improvement"
)

// Moods derived from chat sentiment.
const (
	MoodPositive   = "Positive & Engaged"
	MoodNeutral    = "Neutral & Calm"
	MoodFrustrated = "Frustrated or Tired"
)

// Physical health labels derived from monthly sports activity.
const (
	HealthHighlyActive = "Highly Active & Sportive"
	HealthExcellent    = "Excellent & Appreciative"
	HealthConcerning   = "Bad & Concerning"
	HealthNormal       = "Good & Normal"
)

// ProfileInfo is the static header of a dashboard profile.
type ProfileInfo struct {
	Name          string `json:"name"`
	Age           int    `json:"age"`
	Grade         string `json:"grade"`
	ProfilePicURL string `json:"profilePicUrl"`
}

// Skill is one topic's mastery.
type Skill struct {
	Name  string  `json:"name"`
	Level string  `json:"level"`
	Score float64 `json:"score"`
}

// LearningStyle describes how the student prefers to learn.
type LearningStyle struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Emotions is the emotional tone read from chat.
type Emotions struct {
	Mood             string `json:"mood"`
	TrendDescription string `json:"trendDescription"`
	RiskScore        int    `json:"risk_score"`
}

// Behavior lists observed traits and a coarse behavioral risk.
type Behavior struct {
	Traits    []string `json:"traits"`
	RiskScore int      `json:"risk_score"`
}

// Health is the physical-activity label and its sports score.
type Health struct {
	Physical string  `json:"physical"`
	Score    float64 `json:"score"`
}

// SuccessPath is the ordered list of suggested next steps.
type SuccessPath struct {
	Steps []string `json:"steps"`
}

// Profile is the dashboard view of one student. It is derived on every
// request and never stored.
type Profile struct {
	Info          ProfileInfo   `json:"profile"`
	Skills        []Skill       `json:"skills"`
	LearningStyle LearningStyle `json:"learningStyle"`
	Emotions      Emotions      `json:"emotions"`
	Behavior      Behavior      `json:"behavior"`
	Health        Health        `json:"health"`
	SuccessPath   SuccessPath   `json:"successPath"`
}

// MeanSkillScore returns the average skill score and whether any skills exist.
func (p Profile) MeanSkillScore() (float64, bool) {
	if len(p.Skills) == 0 {
		return 0, false
	}
	scores := make([]float64, len(p.Skills))
	for i, s := range p.Skills {
		scores[i] = s.Score
	}
	return mean(scores), true
}

// BuildStudentProfile analyzes raw quiz entries and chat messages and folds
// them with static info and activities into a Profile.
func (a *Analyzer) BuildStudentProfile(entries []student.QuizEntry, messages []student.ChatMessage, info student.Info, activities []student.Activity) Profile {
	return a.BuildProfile(a.AnalyzeQuiz(entries), a.AnalyzeChat(messages), info, activities)
}

// BuildProfile composes analyzer outputs into a Profile using the
// configured thresholds. The result depends only on its inputs.
func (a *Analyzer) BuildProfile(quiz QuizAnalysis, chat ChatAnalysis, info student.Info, activities []student.Activity) Profile {
	th := a.th

	skills := make([]Skill, 0, len(quiz.TopicAnalysis))
	for _, t := range quiz.TopicAnalysis {
		skills = append(skills, Skill{Name: t.Topic, Level: a.skillLevel(t.Accuracy), Score: t.Accuracy})
	}

	behavior := a.behavior(chat)

	var steps []string
	if len(quiz.WeakTopics) > 0 {
		steps = append(steps, fmt.Sprintf("Review %s with guided examples.", strings.Join(quiz.WeakTopics, ", ")))
	}
	if behavior.RiskScore > th.ReflectionRisk {
		steps = append(steps, "Encourage self-reflection after each mistake.")
	}
	steps = append(steps, "Set weekly goals and track progress visually.")

	sports, _ := ActivityProgress(activities, student.CategorySports, PeriodMonthly, "sports")

	return Profile{
		Info: ProfileInfo{
			Name:          info.Name,
			Age:           info.Age,
			Grade:         info.Grade,
			ProfilePicURL: info.ProfilePicURL,
		},
		Skills:        skills,
		LearningStyle: a.learningStyle(chat.CuriosityLevel),
		Emotions: Emotions{
			Mood:             a.mood(chat.SentimentScore),
			TrendDescription: "Average sentiment score: " + formatScore(chat.SentimentScore),
			RiskScore:        EmotionalRisk(chat.SentimentScore),
		},
		Behavior:    behavior,
		Health:      Health{Physical: a.physical(sports), Score: sports},
		SuccessPath: SuccessPath{Steps: steps},
	}
}

func (a *Analyzer) skillLevel(acc float64) string {
	switch {
	case acc >= a.th.Advanced:
		return LevelAdvanced
	case acc >= a.th.Proficient:
		return LevelProficient
	default:
		return LevelNeedsImprovement
	}
}

func (a *Analyzer) learningStyle(curiosity int) LearningStyle {
	switch {
	case curiosity >= a.th.ActiveExplorer:
		return LearningStyle{
			Type:        "Active Explorer",
			Description: "Shows strong curiosity and learns best through exploration and experiments.",
		}
	case curiosity >= a.th.VisualLearner:
		return LearningStyle{
			Type:        "Visual Learner",
			Description: "Learns effectively with visual examples and structured explanations.",
		}
	default:
		return LearningStyle{
			Type:        "Passive Learner",
			Description: "Prefers clear, direct instruction and repetition.",
		}
	}
}

func (a *Analyzer) mood(sentiment float64) string {
	switch {
	case sentiment >= a.th.PositiveMood:
		return MoodPositive
	case sentiment >= a.th.NeutralMood:
		return MoodNeutral
	default:
		return MoodFrustrated
	}
}

// formatScore prints the shortest decimal form, keeping a fractional
// digit on whole numbers: 0 prints as "0.0".
func formatScore(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// EmotionalRisk maps sentiment in [-1, 1] linearly onto risk in [100, 0].
func EmotionalRisk(sentiment float64) int {
	risk := int((1 - (sentiment+1)/2) * 100)
	return max(0, min(100, risk))
}

func (a *Analyzer) behavior(chat ChatAnalysis) Behavior {
	curious := "Needs motivation to ask questions"
	if chat.CuriosityLevel > a.th.CuriousTrait {
		curious = "Curious about new concepts"
	}
	help := "Tries to solve independently"
	risk := a.th.LowHelpRisk
	if chat.HelpRequests > a.th.HelpSeeking {
		help = "Seeks help often"
		risk = a.th.HighHelpRisk
	}
	return Behavior{Traits: []string{curious, help}, RiskScore: risk}
}

// physical checks the bands in a fixed order; they are not a partition, so
// the order decides which label a score gets.
func (a *Analyzer) physical(sports float64) string {
	if sports >= a.th.HighlyActive {
		return HealthHighlyActive
	} else if sports >= a.th.Excellent {
		return HealthExcellent
	} else if sports <= a.th.Concerning {
		return HealthConcerning
	}
	return HealthNormal
}
