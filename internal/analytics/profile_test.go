package analytics_test

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/p-n-ai/pai-insights/internal/analytics"
	"github.com/p-n-ai/pai-insights/internal/student"
)

var ali = student.Info{ID: "s1", Name: "Ali", Age: 14, Grade: "9", ProfilePicURL: "https://example.com/ali.png"}

func TestBuildProfile_SkillLevels(t *testing.T) {
	a := newAnalyzer()
	quiz := a.AnalyzeQuiz([]student.QuizEntry{
		{Topic: "Math", Correct: 17, Total: 20},
		{Topic: "Sci", Correct: 6, Total: 10},
		{Topic: "Art", Correct: 59, Total: 100},
	})

	p := a.BuildProfile(quiz, analytics.ChatAnalysis{}, ali, nil)

	want := []analytics.Skill{
		{Name: "Math", Level: analytics.LevelAdvanced, Score: 85},
		{Name: "Sci", Level: analytics.LevelProficient, Score: 60},
		{Name: "Art", Level: analytics.LevelNeedsImprovement, Score: 59},
	}
	if !reflect.DeepEqual(p.Skills, want) {
		t.Errorf("Skills = %+v, want %+v", p.Skills, want)
	}
	if p.Info.Name != "Ali" || p.Info.ProfilePicURL != ali.ProfilePicURL {
		t.Errorf("Info = %+v", p.Info)
	}
}

func TestBuildProfile_LearningStyle(t *testing.T) {
	tests := []struct {
		curiosity int
		want      string
	}{
		{0, "Passive Learner"},
		{1, "Passive Learner"},
		{2, "Visual Learner"},
		{4, "Visual Learner"},
		{5, "Active Explorer"},
	}

	a := newAnalyzer()
	for _, tt := range tests {
		p := a.BuildProfile(a.AnalyzeQuiz(nil), analytics.ChatAnalysis{CuriosityLevel: tt.curiosity}, ali, nil)
		if p.LearningStyle.Type != tt.want {
			t.Errorf("curiosity %d: LearningStyle = %q, want %q", tt.curiosity, p.LearningStyle.Type, tt.want)
		}
		if p.LearningStyle.Description == "" {
			t.Errorf("curiosity %d: empty description", tt.curiosity)
		}
	}
}

func TestBuildProfile_Emotions(t *testing.T) {
	tests := []struct {
		sentiment float64
		mood      string
		risk      int
	}{
		{1, analytics.MoodPositive, 0},
		{0.5, analytics.MoodPositive, 25},
		{0, analytics.MoodNeutral, 50},
		{-0.5, analytics.MoodFrustrated, 75},
		{-1, analytics.MoodFrustrated, 100},
	}

	a := newAnalyzer()
	for _, tt := range tests {
		p := a.BuildProfile(a.AnalyzeQuiz(nil), analytics.ChatAnalysis{SentimentScore: tt.sentiment}, ali, nil)
		if p.Emotions.Mood != tt.mood {
			t.Errorf("sentiment %v: Mood = %q, want %q", tt.sentiment, p.Emotions.Mood, tt.mood)
		}
		if p.Emotions.RiskScore != tt.risk {
			t.Errorf("sentiment %v: RiskScore = %d, want %d", tt.sentiment, p.Emotions.RiskScore, tt.risk)
		}
	}

	for sentiment, want := range map[float64]string{
		0.25: "Average sentiment score: 0.25",
		0:    "Average sentiment score: 0.0",
		-1:   "Average sentiment score: -1.0",
	} {
		p := a.BuildProfile(a.AnalyzeQuiz(nil), analytics.ChatAnalysis{SentimentScore: sentiment}, ali, nil)
		if p.Emotions.TrendDescription != want {
			t.Errorf("TrendDescription = %q, want %q", p.Emotions.TrendDescription, want)
		}
	}
}

func TestEmotionalRisk_Clamped(t *testing.T) {
	if got := analytics.EmotionalRisk(3); got != 0 {
		t.Errorf("EmotionalRisk(3) = %d, want 0", got)
	}
	if got := analytics.EmotionalRisk(-3); got != 100 {
		t.Errorf("EmotionalRisk(-3) = %d, want 100", got)
	}
}

func TestBuildProfile_BehaviorAndSuccessPath(t *testing.T) {
	a := newAnalyzer()
	quiz := a.AnalyzeQuiz([]student.QuizEntry{
		{Topic: "Math", Correct: 2, Total: 10},
		{Topic: "Sci", Correct: 5, Total: 10},
	})

	p := a.BuildProfile(quiz, analytics.ChatAnalysis{CuriosityLevel: 3, HelpRequests: 3}, ali, nil)

	wantTraits := []string{"Curious about new concepts", "Seeks help often"}
	if !reflect.DeepEqual(p.Behavior.Traits, wantTraits) {
		t.Errorf("Traits = %v, want %v", p.Behavior.Traits, wantTraits)
	}
	if p.Behavior.RiskScore != 30 {
		t.Errorf("RiskScore = %d, want 30", p.Behavior.RiskScore)
	}
	wantSteps := []string{
		"Review Math, Sci with guided examples.",
		"Encourage self-reflection after each mistake.",
		"Set weekly goals and track progress visually.",
	}
	if !reflect.DeepEqual(p.SuccessPath.Steps, wantSteps) {
		t.Errorf("Steps = %v, want %v", p.SuccessPath.Steps, wantSteps)
	}

	calm := a.BuildProfile(a.AnalyzeQuiz(nil), analytics.ChatAnalysis{CuriosityLevel: 2, HelpRequests: 2}, ali, nil)
	if calm.Behavior.RiskScore != 10 {
		t.Errorf("RiskScore = %d, want 10", calm.Behavior.RiskScore)
	}
	if !reflect.DeepEqual(calm.Behavior.Traits, []string{"Needs motivation to ask questions", "Tries to solve independently"}) {
		t.Errorf("Traits = %v", calm.Behavior.Traits)
	}
	if !reflect.DeepEqual(calm.SuccessPath.Steps, []string{"Set weekly goals and track progress visually."}) {
		t.Errorf("Steps = %v, want only the weekly goal step", calm.SuccessPath.Steps)
	}
}

func TestBuildProfile_Health(t *testing.T) {
	// April 2024 has 30 days = 43200 minutes.
	tests := []struct {
		minutes int
		score   float64
		want    string
	}{
		{41040, 95, analytics.HealthHighlyActive},
		{38880, 90, analytics.HealthHighlyActive},
		{32400, 75, analytics.HealthExcellent},
		{29808, 69, analytics.HealthNormal},
		{17712, 41, analytics.HealthNormal},
		{17280, 40, analytics.HealthConcerning},
		{0, 0, analytics.HealthConcerning},
	}

	a := newAnalyzer()
	for _, tt := range tests {
		var acts []student.Activity
		if tt.minutes > 0 {
			acts = []student.Activity{{
				Category:  student.CategorySports,
				TimeSpent: tt.minutes,
				CreatedAt: time.Date(2024, time.April, 10, 8, 0, 0, 0, time.UTC),
			}}
		}
		p := a.BuildProfile(a.AnalyzeQuiz(nil), analytics.ChatAnalysis{}, ali, acts)
		if p.Health.Score != tt.score {
			t.Errorf("%d minutes: Score = %v, want %v", tt.minutes, p.Health.Score, tt.score)
		}
		if p.Health.Physical != tt.want {
			t.Errorf("%d minutes: Physical = %q, want %q", tt.minutes, p.Health.Physical, tt.want)
		}
	}
}

func TestBuildStudentProfile_Deterministic(t *testing.T) {
	a := newAnalyzer()
	entries := []student.QuizEntry{{Topic: "Math", Correct: 8, Total: 10}, {Topic: "Sci", Correct: 3, Total: 10}}
	msgs := messages("why does gravity work?", "I am confused, help", "this is great")
	acts := []student.Activity{
		{Category: student.CategorySports, TimeSpent: 300, CreatedAt: time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC)},
	}

	first, err := json.Marshal(a.BuildStudentProfile(entries, msgs, ali, acts))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	second, err := json.Marshal(a.BuildStudentProfile(entries, msgs, ali, acts))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("profiles differ:\n%s\n%s", first, second)
	}
}

func TestProfile_MeanSkillScore(t *testing.T) {
	p := analytics.Profile{Skills: []analytics.Skill{{Score: 80}, {Score: 30}}}
	if got, ok := p.MeanSkillScore(); !ok || got != 55 {
		t.Errorf("MeanSkillScore() = %v, %v, want 55, true", got, ok)
	}
	if _, ok := (analytics.Profile{}).MeanSkillScore(); ok {
		t.Error("MeanSkillScore() on empty profile should report no skills")
	}
}
