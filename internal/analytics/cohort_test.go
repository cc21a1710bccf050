package analytics_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/p-n-ai/pai-insights/internal/analytics"
	"github.com/p-n-ai/pai-insights/internal/student"
)

func TestAggregateProfiles_Empty(t *testing.T) {
	got := newAnalyzer().AggregateProfiles(nil, []student.QuizResult{quiz(day(2024, time.March, 5), 1, 2)})

	if got.AverageScore != 0 || got.PositiveEmotionRatio != 0 || got.HighRiskPercentage != 0 {
		t.Errorf("summary = %+v, want zeroes", got)
	}
	if got.EmotionalDistribution == nil || got.BehaviorRisks == nil || got.WeeklyTrend == nil {
		t.Error("lists should be empty, not nil")
	}
	if len(got.WeeklyTrend) != 0 {
		t.Errorf("WeeklyTrend = %v, want empty for an empty class", got.WeeklyTrend)
	}
}

func TestAggregateProfiles(t *testing.T) {
	profiles := []analytics.Profile{
		{
			Skills:   []analytics.Skill{{Score: 80}, {Score: 30}},
			Emotions: analytics.Emotions{Mood: analytics.MoodNeutral},
			Behavior: analytics.Behavior{RiskScore: 10},
		},
		{
			Skills:   []analytics.Skill{{Score: 20}},
			Emotions: analytics.Emotions{Mood: analytics.MoodFrustrated},
			Behavior: analytics.Behavior{RiskScore: 30},
		},
		{
			Emotions: analytics.Emotions{Mood: analytics.MoodPositive},
			Behavior: analytics.Behavior{RiskScore: 60},
		},
		{
			Skills:   []analytics.Skill{{Score: 90}},
			Emotions: analytics.Emotions{Mood: analytics.MoodNeutral},
			Behavior: analytics.Behavior{RiskScore: 59},
		},
	}
	quizzes := []student.QuizResult{
		quiz(day(2024, time.March, 5), 8, 10),
		quiz(day(2024, time.February, 27), 5, 10),
		quiz(day(2024, time.March, 6), 6, 10),
		{TakenAt: day(2024, time.March, 7)},
	}

	got := newAnalyzer().AggregateProfiles(profiles, quizzes)

	// Mean of 55, 20 and 90; the profile without skills is left out.
	if got.AverageScore != 55 {
		t.Errorf("AverageScore = %v, want 55", got.AverageScore)
	}
	// Only "Neutral & Calm" names a positive mood.
	if got.PositiveEmotionRatio != 50 {
		t.Errorf("PositiveEmotionRatio = %v, want 50", got.PositiveEmotionRatio)
	}
	// Second by academics, third by behavior.
	if got.HighRiskPercentage != 50 {
		t.Errorf("HighRiskPercentage = %v, want 50", got.HighRiskPercentage)
	}

	wantMoods := []analytics.MoodCount{
		{Mood: analytics.MoodNeutral, Value: 2},
		{Mood: analytics.MoodFrustrated, Value: 1},
		{Mood: analytics.MoodPositive, Value: 1},
	}
	if !reflect.DeepEqual(got.EmotionalDistribution, wantMoods) {
		t.Errorf("EmotionalDistribution = %+v, want %+v", got.EmotionalDistribution, wantMoods)
	}

	wantRisks := []analytics.RiskCount{
		{Type: analytics.RiskLow, Value: 1},
		{Type: analytics.RiskMedium, Value: 2},
		{Type: analytics.RiskHigh, Value: 1},
	}
	if !reflect.DeepEqual(got.BehaviorRisks, wantRisks) {
		t.Errorf("BehaviorRisks = %+v, want %+v", got.BehaviorRisks, wantRisks)
	}

	if len(got.WeeklyTrend) != 2 {
		t.Fatalf("WeeklyTrend = %+v, want 2 weeks", got.WeeklyTrend)
	}
	if got.WeeklyTrend[0].Week != "Week 09" || got.WeeklyTrend[0].AverageScore != 50 {
		t.Errorf("WeeklyTrend[0] = %+v", got.WeeklyTrend[0])
	}
	if got.WeeklyTrend[1].Week != "Week 10" || got.WeeklyTrend[1].AverageScore != 70 {
		t.Errorf("WeeklyTrend[1] = %+v", got.WeeklyTrend[1])
	}
}

func TestAggregateProfiles_MoodStringsAreExact(t *testing.T) {
	profiles := []analytics.Profile{
		{Emotions: analytics.Emotions{Mood: "Calm"}},
		{Emotions: analytics.Emotions{Mood: "calm"}},
		{Emotions: analytics.Emotions{Mood: "Calm"}},
	}

	got := newAnalyzer().AggregateProfiles(profiles, nil)

	want := []analytics.MoodCount{{Mood: "Calm", Value: 2}, {Mood: "calm", Value: 1}}
	if !reflect.DeepEqual(got.EmotionalDistribution, want) {
		t.Errorf("EmotionalDistribution = %+v, want %+v", got.EmotionalDistribution, want)
	}
	if got.PositiveEmotionRatio != 66.67 {
		t.Errorf("PositiveEmotionRatio = %v, want 66.67", got.PositiveEmotionRatio)
	}
}
