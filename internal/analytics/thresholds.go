// Package analytics turns quiz, chat, and activity history into explainable
// student profiles, progress trends, and class-wide summaries.
//
// Every function in this package is pure: it performs no I/O and keeps no
// state between calls, so it is safe to call concurrently as long as callers
// pass their own input slices.
package analytics

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Thresholds centralizes every tuning constant used by the analyzers.
type Thresholds struct {
	// Quiz accuracy below WeakTopic flags the topic as weak.
	WeakTopic  float64 `yaml:"weak_topic"`
	Advanced   float64 `yaml:"advanced"`
	Proficient float64 `yaml:"proficient"`

	// Learning style by curiosity count
	ActiveExplorer int `yaml:"active_explorer"`
	VisualLearner  int `yaml:"visual_learner"`

	// Mood by sentiment
	PositiveMood float64 `yaml:"positive_mood"`
	NeutralMood  float64 `yaml:"neutral_mood"`

	// Behavior traits fire strictly above CuriousTrait and HelpSeeking.
	// Behavior risk above ReflectionRisk adds the self-reflection step.
	CuriousTrait   int `yaml:"curious_trait"`
	HelpSeeking    int `yaml:"help_seeking"`
	HighHelpRisk   int `yaml:"high_help_risk"`
	LowHelpRisk    int `yaml:"low_help_risk"`
	ReflectionRisk int `yaml:"reflection_risk"`

	// Physical health by monthly sports score; Concerning is inclusive.
	HighlyActive float64 `yaml:"highly_active"`
	Excellent    float64 `yaml:"excellent"`
	Concerning   float64 `yaml:"concerning"`

	// Cohort and risk. A score below AcademicRisk is high risk and below
	// MediumAcademicRisk medium; a student with NegativeMoodCount or more
	// negative moods is escalated one level.
	AcademicRisk       float64  `yaml:"academic_risk"`
	MediumAcademicRisk float64  `yaml:"medium_academic_risk"`
	MediumBehavior     int      `yaml:"medium_behavior"`
	HighBehavior       int      `yaml:"high_behavior"`
	PositiveMoodNames  []string `yaml:"positive_mood_names"`
	NegativeMoodNames  []string `yaml:"negative_mood_names"`
	NegativeMoodCount  int      `yaml:"negative_mood_count"`

	// Notifications. The drop rule needs the previous week at or above
	// DropBaseline.
	DropBaseline float64 `yaml:"drop_baseline"`
	DropMargin   float64 `yaml:"drop_margin"`
	InactiveDays int     `yaml:"inactive_days"`

	// Recommendations
	LowAcademic     float64 `yaml:"low_academic"`
	LowSports       float64 `yaml:"low_sports"`
	HighCreative    float64 `yaml:"high_creative"`
	BalanceAcademic float64 `yaml:"balance_academic"`
	BalanceSports   float64 `yaml:"balance_sports"`
}

// DefaultThresholds returns the production tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WeakTopic:  60,
		Advanced:   85,
		Proficient: 60,

		ActiveExplorer: 5,
		VisualLearner:  2,

		PositiveMood: 0.3,
		NeutralMood:  0,

		CuriousTrait:   2,
		HelpSeeking:    2,
		HighHelpRisk:   30,
		LowHelpRisk:    10,
		ReflectionRisk: 20,

		HighlyActive: 90,
		Excellent:    70,
		Concerning:   40,

		AcademicRisk:       40,
		MediumAcademicRisk: 60,
		MediumBehavior:     30,
		HighBehavior:       60,
		PositiveMoodNames:  []string{"Happy", "Focused", "Calm", "Neutral"},
		NegativeMoodNames:  []string{"Sad", "Angry", "Anxious", "Stressed"},
		NegativeMoodCount:  3,

		DropBaseline: 70,
		DropMargin:   15,
		InactiveDays: 7,

		LowAcademic:     50,
		LowSports:       40,
		HighCreative:    70,
		BalanceAcademic: 70,
		BalanceSports:   30,
	}
}

// LoadThresholds reads a YAML file of overrides on top of DefaultThresholds.
// An empty path returns the defaults.
func LoadThresholds(path string) (Thresholds, error) {
	t := DefaultThresholds()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read thresholds: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse thresholds %s: %w", path, err)
	}
	return t, nil
}
