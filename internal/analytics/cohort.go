package analytics

import "github.com/p-n-ai/pai-insights/internal/student"

// MoodCount is one emotional-distribution bucket.
type MoodCount struct {
	Mood  string `json:"mood"`
	Value int    `json:"value"`
}

// RiskCount is one bucket of a low/medium/high histogram.
type RiskCount struct {
	Type  string `json:"type"`
	Value int    `json:"value"`
}

// WeekScore is the mean quiz accuracy of one ISO week.
type WeekScore struct {
	Key          BucketKey `json:"-"`
	Week         string    `json:"week"`
	AverageScore float64   `json:"averageScore"`
}

// CohortSummary is the class-wide view over many profiles.
type CohortSummary struct {
	AverageScore          float64     `json:"averageScore"`
	PositiveEmotionRatio  float64     `json:"positiveEmotionRatio"`
	HighRiskPercentage    float64     `json:"highRiskPercentage"`
	EmotionalDistribution []MoodCount `json:"emotionalDistribution"`
	BehaviorRisks         []RiskCount `json:"behaviorRisks"`
	WeeklyTrend           []WeekScore `json:"weeklyTrend"`
}

// Risk buckets.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// AggregateProfiles folds student profiles and the raw quiz history of the
// class into a CohortSummary. With no profiles it returns a zeroed summary
// with empty lists.
func (a *Analyzer) AggregateProfiles(profiles []Profile, quizzes []student.QuizResult) CohortSummary {
	if len(profiles) == 0 {
		return CohortSummary{
			EmotionalDistribution: []MoodCount{},
			BehaviorRisks:         []RiskCount{},
			WeeklyTrend:           []WeekScore{},
		}
	}
	th := a.th

	var (
		classScores []float64
		positive    int
		highRisk    int
		moods       []MoodCount
		moodIndex   = map[string]int{}
		low, medium int
		high        int
	)

	for _, p := range profiles {
		avg, ok := p.MeanSkillScore()
		if ok {
			classScores = append(classScores, avg)
		}
		academicRisk := ok && avg < th.AcademicRisk

		if mood := p.Emotions.Mood; mood != "" {
			i, seen := moodIndex[mood]
			if !seen {
				i = len(moods)
				moodIndex[mood] = i
				moods = append(moods, MoodCount{Mood: mood})
			}
			moods[i].Value++
			if containsAny(mood, th.PositiveMoodNames) {
				positive++
			}
		}

		behaviorRisk := false
		switch a.riskBand(p.Behavior.RiskScore) {
		case RiskLow:
			low++
		case RiskMedium:
			medium++
		default:
			high++
			behaviorRisk = true
		}

		if academicRisk || behaviorRisk {
			highRisk++
		}
	}

	if moods == nil {
		moods = []MoodCount{}
	}
	n := float64(len(profiles))
	return CohortSummary{
		AverageScore:          round2(mean(classScores)),
		PositiveEmotionRatio:  round2(float64(positive) / n * 100),
		HighRiskPercentage:    round2(float64(highRisk) / n * 100),
		EmotionalDistribution: moods,
		BehaviorRisks: []RiskCount{
			{Type: RiskLow, Value: low},
			{Type: RiskMedium, Value: medium},
			{Type: RiskHigh, Value: high},
		},
		WeeklyTrend: WeeklyQuizTrend(quizzes),
	}
}

// WeeklyQuizTrend bins every quiz by the ISO week it was taken in and
// averages the quiz accuracies per week. Quizzes without entries are
// skipped.
func WeeklyQuizTrend(quizzes []student.QuizResult) []WeekScore {
	b := buckets{}
	for _, q := range quizzes {
		if len(q.Entries) == 0 {
			continue
		}
		bk := b.at(q.TakenAt, PeriodWeekly)
		bk.values = append(bk.values, QuizAccuracy(q.Entries))
	}

	out := make([]WeekScore, 0, len(b))
	for _, bk := range b.sorted() {
		out = append(out, WeekScore{Key: bk.key, Week: bk.label, AverageScore: round2(mean(bk.values))})
	}
	return out
}

// riskBand maps a 0-100 risk score onto the three risk buckets.
func (a *Analyzer) riskBand(score int) string {
	switch {
	case score < a.th.MediumBehavior:
		return RiskLow
	case score < a.th.HighBehavior:
		return RiskMedium
	default:
		return RiskHigh
	}
}
