package analytics

// ProgressInsight returns a one-line reading of the latest academic,
// creative, and sports scores. The first matching rule wins.
func (a *Analyzer) ProgressInsight(academic, creative, sports float64) string {
	switch {
	case academic > creative && academic > sports:
		return "Academic growth is strongest. Encourage creative or physical balance."
	case sports < a.th.LowSports:
		return "Physical activity appears low. Consider encouraging regular sports."
	case creative > a.th.HighCreative:
		return "Strong creative engagement detected. Great for emotional development."
	default:
		return "Balanced progress across all areas."
	}
}

// Recommendation is a parent-facing suggestion.
type Recommendation struct {
	Type       string  `json:"type"`
	Priority   string  `json:"priority"`
	Title      string  `json:"title"`
	Reason     string  `json:"reason"`
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
}

// Recommendations evaluates the parent recommendation rules against monthly
// scores. Rules are independent; the result keeps their fixed order.
func (a *Analyzer) Recommendations(academic, creative, sports float64) []Recommendation {
	th := a.th
	recs := []Recommendation{}

	if academic < th.LowAcademic {
		recs = append(recs, Recommendation{
			Type:       "academic",
			Priority:   "high",
			Title:      "Academic support recommended",
			Reason:     "Recent academic performance is below average.",
			Action:     "Schedule daily 20-minute revision sessions or consult the class teacher.",
			Confidence: 0.9,
		})
	}
	if sports < th.LowSports {
		recs = append(recs, Recommendation{
			Type:       "sports",
			Priority:   "medium",
			Title:      "Increase physical activity",
			Reason:     "Low sports engagement detected in recent weeks.",
			Action:     "Encourage morning walks or enroll in a sports activity.",
			Confidence: 0.8,
		})
	}
	if creative > th.HighCreative {
		recs = append(recs, Recommendation{
			Type:       "creative",
			Priority:   "low",
			Title:      "Nurture creative strengths",
			Reason:     "Strong creative engagement observed.",
			Action:     "Consider enrolling in art, music, or creative workshops.",
			Confidence: 0.7,
		})
	}
	if academic > th.BalanceAcademic && sports < th.BalanceSports {
		recs = append(recs, Recommendation{
			Type:       "wellbeing",
			Priority:   "medium",
			Title:      "Encourage better balance",
			Reason:     "Strong academics but limited physical activity.",
			Action:     "Introduce short play or outdoor time after study sessions.",
			Confidence: 0.75,
		})
	}
	return recs
}
