package analytics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/p-n-ai/pai-insights/internal/student"
)

// Period selects the calendar bucket used for trends.
type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ParsePeriod maps "weekly" to PeriodWeekly and anything else to PeriodMonthly.
func ParsePeriod(s string) Period {
	if Period(s) == PeriodWeekly {
		return PeriodWeekly
	}
	return PeriodMonthly
}

const (
	minutesPerDay  = 24 * 60
	minutesPerWeek = 7 * minutesPerDay
)

// BucketKey orders time buckets numerically: ISO year and week for weekly
// buckets, calendar year and month for monthly ones.
type BucketKey struct {
	Year  int
	Index int
}

// Less reports whether k sorts before o.
func (k BucketKey) Less(o BucketKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Index < o.Index
}

// Bucket returns the sort key and display label of t for the period.
func Bucket(t time.Time, p Period) (BucketKey, string) {
	if p == PeriodWeekly {
		y, w := t.ISOWeek()
		return BucketKey{Year: y, Index: w}, fmt.Sprintf("Week %02d", w)
	}
	return BucketKey{Year: t.Year(), Index: int(t.Month())}, t.Format("Jan 2006")
}

// bucketMinutes is the total time available in a bucket.
func bucketMinutes(k BucketKey, p Period) float64 {
	if p == PeriodWeekly {
		return minutesPerWeek
	}
	days := time.Date(k.Year, time.Month(k.Index)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return float64(days * minutesPerDay)
}

// Normalize maps value onto 0-100 against maxValue, rounded to 2 decimals.
// It returns 0 when maxValue is not positive and never exceeds 100.
func Normalize(value, maxValue float64) float64 {
	if maxValue <= 0 || value <= 0 {
		return 0
	}
	return round2(min(value/maxValue*100, 100))
}

// TrendPoint is one bucket of a trend series. It encodes as
// {"label": Label, Field: Value}.
type TrendPoint struct {
	Key   BucketKey
	Label string
	Field string
	Value float64
}

// MarshalJSON implements json.Marshaler.
func (p TrendPoint) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	label, err := json.Marshal(p.Label)
	if err != nil {
		return nil, err
	}
	field, err := json.Marshal(p.Field)
	if err != nil {
		return nil, err
	}
	value, err := json.Marshal(p.Value)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`{"label":`)
	buf.Write(label)
	buf.WriteByte(',')
	buf.Write(field)
	buf.WriteByte(':')
	buf.Write(value)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type bucket struct {
	key    BucketKey
	label  string
	values []float64
	sum    float64
}

type buckets map[BucketKey]*bucket

func (b buckets) at(t time.Time, p Period) *bucket {
	key, label := Bucket(t, p)
	bk, ok := b[key]
	if !ok {
		bk = &bucket{key: key, label: label}
		b[key] = bk
	}
	return bk
}

func (b buckets) sorted() []*bucket {
	out := make([]*bucket, 0, len(b))
	for _, bk := range b {
		out = append(out, bk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key.Less(out[j].key) })
	return out
}

// AcademicProgress buckets quiz results by period and averages their
// accuracy. It returns the latest bucket value (0 when empty) and the trend
// in chronological order.
func AcademicProgress(results []student.QuizResult, p Period) (float64, []TrendPoint) {
	b := buckets{}
	for _, r := range results {
		var correct, total int
		for _, e := range r.Entries {
			correct += e.Correct
			total += e.Total
		}
		bk := b.at(r.TakenAt, p)
		bk.values = append(bk.values, Normalize(float64(correct), float64(total)))
	}

	trend := make([]TrendPoint, 0, len(b))
	for _, bk := range b.sorted() {
		trend = append(trend, TrendPoint{
			Key:   bk.key,
			Label: bk.label,
			Field: "academic",
			Value: round2(mean(bk.values)),
		})
	}
	return latest(trend), trend
}

// ActivityProgress sums the minutes logged for one category per bucket and
// normalizes them against the minutes available in that bucket (a week, or
// the days of that month). Values are encoded under keyName.
func ActivityProgress(activities []student.Activity, category string, p Period, keyName string) (float64, []TrendPoint) {
	b := buckets{}
	for _, a := range activities {
		if a.Category != category {
			continue
		}
		b.at(a.CreatedAt, p).sum += float64(a.TimeSpent)
	}

	trend := make([]TrendPoint, 0, len(b))
	for _, bk := range b.sorted() {
		trend = append(trend, TrendPoint{
			Key:   bk.key,
			Label: bk.label,
			Field: keyName,
			Value: Normalize(bk.sum, bucketMinutes(bk.key, p)),
		})
	}
	return latest(trend), trend
}

func latest(trend []TrendPoint) float64 {
	if len(trend) == 0 {
		return 0
	}
	return trend[len(trend)-1].Value
}

// MergedPoint combines the academic, creative, and sports series for one
// bucket. Series missing from a bucket contribute 0.
type MergedPoint struct {
	Key      BucketKey `json:"-"`
	Label    string    `json:"label"`
	Academic float64   `json:"academic"`
	Creative float64   `json:"creative"`
	Sports   float64   `json:"sports"`
}

// MergeTrends joins three trend series on their bucket keys.
func MergeTrends(academic, creative, sports []TrendPoint) []MergedPoint {
	merged := map[BucketKey]*MergedPoint{}
	get := func(tp TrendPoint) *MergedPoint {
		m, ok := merged[tp.Key]
		if !ok {
			m = &MergedPoint{Key: tp.Key, Label: tp.Label}
			merged[tp.Key] = m
		}
		return m
	}
	for _, tp := range academic {
		get(tp).Academic = tp.Value
	}
	for _, tp := range creative {
		get(tp).Creative = tp.Value
	}
	for _, tp := range sports {
		get(tp).Sports = tp.Value
	}

	out := make([]MergedPoint, 0, len(merged))
	for _, m := range merged {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out
}
