package analytics

import "math"

// MetricResult encodes the divide-by-zero policy explicitly. A zero
// denominator yields {Value: 0, Defined: false}; NaN and Inf never
// reach a caller.
type MetricResult struct {
	Value   float64 `json:"value"`
	Basis   int     `json:"denominator_basis"`
	Defined bool    `json:"is_defined"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RateOf computes numerator/denominator as a two-decimal percentage.
func RateOf(numerator, denominator int) MetricResult {
	if denominator <= 0 {
		return MetricResult{Value: 0, Basis: denominator, Defined: false}
	}
	value := math.Round(float64(numerator)/float64(denominator)*10000) / 100
	return MetricResult{Value: value, Basis: denominator, Defined: true}
}

// Rate is RateOf collapsed to the policy value: 0 on an empty
// denominator, the two-decimal percentage otherwise.
func Rate(numerator, denominator int) float64 {
	return RateOf(numerator, denominator).Value
}

// Average is total/count at two decimals, 0 when count is 0. Not a
// percentage.
func Average(total float64, count int) float64 {
	if count <= 0 {
		return 0
	}
	return round2(total / float64(count))
}

// ReturnUsers counts users with more than one event. Single-event
// users stay in the denominator of ReturnRate but never the
// numerator.
func ReturnUsers(perUser map[string]int) int {
	returning := 0
	for _, n := range perUser {
		if n > 1 {
			returning++
		}
	}
	return returning
}

// ReturnRate is returning users over all distinct users.
func ReturnRate(perUser map[string]int) (int, float64) {
	returning := ReturnUsers(perUser)
	return returning, Rate(returning, len(perUser))
}

// RetentionRate is the share of the reference-period user set still
// present in the recent set. An empty reference set is 0 by policy.
func RetentionRate(recent, reference map[string]struct{}) float64 {
	retained := 0
	for uid := range reference {
		if _, ok := recent[uid]; ok {
			retained++
		}
	}
	return Rate(retained, len(reference))
}

// Engagement level boundaries are a fixed business rule. Do not
// derive or tune them.
const (
	LevelNone      = "No Evaluations"
	LevelSingle    = "1 Evaluation"
	LevelCasual    = "2-5 Evaluations"
	LevelRegular   = "6-10 Evaluations"
	LevelActive    = "11-20 Evaluations"
	LevelPowerUser = "20+ Evaluations"
)

// EngagementLevel maps an event count to its ordinal label.
func EngagementLevel(count int) string {
	switch {
	case count <= 0:
		return LevelNone
	case count == 1:
		return LevelSingle
	case count <= 5:
		return LevelCasual
	case count <= 10:
		return LevelRegular
	case count <= 20:
		return LevelActive
	default:
		return LevelPowerUser
	}
}

// EngagementLevels lists the labels in ordinal order, for dense
// breakdowns that must show empty buckets.
func EngagementLevels() []string {
	return []string{
		LevelNone,
		LevelSingle,
		LevelCasual,
		LevelRegular,
		LevelActive,
		LevelPowerUser,
	}
}
