package analytics

import (
	"sort"
	"time"
)

// TrendPoint is one step of a daily series. Date is an ISO date, so
// lexicographic order is chronological order.
type TrendPoint struct {
	Date        string `json:"date"`
	Count       int    `json:"count"`
	UniqueUsers int    `json:"unique_users"`
}

// WeekPoint is one step of a weekly series, keyed by the Sunday that
// starts the week.
type WeekPoint struct {
	WeekStart   string `json:"week_start"`
	Count       int    `json:"count"`
	UniqueUsers int    `json:"unique_users"`
}

// BreakdownItem is one slice of a categorical breakdown.
type BreakdownItem struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// DailySeries flattens a day-keyed grouping into chronological
// order.
func DailySeries(g *Grouping) []TrendPoint {
	keys := append([]string(nil), g.Keys()...)
	sort.Strings(keys)

	series := make([]TrendPoint, 0, len(keys))
	for _, key := range keys {
		b := g.Bucket(key)
		series = append(series, TrendPoint{
			Date:        key,
			Count:       b.Count,
			UniqueUsers: b.UniqueUsers(),
		})
	}
	return series
}

// WeeklySeries flattens a week-keyed grouping into chronological
// order.
func WeeklySeries(g *Grouping) []WeekPoint {
	keys := append([]string(nil), g.Keys()...)
	sort.Strings(keys)

	series := make([]WeekPoint, 0, len(keys))
	for _, key := range keys {
		b := g.Bucket(key)
		series = append(series, WeekPoint{
			WeekStart:   key,
			Count:       b.Count,
			UniqueUsers: b.UniqueUsers(),
		})
	}
	return series
}

// Breakdown flattens a categorical grouping, sorted by descending
// count. Ties keep first-seen insertion order; no secondary key is
// defined. Percentages are of the grouping's own total.
func Breakdown(g *Grouping) []BreakdownItem {
	total := g.Total()
	items := make([]BreakdownItem, 0, len(g.Keys()))
	for _, key := range g.Keys() {
		b := g.Bucket(key)
		items = append(items, BreakdownItem{
			Label:      key,
			Count:      b.Count,
			Percentage: Rate(b.Count, total),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Count > items[j].Count
	})
	return items
}

// DenseBreakdown is Breakdown over a fixed label set: labels absent
// from the grouping appear with a zero count, so ordinal dimensions
// (engagement levels, weekdays) always show every bucket.
func DenseBreakdown(g *Grouping, labels []string) []BreakdownItem {
	total := g.Total()
	items := make([]BreakdownItem, 0, len(labels))
	for _, label := range labels {
		count := g.Count(label)
		items = append(items, BreakdownItem{
			Label:      label,
			Count:      count,
			Percentage: Rate(count, total),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Count > items[j].Count
	})
	return items
}

// DenseCounts keeps the given ordinal label order, zero-filling
// absent labels. For dimensions where position carries meaning
// (weekday, hour of day) a count sort would scramble the axis.
func DenseCounts(g *Grouping, labels []string) []BreakdownItem {
	total := g.Total()
	items := make([]BreakdownItem, 0, len(labels))
	for _, label := range labels {
		count := g.Count(label)
		items = append(items, BreakdownItem{
			Label:      label,
			Count:      count,
			Percentage: Rate(count, total),
		})
	}
	return items
}

// WeekdayLabels lists day names Sunday first, matching the week-start
// convention.
func WeekdayLabels() []string {
	labels := make([]string, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		labels[d] = d.String()
	}
	return labels
}

// HourLabels lists the 24 hour-of-day keys "00".."23".
func HourLabels() []string {
	labels := make([]string, 24)
	for h := 0; h < 24; h++ {
		labels[h] = time.Date(0, 1, 1, h, 0, 0, 0, time.UTC).Format("15")
	}
	return labels
}

// FillDays expands a daily series to one point per day of the
// [from, to] range, zero-filling days the sparse grouping never saw.
func FillDays(series []TrendPoint, from, to time.Time) []TrendPoint {
	byDate := make(map[string]TrendPoint, len(series))
	for _, p := range series {
		byDate[p.Date] = p
	}

	var filled []TrendPoint
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		if p, ok := byDate[key]; ok {
			filled = append(filled, p)
		} else {
			filled = append(filled, TrendPoint{Date: key})
		}
	}
	return filled
}
