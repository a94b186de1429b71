package analytics

import (
	"fmt"
	"time"
)

// UnknownKey collects records whose grouping dimension is missing.
// Keeping them in a sentinel bucket instead of dropping them means
// bucket counts always reconcile with the record total.
const UnknownKey = "Unknown"

// Bucket is the per-key accumulator produced by grouping. Users
// tracks distinct owners so callers get "count + unique users" from
// a single pass.
type Bucket struct {
	Key   string
	Count int
	Users map[string]struct{}
}

func (b *Bucket) addUser(userID string) {
	if userID == "" {
		return
	}
	if b.Users == nil {
		b.Users = make(map[string]struct{})
	}
	b.Users[userID] = struct{}{}
}

func (b *Bucket) UniqueUsers() int {
	return len(b.Users)
}

// Grouping is a sparse key→bucket map that remembers first-seen
// insertion order. The order is what makes descending-count sorts
// stable across identical runs, which in turn keeps endpoint output
// byte-identical for an unchanged snapshot.
type Grouping struct {
	buckets map[string]*Bucket
	order   []string
	skipped int
}

func NewGrouping() *Grouping {
	return &Grouping{buckets: make(map[string]*Bucket)}
}

func (g *Grouping) Add(key, userID string) {
	b, ok := g.buckets[key]
	if !ok {
		b = &Bucket{Key: key}
		g.buckets[key] = b
		g.order = append(g.order, key)
	}
	b.Count++
	b.addUser(userID)
}

// Keys returns bucket keys in first-seen order.
func (g *Grouping) Keys() []string {
	return g.order
}

func (g *Grouping) Bucket(key string) *Bucket {
	return g.buckets[key]
}

func (g *Grouping) Count(key string) int {
	if b, ok := g.buckets[key]; ok {
		return b.Count
	}
	return 0
}

// Total is the sum of all bucket counts, Unknown included.
func (g *Grouping) Total() int {
	total := 0
	for _, b := range g.buckets {
		total += b.Count
	}
	return total
}

// Skipped reports how many records were dropped because their key
// could not be derived (malformed timestamps, typically).
func (g *Grouping) Skipped() int {
	return g.skipped
}

// Group partitions records by keyFn. A keyFn error drops the record
// from this grouping only; the record still participates in any
// aggregate that does not need the key. An empty key lands in the
// Unknown bucket. userFn may be nil when unique-user tracking is not
// wanted.
func Group[T any](records []T, keyFn func(T) (string, error), userFn func(T) string) *Grouping {
	g := NewGrouping()
	for _, r := range records {
		key, err := keyFn(r)
		if err != nil {
			g.skipped++
			continue
		}
		if key == "" {
			key = UnknownKey
		}
		user := ""
		if userFn != nil {
			user = userFn(r)
		}
		g.Add(key, user)
	}
	return g
}

// timestampLayouts covers the formats seen in the store. RFC3339
// first; the rest show up in rows written by early imports.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a stored timestamp string, failing with
// ErrMalformedTimestamp for anything unparseable.
func ParseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrMalformedTimestamp)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, value)
}

// DayKey buckets a timestamp into its ISO date.
func DayKey(value string) (string, error) {
	t, err := ParseTimestamp(value)
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02"), nil
}

// WeekStart returns the Sunday that begins t's calendar week. Weeks
// start on Sunday throughout the dashboard.
func WeekStart(t time.Time) time.Time {
	return t.AddDate(0, 0, -int(t.Weekday()))
}

// WeekKey buckets a timestamp into the ISO date of its week's Sunday.
func WeekKey(value string) (string, error) {
	t, err := ParseTimestamp(value)
	if err != nil {
		return "", err
	}
	return WeekStart(t).Format("2006-01-02"), nil
}

// HourKey buckets a timestamp into its hour of day, "00".."23".
func HourKey(value string) (string, error) {
	t, err := ParseTimestamp(value)
	if err != nil {
		return "", err
	}
	return t.Format("15"), nil
}

// WeekdayKey buckets a timestamp into its day-of-week name.
func WeekdayKey(value string) (string, error) {
	t, err := ParseTimestamp(value)
	if err != nil {
		return "", err
	}
	return t.Weekday().String(), nil
}

// CategoryKey never fails; blanks land in the Unknown bucket.
func CategoryKey(value string) (string, error) {
	return value, nil
}
