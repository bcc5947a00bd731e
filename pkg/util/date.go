package util

import (
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// ParseTime tries RFC3339, RFC3339Nano, a plain date, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string { return t.UTC().Format(dateLayout) }

// TruncateToTimeframe rounds t down to the bucket boundary of tf ("1m", "1h", "1d").
func TruncateToTimeframe(t time.Time, tf string) time.Time {
	t = t.UTC()
	switch tf {
	case "1h":
		return t.Truncate(time.Hour)
	case "1d":
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return t.Truncate(time.Minute)
	}
}

// Step returns the median spacing between consecutive times, or 24h when fewer than two are given.
func Step(times []time.Time) time.Duration {
	if len(times) < 2 {
		return 24 * time.Hour
	}
	diffs := make([]time.Duration, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		diffs = append(diffs, times[i].Sub(times[i-1]))
	}
	// insertion sort; series are short
	for i := 1; i < len(diffs); i++ {
		for j := i; j > 0 && diffs[j] < diffs[j-1]; j-- {
			diffs[j], diffs[j-1] = diffs[j-1], diffs[j]
		}
	}
	d := diffs[len(diffs)/2]
	if d <= 0 {
		return 24 * time.Hour
	}
	return d
}
