package queryplan

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// datePattern matches the date spellings the planner understands:
// 2024-07-10, July 10 2025, July 10, January 2024, 2024.
const datePattern = `(?:\d{4}-\d{2}-\d{2}|(?:january|february|march|april|may|june|july|august|september|october|november|december)(?:\s+\d{1,2})?(?:,?\s+\d{4})?|\d{4})`

var monthNumbers = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

var monthDateRe = regexp.MustCompile(`^([a-z]+)(?:\s+(\d{1,2}))?(?:,?\s+(\d{4}))?$`)

// parseDateStart resolves a date phrase to the start of the period it names:
// a day phrase to midnight, a month phrase to the 1st, a bare year to Jan 1.
// Phrases without a year default to yearHint when given, otherwise to the
// current year.
func parseDateStart(phrase string, now time.Time, yearHint int) (time.Time, bool) {
	phrase = strings.ToLower(strings.TrimSpace(phrase))

	if t, err := time.Parse("2006-01-02", phrase); err == nil {
		return t.UTC(), true
	}

	if len(phrase) == 4 && !strings.ContainsAny(phrase, "abcdefghijklmnopqrstuvwxyz") {
		if t, err := time.Parse("2006", phrase); err == nil {
			return t.UTC(), true
		}
		return time.Time{}, false
	}

	parts := monthDateRe.FindStringSubmatch(phrase)
	if parts == nil {
		return time.Time{}, false
	}
	month, ok := monthNumbers[parts[1]]
	if !ok {
		return time.Time{}, false
	}

	day := 1
	if parts[2] != "" {
		day, _ = strconv.Atoi(parts[2])
		if day < 1 || day > 31 {
			return time.Time{}, false
		}
	}

	year := yearHint
	if parts[3] != "" {
		year, _ = strconv.Atoi(parts[3])
	}
	if year == 0 {
		year = now.Year()
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
}

type relativeWindow struct {
	phrase string
	bounds func(now time.Time) (time.Time, time.Time)
}

// ordered: longer phrases first so "last month" is never matched as "month"
var relativeWindows = []relativeWindow{
	{"yesterday", func(now time.Time) (time.Time, time.Time) {
		day := startOfDay(now)
		return day.AddDate(0, 0, -1), day
	}},
	{"today", func(now time.Time) (time.Time, time.Time) {
		day := startOfDay(now)
		return day, day.AddDate(0, 0, 1)
	}},
	{"last week", func(now time.Time) (time.Time, time.Time) {
		day := startOfDay(now)
		return day.AddDate(0, 0, -7), day
	}},
	{"last month", func(now time.Time) (time.Time, time.Time) {
		day := startOfDay(now)
		return day.AddDate(0, -1, 0), day
	}},
	{"last year", func(now time.Time) (time.Time, time.Time) {
		day := startOfDay(now)
		return day.AddDate(-1, 0, 0), day
	}},
	{"this month", func(now time.Time) (time.Time, time.Time) {
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}},
	{"this year", func(now time.Time) (time.Time, time.Time) {
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, 0)
	}},
}

func extractRelativeWindows(text string, now time.Time, plan *Plan) string {
	lower := strings.ToLower(text)
	for _, window := range relativeWindows {
		idx := strings.Index(lower, window.phrase)
		if idx < 0 {
			continue
		}
		start, end := window.bounds(now)
		plan.Filters = append(plan.Filters,
			timeFilter(OpGte, start),
			timeFilter(OpLt, end),
		)
		text = text[:idx] + text[idx+len(window.phrase):]
		lower = lower[:idx] + lower[idx+len(window.phrase):]
	}
	return text
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
