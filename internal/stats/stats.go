// Package stats derives daily totals, monthly totals, active-day sets and the
// current streak from a user's action logs.
//
// All day arithmetic uses the date components of each timestamp as it was
// logged. A log at "2025-10-14T23:30:00-05:00" belongs to October 14, not to
// the UTC day it falls on.
package stats

import (
	"fmt"
	"sort"
	"time"
)

// Date is a calendar day without a time or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// AddDays moves d by n calendar days, crossing month and year boundaries.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// Record is one logged occurrence as seen by the aggregations.
type Record struct {
	ActionID string // empty for quick logs without an action
	LoggedAt time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	dateLayout,
}

// ParseTimestamp parses an ISO-8601 loggedAt value. Offsets are kept as
// written; zone-less values keep their wall-clock components and a bare date
// means midnight of that day.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: expected ISO-8601", s)
}

// NewRecord builds a Record from stored log fields.
func NewRecord(actionID *string, loggedAt string) (Record, error) {
	t, err := ParseTimestamp(loggedAt)
	if err != nil {
		return Record{}, err
	}
	r := Record{LoggedAt: t}
	if actionID != nil {
		r.ActionID = *actionID
	}
	return r, nil
}

func matches(r Record, actionID string) bool {
	return actionID == "" || r.ActionID == actionID
}

// DaysIn returns the number of days in month, including leap-year February.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthFromIndex converts a 0-indexed month (0 = January), as used by
// browser clients, to a time.Month.
func MonthFromIndex(i int) (time.Month, error) {
	if i < 0 || i > 11 {
		return 0, fmt.Errorf("month index %d out of range 0-11", i)
	}
	return time.Month(i + 1), nil
}

// DailyTotal counts logs on day, optionally restricted to one action.
func DailyTotal(records []Record, day Date, actionID string) int {
	n := 0
	for _, r := range records {
		if matches(r, actionID) && DateOf(r.LoggedAt) == day {
			n++
		}
	}
	return n
}

// MonthlyTotal counts logs in the given month, optionally restricted to one action.
func MonthlyTotal(records []Record, year int, month time.Month, actionID string) int {
	n := 0
	for _, r := range records {
		if !matches(r, actionID) {
			continue
		}
		if y, m, _ := r.LoggedAt.Date(); y == year && m == month {
			n++
		}
	}
	return n
}

// ActiveDays returns the sorted day-of-month values in the given month that
// have at least one qualifying log.
func ActiveDays(records []Record, year int, month time.Month, actionID string) []int {
	seen := make(map[int]bool)
	for _, r := range records {
		if !matches(r, actionID) {
			continue
		}
		if y, m, d := r.LoggedAt.Date(); y == year && m == month {
			seen[d] = true
		}
	}

	days := make([]int, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

// CountByDay buckets all records by calendar day.
func CountByDay(records []Record) map[Date]int {
	byDay := make(map[Date]int, len(records))
	for _, r := range records {
		byDay[DateOf(r.LoggedAt)]++
	}
	return byDay
}

// Streak counts consecutive calendar days with at least one log, walking
// backward from today. A day without logs ends the walk, so an empty today
// yields 0. The action filter never applies here.
func Streak(records []Record, today Date) int {
	byDay := CountByDay(records)

	streak := 0
	for day := today; byDay[day] > 0; day = day.AddDays(-1) {
		streak++
	}
	return streak
}

// Calendar is the month view summary.
type Calendar struct {
	Year           int   `json:"year"`
	Month          int   `json:"month"` // 0-indexed, matching the browser client
	TotalThisMonth int   `json:"totalThisMonth"`
	ActiveDays     []int `json:"activeDays"`
	CurrentStreak  int   `json:"currentStreak"`
}

// Summarize computes the month view for year/month with an optional action
// filter. The streak is always computed over every record.
func Summarize(records []Record, year int, month time.Month, actionID string, today Date) Calendar {
	return Calendar{
		Year:           year,
		Month:          int(month) - 1,
		TotalThisMonth: MonthlyTotal(records, year, month, actionID),
		ActiveDays:     ActiveDays(records, year, month, actionID),
		CurrentStreak:  Streak(records, today),
	}
}
