// Package period implements calendar arithmetic for budget periods and
// recurring expenses. All values are calendar days represented as time.Time at
// 00:00 UTC; inputs in other locations are first reduced to their calendar date.
package period

import (
	"fmt"
	"time"
)

// Kind is a budget period.
type Kind string

const (
	Monthly Kind = "monthly"
	Yearly  Kind = "yearly"
)

// Valid reports whether k is a supported budget period.
func (k Kind) Valid() bool {
	return k == Monthly || k == Yearly
}

// Frequency is the repeat interval of a recurring expense.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Valid reports whether f is a supported recurrence frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// Day returns t's calendar date at midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthStart returns the first day of ref's month.
func MonthStart(ref time.Time) time.Time {
	return Date(ref.Year(), ref.Month(), 1)
}

// MonthEnd returns the last day of ref's month.
func MonthEnd(ref time.Time) time.Time {
	return Date(ref.Year(), ref.Month(), DaysIn(ref.Year(), ref.Month()))
}

// Range returns the inclusive first and last calendar day of the period of the
// given kind that contains ref.
func Range(kind Kind, ref time.Time) (start, end time.Time, err error) {
	switch kind {
	case Monthly:
		return MonthStart(ref), MonthEnd(ref), nil
	case Yearly:
		return Date(ref.Year(), time.January, 1), Date(ref.Year(), time.December, 31), nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("unknown period kind %q", kind)
}

// Overlaps reports whether the inclusive ranges [aStart, aEnd] and [bStart, bEnd] share a day.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !Day(aStart).After(Day(bEnd)) && !Day(bStart).After(Day(aEnd))
}

// Months returns the first day of every calendar month touched by [from, to],
// in chronological order.
func Months(from, to time.Time) []time.Time {
	var out []time.Time
	last := MonthStart(to)
	for m := MonthStart(from); !m.After(last); m = m.AddDate(0, 1, 0) {
		out = append(out, m)
	}
	return out
}

// Next returns the occurrence following current for the given frequency.
// Monthly and yearly steps land on the same day of month when it exists in
// the target month and on that month's last day otherwise, so 2024-01-31
// becomes 2024-02-29 and 2024-02-29 plus a year becomes 2025-02-28.
func Next(current time.Time, freq Frequency) (time.Time, error) {
	return NextAnchored(current, freq, current.Day())
}

// NextAnchored behaves like Next but monthly and yearly steps aim for
// anchorDay before clamping to the month's length. Passing the day of the
// first occurrence keeps a series on the 31st from drifting after a short month.
func NextAnchored(current time.Time, freq Frequency, anchorDay int) (time.Time, error) {
	cur := Day(current)
	if anchorDay < 1 || anchorDay > 31 {
		anchorDay = cur.Day()
	}

	switch freq {
	case FrequencyDaily:
		return cur.AddDate(0, 0, 1), nil
	case FrequencyWeekly:
		return cur.AddDate(0, 0, 7), nil
	case FrequencyMonthly:
		return addMonths(cur, 1, anchorDay), nil
	case FrequencyYearly:
		return addMonths(cur, 12, anchorDay), nil
	}
	return time.Time{}, fmt.Errorf("unknown recurrence frequency %q", freq)
}

func addMonths(t time.Time, months, anchorDay int) time.Time {
	// Normalise on the first of the month so time.Date never overflows the day.
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	day := anchorDay
	if last := DaysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return Date(first.Year(), first.Month(), day)
}
