package service

import (
	"fmt"
	"time"

	"finledger/internal/model"
)

// IsDue reports whether day is an occurrence of the template's schedule.
// Monthly occurrences fall on DayOfMonth (default: the start day), clamped
// to the last day of short months; yearly ones repeat the start month and
// day with the same clamping.
func IsDue(t *model.RecurringTemplate, day time.Time) bool {
	day = model.DateOnly(day)
	start := model.DateOnly(t.StartDate)
	if day.Before(start) {
		return false
	}
	if t.EndDate != nil && day.After(model.DateOnly(*t.EndDate)) {
		return false
	}

	interval := t.Interval
	if interval < 1 {
		interval = 1
	}

	switch t.Pattern {
	case model.PatternDaily:
		return daysBetween(start, day)%interval == 0
	case model.PatternWeekly:
		return daysBetween(start, day)%(7*interval) == 0
	case model.PatternMonthly:
		if monthsBetween(start, day)%interval != 0 {
			return false
		}
		want := t.DayOfMonth
		if want < 1 {
			want = start.Day()
		}
		return day.Day() == clampDay(day.Year(), day.Month(), want)
	case model.PatternYearly:
		if (day.Year()-start.Year())%interval != 0 || day.Month() != start.Month() {
			return false
		}
		return day.Day() == clampDay(day.Year(), day.Month(), start.Day())
	}
	return false
}

func validateSchedule(pattern string, interval, dayOfMonth int, start time.Time, end *time.Time) error {
	switch pattern {
	case model.PatternDaily, model.PatternWeekly, model.PatternMonthly, model.PatternYearly:
	default:
		return fmt.Errorf("%w: unknown recurrence pattern %q", ErrInvalidRequest, pattern)
	}
	if interval < 1 {
		return fmt.Errorf("%w: interval must be at least 1", ErrInvalidRequest)
	}
	if dayOfMonth < 0 || dayOfMonth > 31 {
		return fmt.Errorf("%w: day of month must be between 1 and 31", ErrInvalidRequest)
	}
	if start.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidRequest)
	}
	if end != nil && model.DateOnly(*end).Before(model.DateOnly(start)) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidRequest)
	}
	return nil
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func clampDay(year int, month time.Month, day int) int {
	if n := daysIn(year, month); day > n {
		return n
	}
	return day
}
