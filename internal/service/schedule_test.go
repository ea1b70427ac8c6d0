package service

import (
	"testing"
	"time"

	"finledger/internal/model"
)

func TestIsDue(t *testing.T) {
	end := day(2024, time.June, 30)

	tests := []struct {
		name     string
		template model.RecurringTemplate
		day      time.Time
		want     bool
	}{
		{
			name:     "daily every other day hit",
			template: model.RecurringTemplate{Pattern: model.PatternDaily, Interval: 2, StartDate: day(2024, time.January, 1)},
			day:      day(2024, time.January, 5),
			want:     true,
		},
		{
			name:     "daily every other day miss",
			template: model.RecurringTemplate{Pattern: model.PatternDaily, Interval: 2, StartDate: day(2024, time.January, 1)},
			day:      day(2024, time.January, 4),
		},
		{
			name:     "weekly",
			template: model.RecurringTemplate{Pattern: model.PatternWeekly, Interval: 1, StartDate: day(2024, time.January, 1)},
			day:      day(2024, time.January, 22),
			want:     true,
		},
		{
			name:     "biweekly off week",
			template: model.RecurringTemplate{Pattern: model.PatternWeekly, Interval: 2, StartDate: day(2024, time.January, 1)},
			day:      day(2024, time.January, 8),
		},
		{
			name:     "monthly on start day",
			template: model.RecurringTemplate{Pattern: model.PatternMonthly, Interval: 1, StartDate: day(2024, time.January, 15)},
			day:      day(2024, time.April, 15),
			want:     true,
		},
		{
			name:     "monthly day 31 clamps in leap february",
			template: model.RecurringTemplate{Pattern: model.PatternMonthly, Interval: 1, DayOfMonth: 31, StartDate: day(2024, time.January, 1)},
			day:      day(2024, time.February, 29),
			want:     true,
		},
		{
			name:     "monthly day 31 clamps in april",
			template: model.RecurringTemplate{Pattern: model.PatternMonthly, Interval: 1, DayOfMonth: 31, StartDate: day(2024, time.January, 1)},
			day:      day(2024, time.April, 30),
			want:     true,
		},
		{
			name:     "quarterly skips months",
			template: model.RecurringTemplate{Pattern: model.PatternMonthly, Interval: 3, StartDate: day(2024, time.January, 10)},
			day:      day(2024, time.February, 10),
		},
		{
			name:     "yearly leap day clamps",
			template: model.RecurringTemplate{Pattern: model.PatternYearly, Interval: 1, StartDate: day(2024, time.February, 29)},
			day:      day(2025, time.February, 28),
			want:     true,
		},
		{
			name:     "before start",
			template: model.RecurringTemplate{Pattern: model.PatternDaily, Interval: 1, StartDate: day(2024, time.January, 10)},
			day:      day(2024, time.January, 9),
		},
		{
			name:     "after end",
			template: model.RecurringTemplate{Pattern: model.PatternDaily, Interval: 1, StartDate: day(2024, time.January, 1), EndDate: &end},
			day:      day(2024, time.July, 1),
		},
		{
			name:     "unknown pattern",
			template: model.RecurringTemplate{Pattern: "hourly", Interval: 1, StartDate: day(2024, time.January, 1)},
			day:      day(2024, time.January, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDue(&tt.template, tt.day); got != tt.want {
				t.Fatalf("IsDue = %v, want %v", got, tt.want)
			}
		})
	}
}
