package services

import (
	"fmt"
	"time"
)

// LeadTimeCalendar offsets a due date backward by an item's lead time
type LeadTimeCalendar interface {
	ReleaseDate(due time.Time, leadTimeDays int) time.Time
}

// CalendarDays counts every day of the week
type CalendarDays struct{}

func (CalendarDays) ReleaseDate(due time.Time, leadTimeDays int) time.Time {
	return due.AddDate(0, 0, -leadTimeDays)
}

// BusinessDays skips Saturdays, Sundays and the listed holidays.
// A release date never lands on a non-working day.
type BusinessDays struct {
	Holidays map[string]bool // keyed by YYYY-MM-DD
}

func (b BusinessDays) ReleaseDate(due time.Time, leadTimeDays int) time.Time {
	day := due
	for remaining := leadTimeDays; remaining > 0; {
		day = day.AddDate(0, 0, -1)
		if b.working(day) {
			remaining--
		}
	}
	for !b.working(day) {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

func (b BusinessDays) working(day time.Time) bool {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !b.Holidays[day.Format(time.DateOnly)]
}

// NewLeadTimeCalendar returns the calendar registered under name
func NewLeadTimeCalendar(name string, holidays []string) (LeadTimeCalendar, error) {
	switch name {
	case "", "calendar":
		return CalendarDays{}, nil
	case "business":
		set := make(map[string]bool, len(holidays))
		for _, h := range holidays {
			if _, err := time.Parse(time.DateOnly, h); err != nil {
				return nil, fmt.Errorf("invalid holiday %q: %w", h, err)
			}
			set[h] = true
		}
		return BusinessDays{Holidays: set}, nil
	default:
		return nil, fmt.Errorf("unknown lead time calendar %q", name)
	}
}
