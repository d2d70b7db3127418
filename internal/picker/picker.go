// Package picker models the date/time pickers of the event editor: a fixed
// grid of selectable times per day.
package picker

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"
)

// DefaultStep is the spacing of selectable times.
const DefaultStep = 15 * time.Minute

// DisplayLayout matches the picker's "MMMM d, yyyy h:mm aa" format.
const DisplayLayout = "January 2, 2006 3:04 PM"

// DateLayout is the date-only form accepted by ParseDay.
const DateLayout = "2006-01-02"

// Slots returns every selectable time on the calendar day of day (in day's
// location), step apart, starting at midnight.
func Slots(day time.Time, step time.Duration) ([]time.Time, error) {
	if step <= 0 {
		step = DefaultStep
	}
	if step%time.Minute != 0 || step > 24*time.Hour {
		return nil, errors.New("picker: step must be a whole number of minutes within a day")
	}

	start := midnight(day)
	next := time.Date(start.Year(), start.Month(), start.Day()+1, 0, 0, 0, 0, start.Location())

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.MINUTELY,
		Interval: int(step / time.Minute),
		Dtstart:  start,
		Until:    next.Add(-time.Second),
	})
	if err != nil {
		return nil, err
	}
	return r.All(), nil
}

// Snap rounds t down onto the grid of its own day.
func Snap(t time.Time, step time.Duration) time.Time {
	if step <= 0 {
		step = DefaultStep
	}
	m := midnight(t)
	off := t.Sub(m)
	return m.Add(off - off%step)
}

// OnGrid reports whether t is a selectable time.
func OnGrid(t time.Time, step time.Duration) bool {
	return Snap(t, step).Equal(t)
}

// Format renders t the way the picker displays it.
func Format(t time.Time) string {
	return t.Format(DisplayLayout)
}

// ParseDay parses a YYYY-MM-DD date in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
