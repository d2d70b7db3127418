package ics

import (
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"scheduler/internal/model"
)

const productID = "-//scheduler//Inspection Calendar//EN"

// Options controls calendar-level properties of the export.
type Options struct {
	// Name is shown by calendar clients as the calendar title.
	Name string
	// Stamp is used as DTSTAMP on every event. Zero means time.Now.
	Stamp time.Time
}

// Build turns the event collection into an iCalendar document, one VEVENT
// per event in collection order. The event ID is used as UID.
func Build(events []model.Event, opts Options) *ical.Calendar {
	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ical.MethodPublish)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	for _, e := range events {
		ve := cal.AddEvent(e.ID)
		ve.SetDtStampTime(stamp.UTC())
		ve.SetStartAt(e.Start.UTC())
		ve.SetEndAt(e.End.UTC())
		ve.SetSummary(e.Title)
	}
	return cal
}

// Encode writes the collection to w as an iCalendar document.
func Encode(w io.Writer, events []model.Event, opts Options) error {
	_, err := io.WriteString(w, Build(events, opts).Serialize())
	return err
}
