package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	appLog "scheduler/internal/log"
	"scheduler/internal/model"
)

// ToEvents maps inspection requests onto calendar events.
//
// Records without an assigned date are dropped. The property address becomes
// the title and the assigned date is used as both start and end, so every
// loaded event has zero duration.
func ToEvents(records []model.Record) []model.Event {
	events := make([]model.Event, 0, len(records))
	for i, rec := range records {
		if rec.AssignedDate == nil || strings.TrimSpace(*rec.AssignedDate) == "" {
			continue
		}
		at, err := parseAssignedDate(*rec.AssignedDate)
		if err != nil {
			appLog.Error("source: skipping record with unparseable assigned_date", err,
				"index", i, "assigned_date", *rec.AssignedDate)
			continue
		}
		events = append(events, model.Event{
			Title: rec.Property.Address,
			Start: at,
			End:   at,
		})
	}
	return events
}

// Result is the outcome of the start-up load.
type Result struct {
	Records []model.Record
	Events  []model.Event
	// Err is the recovered fetch failure, if any. Records and Events are
	// empty when it is set.
	Err error
}

// LoadInitial is the explicit start-up step: fetch once, map to events.
// A failure is logged and yields an empty collection; it never aborts
// start-up.
func LoadInitial(ctx context.Context, f *Fetcher) Result {
	records, err := f.Fetch(ctx)
	if err != nil {
		appLog.Error("initial load failed; starting with an empty calendar", err)
		return Result{
			Records: []model.Record{},
			Events:  []model.Event{},
			Err:     err,
		}
	}

	events := ToEvents(records)
	appLog.Info("initial load completed", "record_count", len(records), "event_count", len(events))
	return Result{
		Records: records,
		Events:  events,
	}
}

// parseAssignedDate accepts RFC 3339 timestamps and, as a fallback, the
// timezone-less forms some backends emit, read as UTC.
func parseAssignedDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format %q", v)
}
