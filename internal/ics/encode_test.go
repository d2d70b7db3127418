package ics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"scheduler/internal/model"
)

func TestEncode(t *testing.T) {
	events := []model.Event{
		{ID: "a-1", Title: "12 Elm St", Start: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{ID: "b-2", Title: "Roof check", Start: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 2, 11, 30, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	err := Encode(&buf, events, Options{
		Name:  "Inspections",
		Stamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	body := buf.String()

	for _, field := range []string{
		"BEGIN:VCALENDAR",
		"PRODID:" + productID,
		"METHOD:PUBLISH",
		"X-WR-CALNAME:Inspections",
		"UID:a-1",
		"SUMMARY:Roof check",
		"DTSTART:20240102T090000Z",
		"DTEND:20240102T113000Z",
		"END:VCALENDAR",
	} {
		if !strings.Contains(body, field) {
			t.Errorf("ICS output missing %q", field)
		}
	}
	if n := strings.Count(body, "BEGIN:VEVENT"); n != 2 {
		t.Errorf("expected 2 VEVENTs, got %d", n)
	}

	cal, err := ical.ParseCalendar(strings.NewReader(body))
	if err != nil {
		t.Fatalf("output does not parse: %v", err)
	}
	parsed := cal.Events()
	if len(parsed) != 2 {
		t.Fatalf("parsed %d events", len(parsed))
	}
	if uid := parsed[0].GetProperty(ical.ComponentPropertyUniqueId); uid == nil || uid.Value != "a-1" {
		t.Errorf("first UID = %v", uid)
	}
	start, err := parsed[1].GetStartAt()
	if err != nil {
		t.Fatal(err)
	}
	if !start.Equal(events[1].Start) {
		t.Errorf("start = %s, want %s", start, events[1].Start)
	}
}

func TestEncodeEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, nil, Options{}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "BEGIN:VEVENT") {
		t.Error("empty collection should produce no events")
	}
	if strings.Contains(buf.String(), "X-WR-CALNAME") {
		t.Error("calendar name should be omitted when empty")
	}
}
