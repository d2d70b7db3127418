package model

import (
	"encoding/json"
	"time"
)

// Event is a single entry of the calendar.
//
// ID is assigned once when the event enters the collection and never changes,
// so selection and replacement do not depend on where the event sits in the
// list.
type Event struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Draft is the event currently being composed or edited. Start and End stay
// nil until the user picks a value.
type Draft struct {
	Title string     `json:"title"`
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// DraftFromEvent pre-fills a Draft for edit mode.
func DraftFromEvent(e Event) Draft {
	start, end := e.Start, e.End
	return Draft{
		Title: e.Title,
		Start: &start,
		End:   &end,
	}
}

// Reset clears the draft back to its empty state.
func (d *Draft) Reset() {
	*d = Draft{}
}

func (d Draft) IsEmpty() bool {
	return d.Title == "" && d.Start == nil && d.End == nil
}

// Complete reports whether the draft has a title and both bounds set.
// The title is not trimmed: only the empty string is rejected.
func (d Draft) Complete() bool {
	return d.Title != "" && d.Start != nil && d.End != nil
}

// Event materializes the draft. Callers must check Complete first.
func (d Draft) Event(id string) Event {
	e := Event{ID: id, Title: d.Title}
	if d.Start != nil {
		e.Start = *d.Start
	}
	if d.End != nil {
		e.End = *d.End
	}
	return e
}

// Property is the inspected property attached to an inspection request.
type Property struct {
	Address string `json:"address"`
}

// Record is one inspection request as returned by the inbound data source.
// Only the fields the calendar needs are decoded; the full payload is kept in
// Raw and re-emitted unchanged when the record is marshaled.
type Record struct {
	Property     Property        `json:"property"`
	AssignedDate *string         `json:"assigned_date"`
	Raw          json.RawMessage `json:"-"`
}

func (r *Record) UnmarshalJSON(b []byte) error {
	type plain Record
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = Record(p)
	r.Raw = append(json.RawMessage(nil), b...)
	return nil
}

func (r Record) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	type plain Record
	return json.Marshal(plain(r))
}
