package source

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"scheduler/internal/model"
)

const payload = `[
  {"id": 1, "property": {"address": "12 Elm St"}, "assigned_date": "2024-01-01T10:00:00Z", "status": "scheduled"},
  {"id": 2, "property": {"address": "4 Oak Ave"}, "assigned_date": null},
  {"id": 3, "property": {"address": "9 Pine Rd"}},
  {"id": 4, "property": {"address": "7 Birch Ln"}, "assigned_date": "2024-01-02T08:30:00+02:00"}
]`

func TestToEvents(t *testing.T) {
	var records []model.Record
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		t.Fatal(err)
	}

	events := ToEvents(records)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	want := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	first := events[0]
	if first.Title != "12 Elm St" {
		t.Errorf("title = %q", first.Title)
	}
	if !first.Start.Equal(want) || !first.End.Equal(want) {
		t.Errorf("expected start = end = %s, got %s / %s", want, first.Start, first.End)
	}

	second := events[1]
	if second.Title != "7 Birch Ln" {
		t.Errorf("title = %q", second.Title)
	}
	if !second.Start.Equal(time.Date(2024, 1, 2, 6, 30, 0, 0, time.UTC)) {
		t.Errorf("offset not honored: %s", second.Start)
	}
}

func TestToEventsNullDate(t *testing.T) {
	records := []model.Record{{Property: model.Property{Address: "x"}, AssignedDate: nil}}
	if got := ToEvents(records); len(got) != 0 {
		t.Errorf("expected no events, got %d", len(got))
	}
}

func TestToEventsSkipsUnparseable(t *testing.T) {
	bad := "next tuesday"
	records := []model.Record{{Property: model.Property{Address: "x"}, AssignedDate: &bad}}
	if got := ToEvents(records); len(got) != 0 {
		t.Errorf("expected no events, got %d", len(got))
	}
}

func TestFetchAndLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/inspection-requests" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL+"/api/inspection-requests", time.Second)
	res := LoadInitial(context.Background(), f)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(res.Records) != 4 {
		t.Errorf("expected 4 records, got %d", len(res.Records))
	}
	if len(res.Events) != 2 {
		t.Errorf("expected 2 events, got %d", len(res.Events))
	}

	// Raw records keep fields the calendar does not decode.
	raw, err := json.Marshal(res.Records[0])
	if err != nil {
		t.Fatal(err)
	}
	var back map[string]any
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	if back["status"] != "scheduled" {
		t.Errorf("raw record lost extra fields: %s", raw)
	}
}

func TestLoadInitialFailureYieldsEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"not": "an array"`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			res := LoadInitial(context.Background(), NewFetcher(srv.URL, time.Second))
			var fe *FetchError
			if !errors.As(res.Err, &fe) {
				t.Fatalf("expected *FetchError, got %v", res.Err)
			}
			if res.Events == nil || len(res.Events) != 0 {
				t.Errorf("expected empty, non-nil events, got %v", res.Events)
			}
		})
	}
}

func TestFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewFetcher(url, time.Second).Fetch(context.Background())
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
}

func TestFetchEmptyURL(t *testing.T) {
	if _, err := NewFetcher("", 0).Fetch(context.Background()); err == nil {
		t.Error("expected error for empty URL")
	}
}

func TestRedactURL(t *testing.T) {
	tests := map[string]string{
		"http://192.168.1.42:5000/api/inspection-requests?token=x": "http://192.168.1.42:5000/...(redacted)",
		"https://example.com":                                     "https://example.com/...(redacted)",
		"not a url":                                               "source://...(redacted)",
	}
	for in, want := range tests {
		if got := redactURL(in); got != want {
			t.Errorf("redactURL(%q) = %q, want %q", in, got, want)
		}
	}
}
