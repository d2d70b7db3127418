package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"scheduler/internal/ics"
	appLog "scheduler/internal/log"
	"scheduler/internal/model"
	"scheduler/internal/picker"
	"scheduler/internal/schedule"
)

// Notice texts shown to the user after an editor action.
const (
	NoticeMissingFields = "Please fill in all fields"
	NoticeClash         = "Event clash detected!"
	NoticeAdded         = "Event added successfully!"
	NoticeUpdated       = "Event updated successfully!"
)

const (
	levelSuccess = "success"
	levelError   = "error"
)

// notice is a non-blocking message for the user.
type notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Events []model.Event `json:"events"`
}

// draftResponse describes the editor: its state, labels and current draft.
type draftResponse struct {
	State       string       `json:"state"`
	Open        bool         `json:"open"`
	Mode        string       `json:"mode"`
	Heading     string       `json:"heading"`
	CommitLabel string       `json:"commit_label"`
	Draft       model.Draft  `json:"draft"`
	Selected    *model.Event `json:"selected,omitempty"`
	Event       *model.Event `json:"event,omitempty"`
	Conflict    *model.Event `json:"conflict,omitempty"`
	Notice      *notice      `json:"notice,omitempty"`
}

type slotDTO struct {
	Time  time.Time `json:"time"`
	Label string    `json:"label"`
}

type slotsResponse struct {
	Date        string    `json:"date"`
	StepMinutes int       `json:"step_minutes"`
	Slots       []slotDTO `json:"slots"`
}

// draftLocked snapshots the editor. Caller holds s.mu.
func (s *Server) draftLocked() draftResponse {
	wf := s.workflow
	resp := draftResponse{
		State:       wf.State().String(),
		Open:        wf.State() != schedule.StateIdle,
		Mode:        wf.Mode(),
		Heading:     wf.Heading(),
		CommitLabel: wf.CommitLabel(),
		Draft:       wf.Draft(),
	}
	if sel, ok := wf.Selected(); ok {
		resp.Selected = &sel
	}
	return resp
}

func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, eventsResponse{Events: s.Events()})
}

func (s *Server) handleListRecords(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	records := s.records
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetDraft(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.draftLocked())
}

// handleOpenAdd opens the editor in add mode.
//
// POST /api/draft
func (s *Server) handleOpenAdd(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.workflow.OpenAdd(); err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.draftLocked())
}

// handleSelectEvent opens the editor on an event picked from the calendar.
//
// POST /api/events/{id}/select
func (s *Server) handleSelectEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.workflow.SelectEvent(id); err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.draftLocked())
}

// handleEditDraft applies field edits. Absent fields are left alone; a null
// start or end clears it.
//
// PATCH /api/draft {"title": "...", "start": "RFC3339"|null, "end": "RFC3339"|null}
func (s *Server) handleEditDraft(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var (
		title      *string
		start, end *time.Time
		setStart   bool
		setEnd     bool
	)
	if raw, ok := body["title"]; ok {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			writeError(w, http.StatusBadRequest, "title must be a string")
			return
		}
		title = &v
	}
	if raw, ok := body["start"]; ok {
		t, err := decodeTime(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start: "+err.Error())
			return
		}
		start, setStart = t, true
	}
	if raw, ok := body["end"]; ok {
		t, err := decodeTime(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end: "+err.Error())
			return
		}
		end, setEnd = t, true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wf := s.workflow
	if wf.State() == schedule.StateIdle {
		s.writeWorkflowError(w, fmt.Errorf("edit draft while idle: %w", schedule.ErrInvalidTransition))
		return
	}
	// Fields are validated above, so once the editor is open none of these
	// setters can fail.
	if title != nil {
		_ = wf.SetTitle(*title)
	}
	if setStart {
		_ = wf.SetStart(start)
	}
	if setEnd {
		_ = wf.SetEnd(end)
	}
	writeJSON(w, http.StatusOK, s.draftLocked())
}

// handleCommit adds the draft or updates the selected event.
//
// POST /api/draft/commit
func (s *Server) handleCommit(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	editing := s.workflow.State() == schedule.StateEditing
	stored, err := s.workflow.Commit()
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}

	resp := s.draftLocked()
	resp.Event = &stored
	status := http.StatusCreated
	resp.Notice = &notice{Level: levelSuccess, Message: NoticeAdded}
	if editing {
		status = http.StatusOK
		resp.Notice.Message = NoticeUpdated
	}
	writeJSON(w, status, resp)
}

// handleCancel closes the editor without touching the collection.
//
// DELETE /api/draft
func (s *Server) handleCancel(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.workflow.Cancel()
	writeJSON(w, http.StatusOK, s.draftLocked())
}

// handleSlots lists the selectable picker times for a day.
//
// GET /api/slots?date=2024-01-01 (default: today in the configured timezone)
func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	day := time.Now().In(s.loc)
	if q := r.URL.Query().Get("date"); q != "" {
		d, err := picker.ParseDay(q, s.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = d
	}

	step := s.cfg.SlotStep()
	slots, err := picker.Slots(day, step)
	if err != nil {
		appLog.Error("slot generation failed", err, "date", day.Format(picker.DateLayout))
		writeError(w, http.StatusInternalServerError, "failed to build slots")
		return
	}

	dtos := make([]slotDTO, 0, len(slots))
	for _, t := range slots {
		dtos = append(dtos, slotDTO{Time: t, Label: picker.Format(t)})
	}
	writeJSON(w, http.StatusOK, slotsResponse{
		Date:        day.Format(picker.DateLayout),
		StepMinutes: int(step / time.Minute),
		Slots:       dtos,
	})
}

// handleICS serves the collection as an iCalendar feed.
func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := ics.Encode(&buf, s.Events(), ics.Options{Name: "Inspections"}); err != nil {
		appLog.Error("ics encode failed", err)
		writeError(w, http.StatusInternalServerError, "failed to encode calendar")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="calendar.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// writeWorkflowError maps workflow errors onto responses. Validation and
// clash errors carry a notice and the unchanged editor state so the client
// can let the user correct the draft. Caller holds s.mu.
func (s *Server) writeWorkflowError(w http.ResponseWriter, err error) {
	var ce *schedule.ConflictError
	switch {
	case errors.Is(err, schedule.ErrValidation):
		resp := s.draftLocked()
		resp.Notice = &notice{Level: levelError, Message: NoticeMissingFields}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	case errors.As(err, &ce):
		resp := s.draftLocked()
		resp.Conflict = &ce.Existing
		resp.Notice = &notice{Level: levelError, Message: NoticeClash}
		writeJSON(w, http.StatusConflict, resp)
	case errors.Is(err, schedule.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, schedule.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		appLog.Error("workflow action failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeTime accepts an RFC 3339 string or null.
func decodeTime(raw json.RawMessage) (*time.Time, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.New("must be an RFC 3339 string or null")
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, errors.New("must be an RFC 3339 string or null")
	}
	return &t, nil
}
