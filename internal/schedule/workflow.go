package schedule

import (
	"fmt"
	"time"

	appLog "scheduler/internal/log"
	"scheduler/internal/model"
)

// State is the position of the add/edit workflow.
type State int

const (
	StateIdle      State = iota // editor closed
	StateComposing              // editor open, adding a new event
	StateEditing                // editor open on a selected event
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateComposing:
		return "composing"
	case StateEditing:
		return "editing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Mode strings exposed to the editor.
const (
	ModeAdd  = "add"
	ModeEdit = "edit"
)

// Options tunes commit behavior.
type Options struct {
	// Rule is used for the conflict check on add. Zero value means
	// RuleContainment.
	Rule Rule
	// RecheckOnEdit runs the conflict check on update as well, ignoring the
	// event being edited. Off by default: updates are saved without a check.
	RecheckOnEdit bool
}

// Workflow routes editor actions onto the event store. It tracks the draft
// and which event, if any, is being edited.
//
// A Workflow is not safe for concurrent use.
type Workflow struct {
	store    *Store
	opts     Options
	state    State
	selected string
	draft    model.Draft
}

func NewWorkflow(store *Store, opts Options) *Workflow {
	if store == nil {
		store = NewStore()
	}
	if opts.Rule == "" {
		opts.Rule = RuleContainment
	}
	return &Workflow{
		store: store,
		opts:  opts,
	}
}

func (w *Workflow) State() State { return w.state }

func (w *Workflow) Draft() model.Draft { return w.draft }

// Events returns the current collection in display order.
func (w *Workflow) Events() []model.Event { return w.store.List() }

// Selected returns the event being edited.
func (w *Workflow) Selected() (model.Event, bool) {
	if w.state != StateEditing {
		return model.Event{}, false
	}
	return w.store.Get(w.selected)
}

// Mode is "edit" while an event is selected and "add" otherwise.
func (w *Workflow) Mode() string {
	if w.state == StateEditing {
		return ModeEdit
	}
	return ModeAdd
}

func (w *Workflow) Heading() string {
	if w.state == StateEditing {
		return "Edit Event"
	}
	return "Add New Event"
}

func (w *Workflow) CommitLabel() string {
	if w.state == StateEditing {
		return "Update Event"
	}
	return "Add Event"
}

// OpenAdd opens the editor with an empty draft.
func (w *Workflow) OpenAdd() error {
	if w.state != StateIdle {
		return fmt.Errorf("open add from %s: %w", w.state, ErrInvalidTransition)
	}
	w.draft.Reset()
	w.selected = ""
	w.state = StateComposing
	appLog.Debug("workflow open add")
	return nil
}

// SelectEvent opens the editor on an existing event, pre-filling the draft.
func (w *Workflow) SelectEvent(id string) error {
	if w.state != StateIdle {
		return fmt.Errorf("select event from %s: %w", w.state, ErrInvalidTransition)
	}
	e, ok := w.store.Get(id)
	if !ok {
		return fmt.Errorf("select event %q: %w", id, ErrNotFound)
	}
	w.draft = model.DraftFromEvent(e)
	w.selected = e.ID
	w.state = StateEditing
	appLog.Debug("workflow open edit", "id", e.ID, "title", e.Title)
	return nil
}

// OpenEdit is SelectEvent under the name the editor uses.
func (w *Workflow) OpenEdit(id string) error {
	return w.SelectEvent(id)
}

func (w *Workflow) SetTitle(title string) error {
	if err := w.requireOpen("set title"); err != nil {
		return err
	}
	w.draft.Title = title
	return nil
}

// SetStart sets or, with nil, clears the draft start.
func (w *Workflow) SetStart(t *time.Time) error {
	if err := w.requireOpen("set start"); err != nil {
		return err
	}
	w.draft.Start = copyTime(t)
	return nil
}

// SetEnd sets or, with nil, clears the draft end.
func (w *Workflow) SetEnd(t *time.Time) error {
	if err := w.requireOpen("set end"); err != nil {
		return err
	}
	w.draft.End = copyTime(t)
	return nil
}

// Commit appends the draft as a new event or replaces the selected event.
// On any error the state and the draft are left as they were so the user can
// correct them.
func (w *Workflow) Commit() (model.Event, error) {
	switch w.state {
	case StateComposing:
		return w.commitAdd()
	case StateEditing:
		return w.commitUpdate()
	default:
		return model.Event{}, fmt.Errorf("commit from %s: %w", w.state, ErrInvalidTransition)
	}
}

func (w *Workflow) commitAdd() (model.Event, error) {
	if !w.draft.Complete() {
		return model.Event{}, ErrValidation
	}
	candidate := w.draft.Event("")
	if existing, clash := w.opts.Rule.FindConflict(candidate, w.store.List()); clash {
		err := &ConflictError{Candidate: candidate, Existing: existing}
		appLog.Info("workflow add rejected", "reason", err.Error())
		return model.Event{}, err
	}

	stored := w.store.Append(candidate)
	w.close()
	appLog.Info("event added", "id", stored.ID, "title", stored.Title, "count", w.store.Len())
	return stored, nil
}

func (w *Workflow) commitUpdate() (model.Event, error) {
	if !w.draft.Complete() {
		return model.Event{}, ErrValidation
	}
	candidate := w.draft.Event(w.selected)

	if w.opts.RecheckOnEdit {
		others := make([]model.Event, 0, w.store.Len())
		for _, e := range w.store.List() {
			if e.ID != w.selected {
				others = append(others, e)
			}
		}
		if existing, clash := w.opts.Rule.FindConflict(candidate, others); clash {
			err := &ConflictError{Candidate: candidate, Existing: existing}
			appLog.Info("workflow update rejected", "reason", err.Error())
			return model.Event{}, err
		}
	}

	stored, err := w.store.Replace(w.selected, candidate)
	if err != nil {
		return model.Event{}, fmt.Errorf("update event %q: %w", w.selected, err)
	}
	w.close()
	appLog.Info("event updated", "id", stored.ID, "title", stored.Title)
	return stored, nil
}

// Cancel closes the editor, discarding the draft. The collection is not
// touched. Cancelling while idle is a no-op.
func (w *Workflow) Cancel() {
	if w.state == StateIdle {
		return
	}
	appLog.Debug("workflow cancel", "from", w.state.String())
	w.close()
}

func (w *Workflow) close() {
	w.draft.Reset()
	w.selected = ""
	w.state = StateIdle
}

func (w *Workflow) requireOpen(action string) error {
	if w.state == StateIdle {
		return fmt.Errorf("%s while idle: %w", action, ErrInvalidTransition)
	}
	return nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
