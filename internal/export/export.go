package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"scheduler/internal/config"
	"scheduler/internal/ics"
	appLog "scheduler/internal/log"
	"scheduler/internal/model"
)

// EventsFunc returns the current event collection.
type EventsFunc func() []model.Event

// Snapshotter writes the event collection to an ICS file on a cron schedule.
// The file is an export only and is never read back.
type Snapshotter struct {
	path   string
	spec   string
	name   string
	events EventsFunc
}

func NewSnapshotter(path, spec, name string, events EventsFunc) *Snapshotter {
	return &Snapshotter{
		path:   path,
		spec:   spec,
		name:   name,
		events: events,
	}
}

// WriteOnce encodes the current collection and atomically replaces the file.
func (s *Snapshotter) WriteOnce() error {
	if s.path == "" {
		return errors.New("export path is empty")
	}
	events := s.events()

	var buf bytes.Buffer
	if err := ics.Encode(&buf, events, ics.Options{Name: s.name}); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := config.WriteFileAtomic(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", s.path, err)
	}
	appLog.Info("ics snapshot written", "path", s.path, "event_count", len(events))
	return nil
}

// Run writes a snapshot immediately, then on every tick of the schedule until
// ctx is done. Failed writes are logged and retried on the next tick.
func (s *Snapshotter) Run(ctx context.Context) error {
	sched, err := cron.ParseStandard(s.spec)
	if err != nil {
		return fmt.Errorf("parse export cron %q: %w", s.spec, err)
	}

	c := cron.New()
	c.Schedule(sched, cron.FuncJob(func() {
		if err := s.WriteOnce(); err != nil {
			appLog.Error("ics snapshot failed", err, "path", s.path)
		}
	}))

	if err := s.WriteOnce(); err != nil {
		appLog.Error("initial ics snapshot failed", err, "path", s.path)
	}

	appLog.Info("ics snapshot schedule started", "path", s.path, "cron", s.spec)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
