package schedule

import (
	"fmt"
	"strings"
	"time"

	"scheduler/internal/model"
)

// Rule selects how a candidate event is compared against existing events.
type Rule string

const (
	// RuleContainment flags a conflict when either endpoint of the candidate
	// lies inside an existing event (bounds inclusive). A candidate that
	// strictly contains an existing event is NOT flagged.
	RuleContainment Rule = "containment"
	// RuleOverlap flags any intersection of the two closed intervals.
	RuleOverlap Rule = "overlap"
)

// ParseRule maps a config value onto a Rule. Empty means RuleContainment.
func ParseRule(s string) (Rule, error) {
	switch Rule(strings.ToLower(strings.TrimSpace(s))) {
	case "", RuleContainment:
		return RuleContainment, nil
	case RuleOverlap:
		return RuleOverlap, nil
	default:
		return "", fmt.Errorf("unknown conflict rule %q", s)
	}
}

// Conflicts reports whether candidate clashes with existing under the rule.
func (r Rule) Conflicts(candidate, existing model.Event) bool {
	if r == RuleOverlap {
		return Overlaps(candidate, existing)
	}
	return endpointInside(candidate, existing)
}

// FindConflict returns the first event in existing that clashes with
// candidate under the rule.
func (r Rule) FindConflict(candidate model.Event, existing []model.Event) (model.Event, bool) {
	for _, e := range existing {
		if r.Conflicts(candidate, e) {
			return e, true
		}
	}
	return model.Event{}, false
}

// HasConflict checks candidate against every existing event with the
// containment rule and stops at the first match.
func HasConflict(candidate model.Event, existing []model.Event) bool {
	_, ok := RuleContainment.FindConflict(candidate, existing)
	return ok
}

// Overlaps reports whether the closed intervals of a and b intersect:
// max(a.Start, b.Start) <= min(a.End, b.End).
func Overlaps(a, b model.Event) bool {
	lo := a.Start
	if b.Start.After(lo) {
		lo = b.Start
	}
	hi := a.End
	if b.End.Before(hi) {
		hi = b.End
	}
	return !lo.After(hi)
}

func endpointInside(candidate, e model.Event) bool {
	return within(candidate.Start, e) || within(candidate.End, e)
}

// within reports e.Start <= t <= e.End.
func within(t time.Time, e model.Event) bool {
	return !t.Before(e.Start) && !t.After(e.End)
}
