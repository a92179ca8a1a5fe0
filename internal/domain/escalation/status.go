package escalation

import "sort"

// Status is the workflow state of an escalation.
type Status string

const (
	StatusSubmitted         Status = "SUBMITTED"
	StatusInDiscussion      Status = "IN_DISCUSSION"
	StatusResolvedBlocked   Status = "RESOLVED_BLOCKED"
	StatusResolvedLaunching Status = "RESOLVED_LAUNCHING"
	StatusResolvedLaunched  Status = "RESOLVED_LAUNCHED"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{
	StatusSubmitted,
	StatusInDiscussion,
	StatusResolvedBlocked,
	StatusResolvedLaunching,
	StatusResolvedLaunched,
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// IsResolved reports whether s is one of the RESOLVED_* outcomes.
func (s Status) IsResolved() bool {
	switch s {
	case StatusResolvedBlocked, StatusResolvedLaunching, StatusResolvedLaunched:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// transitions is the from → allowed-to table. Same-state moves are never
// allowed, so a repeated request cannot produce a second history row.
var transitions = map[Status]map[Status]bool{
	StatusSubmitted: {
		StatusInDiscussion:      true,
		StatusResolvedBlocked:   true,
		StatusResolvedLaunching: true,
		StatusResolvedLaunched:  true,
	},
	StatusInDiscussion: {
		StatusResolvedBlocked:   true,
		StatusResolvedLaunching: true,
		StatusResolvedLaunched:  true,
	},
	StatusResolvedLaunching: {
		StatusResolvedLaunched: true,
		StatusInDiscussion:     true,
	},
	StatusResolvedBlocked: {
		StatusInDiscussion: true,
	},
	StatusResolvedLaunched: {},
}

// CanTransition reports whether from → to is in the table.
func CanTransition(from, to Status) bool {
	return transitions[from][to]
}

// AllowedTransitions returns the targets reachable from s in workflow order.
func AllowedTransitions(s Status) []Status {
	out := make([]Status, 0, len(transitions[s]))
	for to := range transitions[s] {
		out = append(out, to)
	}
	sort.Slice(out, func(i, j int) bool { return rank(out[i]) < rank(out[j]) })
	return out
}

func rank(s Status) int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return len(Statuses)
}

// NextStatus is the suggested forward step shown to administrators:
// SUBMITTED → IN_DISCUSSION and RESOLVED_LAUNCHING → RESOLVED_LAUNCHED.
// Other states have no single suggestion.
func NextStatus(s Status) (Status, bool) {
	switch s {
	case StatusSubmitted:
		return StatusInDiscussion, true
	case StatusResolvedLaunching:
		return StatusResolvedLaunched, true
	}
	return "", false
}
