package booking

import "github.com/iliyamo/service-booking/internal/model"

// transitions is the table of permitted status edges.  Statuses without an
// entry are terminal.
var transitions = map[model.Status][]model.Status{
	model.StatusRequested: {model.StatusAccepted, model.StatusRejected},
	model.StatusAccepted:  {model.StatusCompleted},
}

// CanTransition reports whether a booking in status from may move to to.
func CanTransition(from, to model.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Successors returns the statuses reachable in one step from from.  The
// returned slice is a copy.
func Successors(from model.Status) []model.Status {
	next := transitions[from]
	out := make([]model.Status, len(next))
	copy(out, next)
	return out
}
