package booking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/service-booking/internal/model"
)

// ErrSyncPending is returned when a booking still has a change waiting for
// persistence confirmation.  Callers may retry once the change settles.
var ErrSyncPending = errors.New("booking has an unconfirmed change")

// ErrPersistence wraps failures of the backing repository so handlers can
// tell them apart from domain errors.
var ErrPersistence = errors.New("booking persistence failed")

// FieldIssue describes one invalid input field.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports missing or malformed booking input.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Field+" "+is.Message)
	}
	return "invalid booking: " + strings.Join(parts, "; ")
}

// InvalidTransitionError is returned when the requested status is not a
// successor of the booking's current status.
type InvalidTransitionError struct {
	ID   uint64
	From model.Status
	To   model.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("booking %d: cannot change status from %s to %s", e.ID, e.From, e.To)
}

// NotFoundError is returned for operations on an unknown booking id.
type NotFoundError struct {
	ID uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("booking %d not found", e.ID)
}
