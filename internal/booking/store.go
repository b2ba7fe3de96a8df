// Package booking owns the booking collection: creation, the status state
// machine, role-scoped snapshots and aggregate counts.  The Store is purely
// in-memory; Service layers persistence and event publication on top of it.
package booking

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/iliyamo/service-booking/internal/model"
)

// entry is the store's private record of one booking.
type entry struct {
	b       model.Booking
	history []model.StatusChange
	pending *pendingChange
}

// pendingChange remembers how to undo a tentative mutation.
type pendingChange struct {
	created     bool
	from        model.Status
	prevUpdated time.Time
}

// Store holds bookings in insertion order.  All methods are safe for
// concurrent use and every mutation is atomic with respect to the others.
// Callers only ever receive copies.
type Store struct {
	mu       sync.RWMutex
	entries  []*entry
	index    map[uint64]*entry
	nextID   uint64
	revision uint64
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns an empty store whose first booking gets id 1.
func NewStore(opts ...Option) *Store {
	s := &Store{
		index:  make(map[uint64]*entry),
		nextID: 1,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create validates in, assigns a fresh id and appends a booking in status
// requested.
func (s *Store) Create(in NewBooking) (model.Booking, error) {
	return s.create(in, false)
}

// CreateTentative is Create for a booking whose persistence has not been
// confirmed yet.  The booking is visible immediately with Tentative set and
// must be settled with Confirm or Rollback.
func (s *Store) CreateTentative(in NewBooking) (model.Booking, error) {
	return s.create(in, true)
}

func (s *Store) create(in NewBooking, tentative bool) (model.Booking, error) {
	in = in.normalize()
	if err := in.Validate(); err != nil {
		return model.Booking{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e := &entry{b: model.Booking{
		ID:           s.nextID,
		ProviderID:   in.ProviderID,
		ProviderName: in.ProviderName,
		CustomerID:   in.CustomerID,
		CustomerName: in.CustomerName,
		Service:      in.Service,
		Date:         in.Date,
		Status:       model.StatusRequested,
		CreatedAt:    now,
		UpdatedAt:    now,
	}}
	s.nextID++
	if tentative {
		e.pending = &pendingChange{created: true}
		e.b.Tentative = true
	}
	s.entries = append(s.entries, e)
	s.index[e.b.ID] = e
	s.revision++
	return e.b, nil
}

// UpdateStatus moves booking id to status to.  The change must follow the
// transition table; otherwise an *InvalidTransitionError is returned and the
// booking is left untouched.  Only the status and update time change.
func (s *Store) UpdateStatus(id uint64, to model.Status) (model.Booking, error) {
	return s.update(id, to, 0, "", false)
}

// UpdateStatusTentative is UpdateStatus for a change that still needs
// persistence confirmation.  actorID and notes are recorded in the status
// history; notes is trimmed and limited to MaxNotesLength characters.
func (s *Store) UpdateStatusTentative(id uint64, to model.Status, actorID uint64, notes string) (model.Booking, error) {
	return s.update(id, to, actorID, notes, true)
}

func (s *Store) update(id uint64, to model.Status, actorID uint64, notes string, tentative bool) (model.Booking, error) {
	if !to.Valid() {
		return model.Booking{}, &ValidationError{Issues: []FieldIssue{{
			Field:   "status",
			Message: "must be one of " + joinStatuses(model.Statuses),
		}}}
	}
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) > MaxNotesLength {
		return model.Booking{}, &ValidationError{Issues: []FieldIssue{{
			Field:   "notes",
			Message: fmt.Sprintf("must not exceed %d characters", MaxNotesLength),
		}}}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.index[id]
	if !ok {
		return model.Booking{}, &NotFoundError{ID: id}
	}
	if e.pending != nil {
		return model.Booking{}, fmt.Errorf("booking %d: %w", id, ErrSyncPending)
	}
	from := e.b.Status
	if !CanTransition(from, to) {
		return model.Booking{}, &InvalidTransitionError{ID: id, From: from, To: to}
	}

	now := s.now()
	if tentative {
		e.pending = &pendingChange{from: from, prevUpdated: e.b.UpdatedAt}
		e.b.Tentative = true
	}
	e.b.Status = to
	e.b.UpdatedAt = now
	e.history = append(e.history, model.StatusChange{
		BookingID: id,
		From:      from,
		To:        to,
		ChangedBy: actorID,
		Notes:     notes,
		At:        now,
	})
	s.revision++
	return e.b, nil
}

// Confirm marks the pending change of booking id as persisted.  Confirming a
// booking without a pending change is a no-op.
func (s *Store) Confirm(id uint64) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.index[id]
	if !ok {
		return model.Booking{}, &NotFoundError{ID: id}
	}
	if e.pending != nil {
		e.pending = nil
		e.b.Tentative = false
		s.revision++
	}
	return e.b, nil
}

// Rollback undoes the pending change of booking id.  A tentative creation is
// withdrawn entirely (its id is not handed out again); a tentative status
// change restores the previous status and drops its history entry.
func (s *Store) Rollback(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.index[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	p := e.pending
	if p == nil {
		return nil
	}
	if p.created {
		delete(s.index, id)
		for i, other := range s.entries {
			if other == e {
				s.entries = append(s.entries[:i], s.entries[i+1:]...)
				break
			}
		}
	} else {
		e.b.Status = p.from
		e.b.UpdatedAt = p.prevUpdated
		if n := len(e.history); n > 0 {
			e.history = e.history[:n-1]
		}
		e.b.Tentative = false
		e.pending = nil
	}
	s.revision++
	return nil
}

// Get returns a copy of booking id.
func (s *Store) Get(id uint64) (model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.index[id]
	if !ok {
		return model.Booking{}, &NotFoundError{ID: id}
	}
	return e.b, nil
}

// History returns the status changes of booking id, oldest first.
func (s *Store) History(id uint64) ([]model.StatusChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.index[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	out := make([]model.StatusChange, len(e.history))
	copy(out, e.history)
	return out, nil
}

// List returns the bookings matching f in insertion order.  The result is
// never nil.
func (s *Store) List(f Filter) []model.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Booking, 0, len(s.entries))
	for _, e := range s.entries {
		if f.Match(e.b) {
			out = append(out, e.b)
		}
	}
	return out
}

// Recent returns up to n bookings matching f, newest first.
func (s *Store) Recent(f Filter, n int) []model.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Booking, 0, n)
	for i := len(s.entries) - 1; i >= 0 && len(out) < n; i-- {
		if f.Match(s.entries[i].b) {
			out = append(out, s.entries[i].b)
		}
	}
	return out
}

// Upcoming returns the bookings matching f that are still in progress and
// dated on or after today, ordered by date and then id.
func (s *Store) Upcoming(f Filter, today time.Time) []model.Booking {
	from := today.Format(DateLayout)
	out := make([]model.Booking, 0)
	for _, b := range s.List(f) {
		if !b.Status.Terminal() && b.Date >= from {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Stats aggregates the bookings matching f, including creations per month
// for the last StatsMonths months.
func (s *Store) Stats(f Filter) Stats {
	bs := s.List(f)
	st := Summarize(bs)
	st.Monthly = Monthly(bs, s.now(), StatsMonths)
	return st
}

// Revision increases on every mutation.  Two reads with the same revision
// observe the same data.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Restore replaces the store contents with records loaded from persistence.
// Records keep their ids; new bookings continue after the highest one.
func (s *Store) Restore(records []Record) error {
	entries := make([]*entry, 0, len(records))
	index := make(map[uint64]*entry, len(records))
	var maxID uint64
	for _, r := range records {
		if r.Booking.ID == 0 {
			return fmt.Errorf("restore: booking without id")
		}
		if _, dup := index[r.Booking.ID]; dup {
			return fmt.Errorf("restore: duplicate booking id %d", r.Booking.ID)
		}
		if !r.Booking.Status.Valid() {
			return fmt.Errorf("restore: booking %d has unknown status %q", r.Booking.ID, r.Booking.Status)
		}
		e := &entry{b: r.Booking, history: append([]model.StatusChange(nil), r.History...)}
		e.b.Tentative = false
		entries = append(entries, e)
		index[e.b.ID] = e
		if e.b.ID > maxID {
			maxID = e.b.ID
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	s.index = index
	if maxID+1 > s.nextID {
		s.nextID = maxID + 1
	}
	s.revision++
	return nil
}

func joinStatuses(ss []model.Status) string {
	parts := make([]string, len(ss))
	for i, st := range ss {
		parts[i] = string(st)
	}
	return strings.Join(parts, ", ")
}
