package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iliyamo/service-booking/internal/model"
	"github.com/iliyamo/service-booking/internal/queue"
)

// EventPublisher delivers booking events to interested consumers.
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, ev queue.BookingEvent) error
}

const (
	// publishTimeout bounds one delivery attempt to the broker.
	publishTimeout = 2 * time.Second
	// eventBuffer is how many events may wait for delivery before new ones
	// are dropped.
	eventBuffer = 256
)

// Service applies mutations to the Store and reconciles them with the
// Repository.  Every mutation is applied as tentative first, then confirmed
// once the repository accepts it or rolled back when it fails, so the
// in-memory state never diverges from what was persisted.
//
// Events are handed to a single background sender, so a slow or
// unreachable broker never delays a mutation.  Close stops the sender.
//
// Service trusts its caller's authorization; the session gate runs first.
type Service struct {
	store  *Store
	repo   Repository
	events EventPublisher
	log    zerolog.Logger

	mu      sync.RWMutex
	pending chan queue.BookingEvent
	closed  bool
	done    chan struct{}
}

// NewService wires a Service.  events may be nil to disable publishing.
func NewService(store *Store, repo Repository, events EventPublisher, log zerolog.Logger) *Service {
	return newService(store, repo, events, log, eventBuffer)
}

func newService(store *Store, repo Repository, events EventPublisher, log zerolog.Logger, buffer int) *Service {
	if store == nil || repo == nil {
		panic("nil store or repository passed to NewService")
	}
	s := &Service{store: store, repo: repo, events: events, log: log.With().Str("component", "booking").Logger()}
	if events != nil {
		s.pending = make(chan queue.BookingEvent, buffer)
		s.done = make(chan struct{})
		go s.dispatch()
	}
	return s
}

// Store exposes the underlying store for read operations.
func (s *Service) Store() *Store { return s.store }

// Load fills the store from the repository.
func (s *Service) Load(ctx context.Context) error {
	records, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load bookings: %w: %w", ErrPersistence, err)
	}
	if err := s.store.Restore(records); err != nil {
		return err
	}
	s.log.Info().Int("bookings", len(records)).Msg("bookings loaded")
	return nil
}

// Create adds a booking on behalf of actor and persists it.
func (s *Service) Create(ctx context.Context, actor model.Identity, in NewBooking) (model.Booking, error) {
	b, err := s.store.CreateTentative(in)
	if err != nil {
		return model.Booking{}, err
	}
	if err := s.repo.SaveBooking(ctx, b); err != nil {
		if rbErr := s.store.Rollback(b.ID); rbErr != nil {
			s.log.Error().Err(rbErr).Uint64("booking_id", b.ID).Msg("rollback failed")
		}
		s.log.Warn().Err(err).Uint64("booking_id", b.ID).Msg("booking not persisted, creation withdrawn")
		return model.Booking{}, fmt.Errorf("save booking %d: %w: %w", b.ID, ErrPersistence, err)
	}
	b, err = s.store.Confirm(b.ID)
	if err != nil {
		return model.Booking{}, err
	}
	s.log.Info().Uint64("booking_id", b.ID).Uint64("provider_id", b.ProviderID).Msg("booking created")
	s.publish(newEvent(queue.EventBookingCreated, b, "", actor))
	return b, nil
}

// UpdateStatus moves booking id to status to on behalf of actor and
// persists the change together with its history entry.  notes is optional
// and kept with the history entry.
func (s *Service) UpdateStatus(ctx context.Context, actor model.Identity, id uint64, to model.Status, notes string) (model.Booking, error) {
	b, err := s.store.UpdateStatusTentative(id, to, actor.ID, notes)
	if err != nil {
		return model.Booking{}, err
	}
	history, err := s.store.History(id)
	if err != nil || len(history) == 0 {
		if rbErr := s.store.Rollback(id); rbErr != nil {
			s.log.Error().Err(rbErr).Uint64("booking_id", id).Msg("rollback failed")
		}
		return model.Booking{}, fmt.Errorf("booking %d: missing status history", id)
	}
	change := history[len(history)-1]

	if err := s.repo.SaveTransition(ctx, b, change); err != nil {
		if rbErr := s.store.Rollback(id); rbErr != nil {
			s.log.Error().Err(rbErr).Uint64("booking_id", id).Msg("rollback failed")
		}
		s.log.Warn().Err(err).Uint64("booking_id", id).Str("to", string(to)).Msg("status change not persisted, reverted")
		return model.Booking{}, fmt.Errorf("save status of booking %d: %w: %w", id, ErrPersistence, err)
	}
	b, err = s.store.Confirm(id)
	if err != nil {
		return model.Booking{}, err
	}
	s.log.Info().Uint64("booking_id", id).Str("from", string(change.From)).Str("to", string(to)).Msg("booking status changed")
	ev := newEvent(queue.EventBookingStatusChanged, b, string(change.From), actor)
	ev.Notes = change.Notes
	s.publish(ev)
	return b, nil
}

// publish queues ev for the sender and never blocks.  When the buffer is
// full the event is dropped and logged.
func (s *Service) publish(ev queue.BookingEvent) {
	if s.pending == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.log.Warn().Str("event", ev.Type).Uint64("booking_id", ev.BookingID).Msg("service closed, event dropped")
		return
	}
	select {
	case s.pending <- ev:
	default:
		s.log.Warn().Str("event", ev.Type).Uint64("booking_id", ev.BookingID).Msg("event buffer full, event dropped")
	}
}

func (s *Service) dispatch() {
	defer close(s.done)
	for ev := range s.pending {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := s.events.PublishBookingEvent(ctx, ev)
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Str("event", ev.Type).Uint64("booking_id", ev.BookingID).Msg("publish failed")
		}
	}
}

// Close stops accepting events and waits until the queued ones have been
// handed to the publisher or ctx is done.
func (s *Service) Close(ctx context.Context) error {
	if s.pending == nil {
		return nil
	}
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.pending)
	}
	s.mu.Unlock()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newEvent(typ string, b model.Booking, from string, actor model.Identity) queue.BookingEvent {
	return queue.BookingEvent{
		EventID:      uuid.NewString(),
		Type:         typ,
		BookingID:    b.ID,
		ProviderID:   b.ProviderID,
		ProviderName: b.ProviderName,
		CustomerID:   b.CustomerID,
		CustomerName: b.CustomerName,
		Service:      b.Service,
		Date:         b.Date,
		From:         from,
		Status:       string(b.Status),
		ActorID:      actor.ID,
		ActorRole:    string(actor.Role),
		OccurredAt:   b.UpdatedAt.Format(time.RFC3339),
	}
}
