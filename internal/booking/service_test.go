package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/service-booking/internal/model"
	"github.com/iliyamo/service-booking/internal/queue"
)

type flakyRepo struct {
	*MemoryRepository
	failSave       bool
	failTransition bool
}

func (r *flakyRepo) SaveBooking(ctx context.Context, b model.Booking) error {
	if r.failSave {
		return errors.New("connection refused")
	}
	return r.MemoryRepository.SaveBooking(ctx, b)
}

func (r *flakyRepo) SaveTransition(ctx context.Context, b model.Booking, c model.StatusChange) error {
	if r.failTransition {
		return errors.New("connection refused")
	}
	return r.MemoryRepository.SaveTransition(ctx, b, c)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	err    error
}

func (p *recordingPublisher) PublishBookingEvent(ctx context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

var (
	customer = model.Identity{ID: 101, Role: model.RoleCustomer, Name: "Rohan"}
	provider = model.Identity{ID: 1, Role: model.RoleProvider, Name: "Ali"}
)

func newTestService(repo Repository, pub EventPublisher) *Service {
	return NewService(NewStore(), repo, pub, zerolog.Nop())
}

func TestService_CreatePersistsAndPublishes(t *testing.T) {
	repo := NewMemoryRepository()
	pub := &recordingPublisher{}
	svc := newTestService(repo, pub)

	b, err := svc.Create(context.Background(), customer, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Tentative {
		t.Fatal("confirmed booking must not be tentative")
	}
	recs, _ := repo.Load(context.Background())
	if len(recs) != 1 || recs[0].Booking.ID != b.ID {
		t.Fatalf("expected booking to be persisted, got %+v", recs)
	}
	if err := svc.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(pub.events) != 1 || pub.events[0].Type != queue.EventBookingCreated || pub.events[0].BookingID != b.ID {
		t.Fatalf("unexpected events: %+v", pub.events)
	}
	if pub.events[0].EventID == "" || pub.events[0].ActorRole != "customer" {
		t.Fatalf("event missing metadata: %+v", pub.events[0])
	}
}

func TestService_CreateRollsBackOnPersistenceFailure(t *testing.T) {
	repo := &flakyRepo{MemoryRepository: NewMemoryRepository(), failSave: true}
	pub := &recordingPublisher{}
	svc := newTestService(repo, pub)

	_, err := svc.Create(context.Background(), customer, validInput())
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if n := len(svc.Store().List(All())); n != 0 {
		t.Fatalf("expected no bookings after failed create, got %d", n)
	}
	_ = svc.Close(context.Background())
	if len(pub.events) != 0 {
		t.Fatalf("nothing should be published, got %+v", pub.events)
	}
}

func TestService_UpdateStatusRevertsOnPersistenceFailure(t *testing.T) {
	repo := &flakyRepo{MemoryRepository: NewMemoryRepository()}
	svc := newTestService(repo, nil)
	b, err := svc.Create(context.Background(), customer, validInput())
	if err != nil {
		t.Fatal(err)
	}

	repo.failTransition = true
	if _, err := svc.UpdateStatus(context.Background(), provider, b.ID, model.StatusAccepted, ""); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	got, _ := svc.Store().Get(b.ID)
	if got.Status != model.StatusRequested || got.Tentative {
		t.Fatalf("expected reverted booking, got %+v", got)
	}

	repo.failTransition = false
	got, err = svc.UpdateStatus(context.Background(), provider, b.ID, model.StatusAccepted, "on my way")
	if err != nil {
		t.Fatalf("retry accept: %v", err)
	}
	if got.Status != model.StatusAccepted {
		t.Fatalf("expected accepted, got %s", got.Status)
	}
	recs, _ := repo.Load(context.Background())
	if len(recs[0].History) != 1 || recs[0].History[0].ChangedBy != provider.ID || recs[0].History[0].Notes != "on my way" {
		t.Fatalf("expected persisted history entry, got %+v", recs[0].History)
	}
}

func TestService_PublishFailureDoesNotAffectState(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newTestService(NewMemoryRepository(), pub)
	b, err := svc.Create(context.Background(), customer, validInput())
	if err != nil {
		t.Fatalf("create must succeed when broker is down: %v", err)
	}
	b, err = svc.UpdateStatus(context.Background(), provider, b.ID, model.StatusRejected, "fully booked")
	if err != nil || b.Status != model.StatusRejected {
		t.Fatalf("update must succeed when broker is down: %v %+v", err, b)
	}
	if err := svc.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(pub.events) != 2 || pub.events[1].From != "requested" || pub.events[1].Status != "rejected" || pub.events[1].Notes != "fully booked" {
		t.Fatalf("unexpected events: %+v", pub.events)
	}
}

func TestService_DomainErrorsPassThrough(t *testing.T) {
	svc := newTestService(NewMemoryRepository(), nil)
	var verr *ValidationError
	if _, err := svc.Create(context.Background(), customer, NewBooking{}); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	var nf *NotFoundError
	if _, err := svc.UpdateStatus(context.Background(), provider, 7, model.StatusAccepted, ""); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestService_LoadRestoresRepository(t *testing.T) {
	repo := NewMemoryRepository()
	first := newTestService(repo, nil)
	b, _ := first.Create(context.Background(), customer, validInput())
	_, _ = first.UpdateStatus(context.Background(), provider, b.ID, model.StatusAccepted, "")

	second := newTestService(repo, nil)
	if err := second.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	got, err := second.Store().Get(b.ID)
	if err != nil || got.Status != model.StatusAccepted {
		t.Fatalf("expected restored accepted booking, got %+v (%v)", got, err)
	}
	if h, _ := second.Store().History(b.ID); len(h) != 1 {
		t.Fatalf("expected restored history, got %+v", h)
	}
	next, _ := second.Create(context.Background(), customer, validInput())
	if next.ID <= b.ID {
		t.Fatalf("expected id after %d, got %d", b.ID, next.ID)
	}
}

// blockingPublisher holds every delivery until release is closed.
type blockingPublisher struct {
	started chan struct{}
	release chan struct{}

	mu        sync.Mutex
	delivered int
}

func newBlockingPublisher() *blockingPublisher {
	return &blockingPublisher{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (p *blockingPublisher) PublishBookingEvent(ctx context.Context, ev queue.BookingEvent) error {
	p.started <- struct{}{}
	select {
	case <-p.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	p.mu.Lock()
	p.delivered++
	p.mu.Unlock()
	return nil
}

func TestService_SlowBrokerDoesNotDelayMutations(t *testing.T) {
	pub := newBlockingPublisher()
	svc := newTestService(NewMemoryRepository(), pub)

	start := time.Now()
	b, err := svc.Create(context.Background(), customer, validInput())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateStatus(context.Background(), provider, b.ID, model.StatusAccepted, ""); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > publishTimeout/2 {
		t.Fatalf("mutations waited on the broker for %s", elapsed)
	}

	close(pub.release)
	if err := svc.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if pub.delivered != 2 {
		t.Fatalf("expected both events delivered after release, got %d", pub.delivered)
	}
}

func TestService_FullEventBufferDropsEvents(t *testing.T) {
	pub := newBlockingPublisher()
	svc := newService(NewStore(), NewMemoryRepository(), pub, zerolog.Nop(), 1)

	if _, err := svc.Create(context.Background(), customer, validInput()); err != nil {
		t.Fatal(err)
	}
	<-pub.started // first event is held by the publisher
	for i := 0; i < 2; i++ {
		if _, err := svc.Create(context.Background(), customer, validInput()); err != nil {
			t.Fatalf("create must succeed with a full buffer: %v", err)
		}
	}

	close(pub.release)
	if err := svc.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if pub.delivered != 2 {
		t.Fatalf("expected one buffered and one in-flight event, got %d delivered", pub.delivered)
	}
	if n := len(svc.Store().List(All())); n != 3 {
		t.Fatalf("expected 3 bookings, got %d", n)
	}
}

func TestService_CloseWithoutPublisher(t *testing.T) {
	svc := newTestService(NewMemoryRepository(), nil)
	if err := svc.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(context.Background(), customer, validInput()); err != nil {
		t.Fatalf("create after close: %v", err)
	}
}
