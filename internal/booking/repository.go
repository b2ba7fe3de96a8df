package booking

import (
	"context"
	"sync"

	"github.com/iliyamo/service-booking/internal/model"
)

// Record is a booking together with its status history, as exchanged with
// persistence.
type Record struct {
	Booking model.Booking
	History []model.StatusChange
}

// Repository is the durable side of the booking collection.  Load is called
// once at startup; the save methods are called after every mutation.
type Repository interface {
	Load(ctx context.Context) ([]Record, error)
	SaveBooking(ctx context.Context, b model.Booking) error
	SaveTransition(ctx context.Context, b model.Booking, change model.StatusChange) error
}

// MemoryRepository keeps records in process memory.  It is used when no
// database is configured and in tests.
type MemoryRepository struct {
	mu      sync.Mutex
	order   []uint64
	records map[uint64]*Record
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[uint64]*Record)}
}

func (r *MemoryRepository) Load(ctx context.Context) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Record, 0, len(r.order))
	for _, id := range r.order {
		rec := r.records[id]
		out = append(out, Record{
			Booking: rec.Booking,
			History: append([]model.StatusChange(nil), rec.History...),
		})
	}
	return out, nil
}

func (r *MemoryRepository) SaveBooking(ctx context.Context, b model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b.Tentative = false
	if rec, ok := r.records[b.ID]; ok {
		rec.Booking = b
		return nil
	}
	r.order = append(r.order, b.ID)
	r.records[b.ID] = &Record{Booking: b}
	return nil
}

func (r *MemoryRepository) SaveTransition(ctx context.Context, b model.Booking, change model.StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[b.ID]
	if !ok {
		return &NotFoundError{ID: b.ID}
	}
	b.Tentative = false
	rec.Booking = b
	rec.History = append(rec.History, change)
	return nil
}
