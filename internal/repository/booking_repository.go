package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/service-booking/internal/booking"
	"github.com/iliyamo/service-booking/internal/model"
)

// BookingRepo persists bookings and their status history in MySQL.  Ids are
// assigned by the in-memory store and written explicitly.  All timestamps
// are stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to db.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

var _ booking.Repository = (*BookingRepo)(nil)

// Load returns every booking in id order with its history attached.
func (r *BookingRepo) Load(ctx context.Context) ([]booking.Record, error) {
	const q = `SELECT id, provider_id, provider_name, customer_id, customer_name, service, service_date, status, created_at, updated_at
FROM bookings ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []booking.Record
	pos := map[uint64]int{}
	for rows.Next() {
		var (
			b      model.Booking
			date   time.Time
			status string
		)
		if err := rows.Scan(&b.ID, &b.ProviderID, &b.ProviderName, &b.CustomerID, &b.CustomerName,
			&b.Service, &date, &status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		b.Date = date.Format(booking.DateLayout)
		b.Status = model.Status(status)
		b.CreatedAt = b.CreatedAt.UTC()
		b.UpdatedAt = b.UpdatedAt.UTC()
		pos[b.ID] = len(records)
		records = append(records, booking.Record{Booking: b})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const hq = `SELECT booking_id, from_status, to_status, changed_by, notes, changed_at
FROM booking_status_changes ORDER BY id`
	hrows, err := r.db.QueryContext(ctx, hq)
	if err != nil {
		return nil, err
	}
	defer hrows.Close()
	for hrows.Next() {
		var (
			ch       model.StatusChange
			from, to string
		)
		if err := hrows.Scan(&ch.BookingID, &from, &to, &ch.ChangedBy, &ch.Notes, &ch.At); err != nil {
			return nil, err
		}
		i, ok := pos[ch.BookingID]
		if !ok {
			return nil, fmt.Errorf("status change for unknown booking %d", ch.BookingID)
		}
		ch.From, ch.To, ch.At = model.Status(from), model.Status(to), ch.At.UTC()
		records[i].History = append(records[i].History, ch)
	}
	return records, hrows.Err()
}

// SaveBooking inserts a newly created booking.
func (r *BookingRepo) SaveBooking(ctx context.Context, b model.Booking) error {
	const q = `INSERT INTO bookings (id, provider_id, provider_name, customer_id, customer_name, service, service_date, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, b.ID, b.ProviderID, b.ProviderName, b.CustomerID, b.CustomerName,
		b.Service, b.Date, string(b.Status), b.CreatedAt.UTC(), b.UpdatedAt.UTC())
	return err
}

// SaveTransition records a status change and its history entry in one
// transaction.  The update only applies when the stored status is still
// change.From; otherwise ErrConflict is returned and nothing is written.
func (r *BookingRepo) SaveTransition(ctx context.Context, b model.Booking, change model.StatusChange) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const upd = `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, upd, string(change.To), b.UpdatedAt.UTC(), b.ID, string(change.From))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("booking %d is no longer %s: %w", b.ID, change.From, ErrConflict)
	}

	const ins = `INSERT INTO booking_status_changes (booking_id, from_status, to_status, changed_by, notes, changed_at) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err = tx.ExecContext(ctx, ins, change.BookingID, string(change.From), string(change.To), change.ChangedBy, change.Notes, change.At.UTC()); err != nil {
		return err
	}
	return tx.Commit()
}
