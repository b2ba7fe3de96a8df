package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/service-booking/internal/model"
)

func newMock(t *testing.T) (*BookingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewBookingRepo(db), mock
}

var (
	t0 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Hour)
)

func TestLoad(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings ORDER BY id")).WillReturnRows(
		sqlmock.NewRows([]string{"id", "provider_id", "provider_name", "customer_id", "customer_name", "service", "service_date", "status", "created_at", "updated_at"}).
			AddRow(uint64(1), uint64(1), "Ali", uint64(10), "Rohan", "Electrician", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "accepted", t0, t1).
			AddRow(uint64(2), uint64(2), "Sara", uint64(11), "Mina", "Plumber", time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), "requested", t0, t0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM booking_status_changes ORDER BY id")).WillReturnRows(
		sqlmock.NewRows([]string{"booking_id", "from_status", "to_status", "changed_by", "notes", "changed_at"}).
			AddRow(uint64(1), "requested", "accepted", uint64(1), "see you monday", t1))

	recs, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records", len(recs))
	}
	b := recs[0].Booking
	if b.ID != 1 || b.Date != "2024-01-01" || b.Status != model.StatusAccepted || b.CustomerName != "Rohan" {
		t.Fatalf("unexpected booking %+v", b)
	}
	if len(recs[0].History) != 1 || recs[0].History[0].To != model.StatusAccepted || recs[0].History[0].Notes != "see you monday" {
		t.Fatalf("history not attached: %+v", recs[0].History)
	}
	if len(recs[1].History) != 0 || recs[1].Booking.Date != "2024-02-03" {
		t.Fatalf("unexpected second record %+v", recs[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_OrphanHistory(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("FROM bookings").WillReturnRows(
		sqlmock.NewRows([]string{"id", "provider_id", "provider_name", "customer_id", "customer_name", "service", "service_date", "status", "created_at", "updated_at"}))
	mock.ExpectQuery("FROM booking_status_changes").WillReturnRows(
		sqlmock.NewRows([]string{"booking_id", "from_status", "to_status", "changed_by", "notes", "changed_at"}).
			AddRow(uint64(7), "requested", "accepted", uint64(1), "", t1))

	if _, err := repo.Load(context.Background()); err == nil {
		t.Fatal("expected an error for history of an unknown booking")
	}
}

func TestSaveBooking(t *testing.T) {
	repo, mock := newMock(t)
	b := model.Booking{ID: 3, ProviderID: 1, ProviderName: "Ali", CustomerID: 10, CustomerName: "Rohan",
		Service: "Electrician", Date: "2024-01-01", Status: model.StatusRequested, CreatedAt: t0, UpdatedAt: t0}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
		WithArgs(uint64(3), uint64(1), "Ali", uint64(10), "Rohan", "Electrician", "2024-01-01", "requested", t0, t0).
		WillReturnResult(sqlmock.NewResult(3, 1))

	if err := repo.SaveBooking(context.Background(), b); err != nil {
		t.Fatalf("SaveBooking: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSaveTransition_Commits(t *testing.T) {
	repo, mock := newMock(t)
	b := model.Booking{ID: 1, Status: model.StatusAccepted, UpdatedAt: t1}
	ch := model.StatusChange{BookingID: 1, From: model.StatusRequested, To: model.StatusAccepted, ChangedBy: 1, Notes: "bring a ladder", At: t1}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?")).
		WithArgs("accepted", t1, uint64(1), "requested").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO booking_status_changes")).
		WithArgs(uint64(1), "requested", "accepted", uint64(1), "bring a ladder", t1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := repo.SaveTransition(context.Background(), b, ch); err != nil {
		t.Fatalf("SaveTransition: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSaveTransition_StaleStatusRollsBack(t *testing.T) {
	repo, mock := newMock(t)
	b := model.Booking{ID: 1, Status: model.StatusAccepted, UpdatedAt: t1}
	ch := model.StatusChange{BookingID: 1, From: model.StatusRequested, To: model.StatusAccepted, At: t1}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.SaveTransition(context.Background(), b, ch)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSaveTransition_HistoryFailureRollsBack(t *testing.T) {
	repo, mock := newMock(t)
	b := model.Booking{ID: 1, Status: model.StatusAccepted, UpdatedAt: t1}
	ch := model.StatusChange{BookingID: 1, From: model.StatusRequested, To: model.StatusAccepted, At: t1}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO booking_status_changes").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if err := repo.SaveTransition(context.Background(), b, ch); err == nil {
		t.Fatal("expected an error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
