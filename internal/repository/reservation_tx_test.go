package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/campuslab/lab-seat-reservation/internal/apperr"
	"github.com/campuslab/lab-seat-reservation/internal/model"
)

// These tests pin the shape of the Create critical section: one
// transaction that takes the lab row lock before the conflict scan, so
// concurrent writers for the same lab serialize instead of both seeing
// an empty window. Expectations are ordered; a Create that scanned
// before locking, or locked outside the transaction, fails the test.

const lockLabSQL = `SELECT id FROM labs WHERE id = ? FOR UPDATE`

func newMockRepo(t *testing.T) (*ReservationRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return NewReservationRepo(db), mock, func() { _ = db.Close() }
}

func TestCreateLocksLabBeforeConflictScan(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockLabSQL)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery(`FROM reservations res`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seat_number", "start_time", "end_time"}))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO reservations (`)).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO reservation_slots`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT created_at, updated_at FROM reservations WHERE id = ?`)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	created, err := repo.Create(context.Background(), &model.Reservation{
		UserID: 100, LabID: 5,
		ReservationDate: time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
		Slots:           []model.TimeSlot{slot(1, "09:00", "10:00")},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != 7 || created.Status != model.ReservationActive {
		t.Errorf("created = %+v", created)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("statement sequence: %v", err)
	}
}

func TestCreateRollsBackOnConflict(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockLabSQL)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery(`FROM reservations res`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seat_number", "start_time", "end_time"}).
			AddRow(3, 1, "09:00", "10:00"))
	// No insert expectations: a clash must abort before any write.
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), &model.Reservation{
		UserID: 100, LabID: 5,
		ReservationDate: time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
		Slots:           []model.TimeSlot{slot(1, "09:00", "10:00")},
	})
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	want := "Seat 1 at 09:00-10:00 is already reserved"
	if err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("statement sequence: %v", err)
	}
}

func TestCreateMissingLabAbortsLocked(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockLabSQL)).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), &model.Reservation{
		UserID: 100, LabID: 99,
		ReservationDate: time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
		Slots:           []model.TimeSlot{slot(1, "09:00", "10:00")},
	})
	if err != ErrLabNotFound {
		t.Fatalf("err = %v, want ErrLabNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("statement sequence: %v", err)
	}
}

func TestUpdateScansExactDateExcludingSelf(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	now := time.Now().UTC()
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM reservations WHERE id = ? FOR UPDATE`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "reference", "user_id", "lab_id", "reservation_date",
			"anonymous", "status", "created_at", "updated_at",
		}).AddRow(7, "ref-7", 100, 5, date, false, model.ReservationActive, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(lockLabSQL)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	// The update-path scan compares the exact stored date and excludes
	// the reservation's own id.
	mock.ExpectQuery(regexp.QuoteMeta(`res.reservation_date = ? AND res.id <> ?`)).
		WithArgs(5, date, 7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seat_number", "start_time", "end_time"}))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM reservation_slots WHERE reservation_id = ?`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO reservation_slots`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM reservations WHERE id = ? FOR UPDATE`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "reference", "user_id", "lab_id", "reservation_date",
			"anonymous", "status", "created_at", "updated_at",
		}).AddRow(7, "ref-7", 100, 5, date, false, model.ReservationActive, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT seat_number, start_time, end_time FROM reservation_slots`)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number", "start_time", "end_time"}).
			AddRow(2, "10:00", "11:00"))
	mock.ExpectCommit()

	updated, err := repo.Update(context.Background(), 7, UpdateFields{
		Slots: []model.TimeSlot{slot(2, "10:00", "11:00")},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(updated.Slots) != 1 || updated.Slots[0].SeatNumber != 2 {
		t.Errorf("updated slots = %+v", updated.Slots)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("statement sequence: %v", err)
	}
}
