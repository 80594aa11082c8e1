//go:build integration

package repository

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/campuslab/lab-seat-reservation/internal/apperr"
	"github.com/campuslab/lab-seat-reservation/internal/model"
)

// Run against a real MySQL with the schema loaded:
//
//	MYSQL_TEST_DSN='labapp:pw@tcp(127.0.0.1:3306)/labseats_test?parseTime=true&loc=UTC' \
//	  go test -tags integration ./internal/repository
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN not set")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	return db
}

// TestConcurrentCreateSingleWinner drives the serialization guarantee
// end to end: many goroutines race to book the identical
// (lab, date, seat, time) tuple and exactly one may win. The lab row
// lock is what forces the losers to observe the winner's insert.
func TestConcurrentCreateSingleWinner(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	ctx := context.Background()

	res, err := db.ExecContext(ctx,
		`INSERT INTO labs (name, display_name, building, open_time, close_time, capacity, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"race-lab", "Race Lab", "Test Hall", "08:00", "20:00", 10, model.LabActive)
	if err != nil {
		t.Fatalf("seed lab: %v", err)
	}
	labID64, _ := res.LastInsertId()
	labID := uint64(labID64)
	defer func() {
		_, _ = db.ExecContext(ctx, `DELETE FROM reservations WHERE lab_id = ?`, labID)
		_, _ = db.ExecContext(ctx, `DELETE FROM labs WHERE id = ?`, labID)
	}()

	repo := NewReservationRepo(db)
	date := time.Now().UTC().Add(72 * time.Hour).Truncate(24 * time.Hour)

	const writers = 8
	var wg sync.WaitGroup
	var successes, conflicts int32
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := repo.Create(ctx, &model.Reservation{
				UserID: int64(1000 + n), LabID: labID, ReservationDate: date,
				Slots: []model.TimeSlot{slot(1, "09:00", "10:00")},
			})
			switch {
			case err == nil:
				atomic.AddInt32(&successes, 1)
			case apperr.IsKind(err, apperr.KindConflict):
				atomic.AddInt32(&conflicts, 1)
			default:
				t.Errorf("writer %d: unexpected error %v", n, err)
			}
		}(i)
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("successes = %d, want exactly 1", successes)
	}
	if conflicts != writers-1 {
		t.Errorf("conflicts = %d, want %d", conflicts, writers-1)
	}
}
