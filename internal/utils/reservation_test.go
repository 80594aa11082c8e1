package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campuslab/lab-seat-reservation/internal/apperr"
	"github.com/campuslab/lab-seat-reservation/internal/model"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"09:60", 0, true},
		{"9:30", 0, true},
		{"0930", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error, got %d", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestValidSlot(t *testing.T) {
	cases := []struct {
		name string
		slot model.TimeSlot
		want bool
	}{
		{"ok", model.TimeSlot{SeatNumber: 1, StartTime: "09:00", EndTime: "10:00"}, true},
		{"zero seat", model.TimeSlot{SeatNumber: 0, StartTime: "09:00", EndTime: "10:00"}, false},
		{"negative seat", model.TimeSlot{SeatNumber: -3, StartTime: "09:00", EndTime: "10:00"}, false},
		{"start equals end", model.TimeSlot{SeatNumber: 1, StartTime: "09:00", EndTime: "09:00"}, false},
		{"start after end", model.TimeSlot{SeatNumber: 1, StartTime: "11:00", EndTime: "10:00"}, false},
		{"bad start", model.TimeSlot{SeatNumber: 1, StartTime: "xx:00", EndTime: "10:00"}, false},
		{"bad end", model.TimeSlot{SeatNumber: 1, StartTime: "09:00", EndTime: "25:00"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidSlot(tc.slot); got != tc.want {
				t.Errorf("ValidSlot(%+v) = %v, want %v", tc.slot, got, tc.want)
			}
		})
	}
}

func TestValidateSlotsNotInPast(t *testing.T) {
	// Fixed "now": 2026-03-10 14:00 UTC.
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	tomorrow := today.Add(24 * time.Hour)
	yesterday := today.Add(-24 * time.Hour)

	slot := func(start, end string) []model.TimeSlot {
		return []model.TimeSlot{{SeatNumber: 1, StartTime: start, EndTime: end}}
	}

	t.Run("today ended slot rejected", func(t *testing.T) {
		err := ValidateSlotsNotInPast(slot("09:00", "10:00"), today, now, "Cannot book slot ending before current time")
		if err == nil {
			t.Fatal("expected error for slot that already ended")
		}
		want := "Cannot book slot ending before current time: 09:00-10:00"
		if err.Error() != want {
			t.Errorf("message = %q, want %q", err.Error(), want)
		}
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("kind = %v, want validation", apperr.KindOf(err))
		}
	})

	t.Run("today slot ending exactly now rejected", func(t *testing.T) {
		if err := ValidateSlotsNotInPast(slot("13:00", "14:00"), today, now, "Cannot book slot ending before current time"); err == nil {
			t.Error("slot ending at the current minute should be rejected")
		}
	})

	t.Run("today in-progress slot allowed", func(t *testing.T) {
		if err := ValidateSlotsNotInPast(slot("13:30", "14:30"), today, now, "Cannot book slot ending before current time"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("other days never checked", func(t *testing.T) {
		if err := ValidateSlotsNotInPast(slot("09:00", "10:00"), tomorrow, now, "x"); err != nil {
			t.Errorf("future day: unexpected error %v", err)
		}
		// A past calendar day also passes; the time-of-day rule only
		// guards same-day bookings.
		if err := ValidateSlotsNotInPast(slot("09:00", "10:00"), yesterday, now, "x"); err != nil {
			t.Errorf("past day: unexpected error %v", err)
		}
	})

	t.Run("prefix appears verbatim", func(t *testing.T) {
		err := ValidateSlotsNotInPast(slot("09:00", "10:00"), today, now, "Cannot update to slot ending before current time")
		if err == nil {
			t.Fatal("expected error")
		}
		want := "Cannot update to slot ending before current time: 09:00-10:00"
		if err.Error() != want {
			t.Errorf("message = %q, want %q", err.Error(), want)
		}
	})

	t.Run("first offending slot reported", func(t *testing.T) {
		slots := []model.TimeSlot{
			{SeatNumber: 1, StartTime: "15:00", EndTime: "16:00"},
			{SeatNumber: 2, StartTime: "08:00", EndTime: "09:00"},
		}
		err := ValidateSlotsNotInPast(slots, today, now, "Cannot book slot ending before current time")
		if err == nil {
			t.Fatal("expected error")
		}
		want := "Cannot book slot ending before current time: 08:00-09:00"
		if err.Error() != want {
			t.Errorf("message = %q, want %q", err.Error(), want)
		}
	})
}

func TestValidateTechnicianBooking(t *testing.T) {
	users := map[int64]model.User{
		100: {UserID: 100, Role: model.RoleStudent},
		200: {UserID: 200, Role: model.RoleTechnician},
		201: {UserID: 201, Role: model.RoleTechnician},
		300: {UserID: 300, Role: model.RoleAdmin},
	}
	lookup := func(ctx context.Context, id int64) (model.User, error) {
		u, ok := users[id]
		if !ok {
			return model.User{}, errors.New("no rows")
		}
		return u, nil
	}
	ctx := context.Background()

	cases := []struct {
		name    string
		userID  int64
		techID  int64
		wantMsg string
	}{
		{"valid technician books for student", 100, 200, ""},
		{"unknown technician id", 100, 999, "Invalid technician ID."},
		{"technician id is a student", 100, 100, "Invalid technician ID."},
		{"technician books for self", 200, 200, "Technicians cannot reserve for themselves. Please use a student ID."},
		{"subject is a technician", 201, 200, "Technicians can only reserve for students."},
		{"subject is an admin", 300, 200, "Technicians can only reserve for students."},
		{"subject unknown", 999, 200, "Technicians can only reserve for students."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTechnicianBooking(ctx, lookup, tc.userID, tc.techID)
			if tc.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %q, got nil", tc.wantMsg)
			}
			if err.Error() != tc.wantMsg {
				t.Errorf("message = %q, want %q", err.Error(), tc.wantMsg)
			}
			if !apperr.IsKind(err, apperr.KindAuthorization) {
				t.Errorf("kind = %v, want authorization", apperr.KindOf(err))
			}
		})
	}
}

func TestInstitutionalEmail(t *testing.T) {
	cases := []struct {
		email  string
		domain string
		want   bool
	}{
		{"ada@uni.edu", "uni.edu", true},
		{"Ada@UNI.EDU", "uni.edu", true},
		{"ada@gmail.com", "uni.edu", false},
		{"ada@uni.edu", "", true},
		{"not-an-email", "", false},
		{"@uni.edu", "uni.edu", false},
	}
	for _, tc := range cases {
		if got := InstitutionalEmail(tc.email, tc.domain); got != tc.want {
			t.Errorf("InstitutionalEmail(%q, %q) = %v, want %v", tc.email, tc.domain, got, tc.want)
		}
	}
}
