package utils

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/campuslab/lab-seat-reservation/internal/apperr"
	"github.com/campuslab/lab-seat-reservation/internal/model"
)

// ParseClock converts an "HH:MM" wall-clock string to minutes since
// midnight. It rejects anything outside 00:00..23:59.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// ValidSlot reports whether a slot is well-formed: positive seat number
// and parseable start/end times with start strictly before end.
func ValidSlot(s model.TimeSlot) bool {
	if s.SeatNumber < 1 {
		return false
	}
	start, err := ParseClock(s.StartTime)
	if err != nil {
		return false
	}
	end, err := ParseClock(s.EndTime)
	if err != nil {
		return false
	}
	return start < end
}

// ValidateSlotsNotInPast rejects slots whose end time has already passed,
// but only when reservationDate denotes the same calendar day as now (a
// date-only comparison, not an instant one). Reservations for any other
// calendar day always pass regardless of their time values. On failure
// the returned error is a Validation apperr whose message is msgPrefix
// followed by the offending slot's literal "start-end" range.
func ValidateSlotsNotInPast(slots []model.TimeSlot, reservationDate, now time.Time, msgPrefix string) error {
	ry, rm, rd := reservationDate.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	if ry != ny || rm != nm || rd != nd {
		return nil
	}
	nowMin := now.UTC().Hour()*60 + now.UTC().Minute()
	for _, s := range slots {
		end, err := ParseClock(s.EndTime)
		if err != nil {
			return apperr.Validation(msgPrefix + ": " + s.StartTime + "-" + s.EndTime)
		}
		if end <= nowMin {
			return apperr.Validation(msgPrefix + ": " + s.StartTime + "-" + s.EndTime)
		}
	}
	return nil
}

// SubjectLookup resolves a public user_id to its role. Passing the lookup
// in as a capability keeps the rule pure enough to test with a fake and
// avoids reaching for a shared store handle.
type SubjectLookup func(ctx context.Context, userID int64) (model.User, error)

// ValidateTechnicianBooking enforces the technician-assisted booking rule:
// the technician id must resolve to a Technician, technicians may not book
// for themselves, and the subject must resolve to a Student.
func ValidateTechnicianBooking(ctx context.Context, lookup SubjectLookup, userID, technicianID int64) error {
	tech, err := lookup(ctx, technicianID)
	if err != nil || tech.Role != model.RoleTechnician {
		return apperr.Authorization("Invalid technician ID.")
	}
	if userID == technicianID {
		return apperr.Authorization("Technicians cannot reserve for themselves. Please use a student ID.")
	}
	subject, err := lookup(ctx, userID)
	if err != nil || subject.Role != model.RoleStudent {
		return apperr.Authorization("Technicians can only reserve for students.")
	}
	return nil
}
