package model

import "time"

// Reservation statuses. Deleted is a valid stored status but is not an
// admissible transition target on the update path; only the operator
// delete endpoint removes rows.
const (
	ReservationActive    = "Active"
	ReservationCancelled = "Cancelled"
	ReservationCompleted = "Completed"
	ReservationDeleted   = "Deleted"
)

// ValidUpdateStatus reports whether s may be supplied as a status on the
// reservation update path.
func ValidUpdateStatus(s string) bool {
	switch s {
	case ReservationActive, ReservationCancelled, ReservationCompleted:
		return true
	}
	return false
}

// TimeSlot is one bookable unit inside a reservation: a seat number plus a
// start/end wall-clock range in "HH:MM" form. Two slots conflict only on an
// exact (seat_number, start_time, end_time) match.
type TimeSlot struct {
	SeatNumber int    `json:"seat_number"` // reservation_slots.seat_number (>= 1)
	StartTime  string `json:"start_time"`  // reservation_slots.start_time
	EndTime    string `json:"end_time"`    // reservation_slots.end_time
}

// Reservation records a booking of one or more seat/time slots in a lab on
// a given date. UserID always identifies the booking subject, even when a
// technician created the reservation on the student's behalf. Anonymous
// hides the subject's identity from read responses.
//
// Fields:
//  ID              – primary key identifier.
//  Reference       – UUID surfaced to clients for correlation.
//  UserID          – booking subject (users.user_id, not users.id).
//  LabID           – lab being booked.
//  ReservationDate – calendar date of the booking (slot times live in Slots).
//  Slots           – ordered seat/time slots claimed by this reservation.
//  Anonymous       – when true, identity is masked on every read path.
//  Status          – Active, Cancelled, Completed or Deleted.
type Reservation struct {
	ID              uint64     // reservations.id
	Reference       string     // reservations.reference
	UserID          int64      // reservations.user_id
	LabID           uint64     // reservations.lab_id
	ReservationDate time.Time  // reservations.reservation_date
	Slots           []TimeSlot // reservation_slots rows, ordered
	Anonymous       bool       // reservations.anonymous
	Status          string     // reservations.status
	CreatedAt       time.Time  // reservations.created_at
	UpdatedAt       time.Time  // reservations.updated_at
}
