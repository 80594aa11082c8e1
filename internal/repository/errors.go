// Package repository implements data access against MySQL. Failures that
// correspond to a business condition are returned as tagged apperr values
// so handlers can map them to HTTP statuses without inspecting message
// text; everything else is returned raw for the handler to classify as
// unavailable/internal.
package repository

import "github.com/campuslab/lab-seat-reservation/internal/apperr"

// Shared sentinel errors. These are apperr values, so both errors.Is
// (pointer identity) and apperr.KindOf work on them.
var (
	// ErrLabNotFound is returned when a referenced lab does not exist.
	ErrLabNotFound = apperr.NotFound("Lab not found")

	// ErrReservationNotFound is returned when a reservation lookup by id
	// comes back empty.
	ErrReservationNotFound = apperr.NotFound("Reservation not found")

	// ErrUserNotFound is returned when a user lookup by public user_id
	// comes back empty.
	ErrUserNotFound = apperr.NotFound("User not found")

	// ErrEmailExists is returned when registration hits the unique e-mail
	// constraint.
	ErrEmailExists = apperr.Conflict("Email already registered")

	// ErrLabNameExists is returned when lab creation hits the unique name
	// constraint.
	ErrLabNameExists = apperr.Conflict("Lab name already exists")
)
