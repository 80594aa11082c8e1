package model

import "time"

// Lab statuses. Labs are created by admin seeding and toggled between
// these two values; they are never hard-deleted in the normal flow.
const (
	LabActive   = "Active"
	LabInactive = "Inactive"
)

// Lab represents a computer laboratory that students can book seats in.
// Operating hours bound the time slots offered for a day; Capacity is the
// number of bookable seats (numbered 1..Capacity).
//
// Fields:
//  ID          – primary key identifier.
//  Name        – unique short code (e.g. "GK404B").
//  DisplayName – human-friendly name shown in listings.
//  Building    – building the lab is located in.
//  OpenTime    – opening time as "HH:MM".
//  CloseTime   – closing time as "HH:MM".
//  Capacity    – seat count, always >= 1.
//  Status      – Active or Inactive.
type Lab struct {
	ID          uint64    // labs.id
	Name        string    // labs.name
	DisplayName string    // labs.display_name
	Building    string    // labs.building
	OpenTime    string    // labs.open_time
	CloseTime   string    // labs.close_time
	Capacity    int       // labs.capacity
	Status      string    // labs.status
	CreatedAt   time.Time // labs.created_at
	UpdatedAt   time.Time // labs.updated_at
}
