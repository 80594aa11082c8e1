package model

import "time"

// SlotCell is one entry of a seat's daily availability grid. Reserved is
// nil when the slot is free, otherwise it carries the ID of the claiming
// reservation.
type SlotCell struct {
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`
	Reserved  *uint64 `json:"reserved"`
}

// LabSlot is the materialized availability row for one (lab, seat, date)
// tuple, enforced unique at the storage layer. It is a browse-path view
// rebuilt from reservation state on demand and may briefly lag writes;
// the conflict engine never reads it.
type LabSlot struct {
	ID         uint64     // lab_slots.id
	LabID      uint64     // lab_slots.lab_id
	SeatNumber int        // lab_slots.seat_number
	SlotDate   time.Time  // lab_slots.slot_date
	Slots      []SlotCell // lab_slots.slots (JSON column)
	UpdatedAt  time.Time  // lab_slots.updated_at
}
