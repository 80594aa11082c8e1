package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/campuslab/lab-seat-reservation/internal/model"
	"github.com/campuslab/lab-seat-reservation/internal/utils"
)

// slotStepMinutes is the width of one bookable cell in the availability
// grid. Operating hours that do not divide evenly simply yield a shorter
// final day (no partial cells).
const slotStepMinutes = 30

// LabSlotRepo owns the lab_slots table: one row per (lab, seat, date)
// holding that seat's daily grid as a JSON column, unique on the tuple.
// The grid is a browse-path materialization regenerated from reservation
// state on demand; it is eventually consistent and never consulted by the
// conflict engine.
type LabSlotRepo struct {
	db *sql.DB
}

func NewLabSlotRepo(db *sql.DB) *LabSlotRepo { return &LabSlotRepo{db: db} }

// GetForDate returns the stored grid rows for a lab and date, ordered by
// seat number. An empty slice means the day has not been materialized yet.
func (r *LabSlotRepo) GetForDate(ctx context.Context, labID uint64, date time.Time) ([]model.LabSlot, error) {
	day := date.UTC().Truncate(24 * time.Hour)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, lab_id, seat_number, slot_date, slots, updated_at
		 FROM lab_slots WHERE lab_id = ? AND slot_date = ? ORDER BY seat_number`,
		labID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.LabSlot, 0)
	for rows.Next() {
		var ls model.LabSlot
		var raw []byte
		if err := rows.Scan(&ls.ID, &ls.LabID, &ls.SeatNumber, &ls.SlotDate, &raw, &ls.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &ls.Slots); err != nil {
			return nil, err
		}
		out = append(out, ls)
	}
	return out, rows.Err()
}

// buildDayCells generates the empty grid for one seat from opening to
// closing minutes in slotStepMinutes increments.
func buildDayCells(openMin, closeMin int) []model.SlotCell {
	cells := make([]model.SlotCell, 0, (closeMin-openMin)/slotStepMinutes)
	for m := openMin; m+slotStepMinutes <= closeMin; m += slotStepMinutes {
		cells = append(cells, model.SlotCell{
			StartTime: clockString(m),
			EndTime:   clockString(m + slotStepMinutes),
		})
	}
	return cells
}

func clockString(minutes int) string {
	h, m := minutes/60, minutes%60
	const digits = "0123456789"
	return string([]byte{digits[h/10], digits[h%10], ':', digits[m/10], digits[m%10]})
}

// markReserved stamps reservation IDs onto cells matching claimed slots.
// Only exact (start, end) matches are stamped, mirroring the conflict
// engine's exact-tuple rule.
func markReserved(cells []model.SlotCell, claims []takenSlot, seat int) {
	for i := range cells {
		for _, c := range claims {
			if c.Slot.SeatNumber == seat &&
				c.Slot.StartTime == cells[i].StartTime && c.Slot.EndTime == cells[i].EndTime {
				id := c.ReservationID
				cells[i].Reserved = &id
				break
			}
		}
	}
}

// RebuildForDate regenerates a lab's grid for one day from its operating
// hours and the Active reservations on that day, then upserts the rows.
// The refreshed grid is returned.
func (r *LabSlotRepo) RebuildForDate(ctx context.Context, lab model.Lab, date time.Time) ([]model.LabSlot, error) {
	openMin, err := utils.ParseClock(lab.OpenTime)
	if err != nil {
		return nil, err
	}
	closeMin, err := utils.ParseClock(lab.CloseTime)
	if err != nil {
		return nil, err
	}
	day := date.UTC().Truncate(24 * time.Hour)

	claims, err := r.activeClaims(ctx, lab.ID, day)
	if err != nil {
		return nil, err
	}

	out := make([]model.LabSlot, 0, lab.Capacity)
	for seat := 1; seat <= lab.Capacity; seat++ {
		cells := buildDayCells(openMin, closeMin)
		markReserved(cells, claims, seat)
		raw, err := json.Marshal(cells)
		if err != nil {
			return nil, err
		}
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO lab_slots (lab_id, seat_number, slot_date, slots)
			 VALUES (?, ?, ?, ?)
			 ON DUPLICATE KEY UPDATE slots = VALUES(slots)`,
			lab.ID, seat, day, raw); err != nil {
			return nil, err
		}
		out = append(out, model.LabSlot{
			LabID: lab.ID, SeatNumber: seat, SlotDate: day, Slots: cells,
		})
	}
	return out, nil
}

// activeClaims loads the claimed slots of Active reservations for a lab
// on one calendar day (same half-open window the conflict engine scans
// on create).
func (r *LabSlotRepo) activeClaims(ctx context.Context, labID uint64, day time.Time) ([]takenSlot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT res.id, s.seat_number, s.start_time, s.end_time
		 FROM reservations res
		 JOIN reservation_slots s ON s.reservation_id = res.id
		 WHERE res.lab_id = ? AND res.status = 'Active'
		   AND res.reservation_date >= ? AND res.reservation_date < ?`,
		labID, day, day.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var claims []takenSlot
	for rows.Next() {
		var c takenSlot
		if err := rows.Scan(&c.ReservationID, &c.Slot.SeatNumber, &c.Slot.StartTime, &c.Slot.EndTime); err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}
