package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campuslab/lab-seat-reservation/internal/apperr"
	"github.com/campuslab/lab-seat-reservation/internal/model"
)

// ReservationRepo owns the reservations and reservation_slots tables and
// implements the conflict engine: every write runs inside one transaction
// that locks the target lab row, so the conflict scan and the mutation
// form a single critical section per lab. Concurrent writers for the same
// lab serialize on that row lock; no two of them can both observe "no
// conflict" and both insert.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle for callers that need to compose
// transactions with other repositories.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// takenSlot pairs a claimed slot with the reservation that holds it.
type takenSlot struct {
	ReservationID uint64
	Slot          model.TimeSlot
}

// findSlotConflict scans incoming slots against already-claimed ones and
// returns the first incoming slot whose (seat_number, start_time, end_time)
// tuple is an exact match with a claimed slot. Claims held by skipID are
// ignored, which lets updates re-assert the slots they already own.
func findSlotConflict(incoming []model.TimeSlot, taken []takenSlot, skipID uint64) *model.TimeSlot {
	type key struct {
		Seat       int
		Start, End string
	}
	claimed := make(map[key]struct{}, len(taken))
	for _, t := range taken {
		if skipID != 0 && t.ReservationID == skipID {
			continue
		}
		claimed[key{t.Slot.SeatNumber, t.Slot.StartTime, t.Slot.EndTime}] = struct{}{}
	}
	for i := range incoming {
		s := incoming[i]
		if _, ok := claimed[key{s.SeatNumber, s.StartTime, s.EndTime}]; ok {
			return &incoming[i]
		}
	}
	return nil
}

// conflictError builds the user-facing 409 message for a clashing slot.
func conflictError(s *model.TimeSlot) error {
	return apperr.Newf(apperr.KindConflict, "Seat %d at %s-%s is already reserved",
		s.SeatNumber, s.StartTime, s.EndTime)
}

// lockLab takes the lab's row lock inside tx, serializing all reservation
// writes for that lab until commit. Returns ErrLabNotFound when the lab
// does not exist.
func lockLab(ctx context.Context, tx *sql.Tx, labID uint64) error {
	var id uint64
	err := tx.QueryRowContext(ctx, `SELECT id FROM labs WHERE id = ? FOR UPDATE`, labID).Scan(&id)
	if err == sql.ErrNoRows {
		return ErrLabNotFound
	}
	return err
}

// activeSlotsTx loads the claimed slots of all Active reservations for a
// lab whose reservation_date satisfies the given WHERE fragment. The
// fragment and args let create use a half-open day window while update
// compares the exact stored date.
func (r *ReservationRepo) activeSlotsTx(ctx context.Context, tx *sql.Tx, labID uint64, dateCond string, dateArgs ...any) ([]takenSlot, error) {
	q := `SELECT res.id, s.seat_number, s.start_time, s.end_time
	      FROM reservations res
	      JOIN reservation_slots s ON s.reservation_id = res.id
	      WHERE res.lab_id = ? AND res.status = 'Active' AND ` + dateCond
	args := append([]any{labID}, dateArgs...)
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var taken []takenSlot
	for rows.Next() {
		var t takenSlot
		if err := rows.Scan(&t.ReservationID, &t.Slot.SeatNumber, &t.Slot.StartTime, &t.Slot.EndTime); err != nil {
			return nil, err
		}
		taken = append(taken, t)
	}
	return taken, rows.Err()
}

// Create inserts a reservation after verifying, inside one transaction,
// that none of its slots clash with an Active reservation for the same
// lab on the same calendar day (half-open window [day, day+24h)). The
// created record, including its generated ID, reference and timestamps,
// is returned.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) (*model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockLab(ctx, tx, res.LabID); err != nil {
		return nil, err
	}

	day := res.ReservationDate.UTC().Truncate(24 * time.Hour)
	taken, err := r.activeSlotsTx(ctx, tx, res.LabID,
		`res.reservation_date >= ? AND res.reservation_date < ?`, day, day.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	if clash := findSlotConflict(res.Slots, taken, 0); clash != nil {
		return nil, conflictError(clash)
	}

	if res.Reference == "" {
		res.Reference = uuid.NewString()
	}
	if res.Status == "" {
		res.Status = model.ReservationActive
	}
	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (reference, user_id, lab_id, reservation_date, anonymous, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		res.Reference, res.UserID, res.LabID, res.ReservationDate.UTC(), res.Anonymous, res.Status)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	res.ID = uint64(id)
	if err := insertSlotsTx(ctx, tx, res.ID, res.Slots); err != nil {
		return nil, err
	}
	// Query back DB-assigned timestamps so the caller sees the stored row.
	if err := tx.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM reservations WHERE id = ?`, res.ID).
		Scan(&res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return res, nil
}

// insertSlotsTx bulk-inserts a reservation's slots in one statement.
func insertSlotsTx(ctx context.Context, tx *sql.Tx, reservationID uint64, slots []model.TimeSlot) error {
	if len(slots) == 0 {
		return nil
	}
	q := `INSERT INTO reservation_slots (reservation_id, seat_number, start_time, end_time) VALUES `
	args := make([]any, 0, len(slots)*4)
	for i, s := range slots {
		if i > 0 {
			q += ","
		}
		q += "(?, ?, ?, ?)"
		args = append(args, reservationID, s.SeatNumber, s.StartTime, s.EndTime)
	}
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// UpdateFields carries the optional field-level changes for an update.
// Nil fields are left untouched; a non-nil Slots slice replaces the
// reservation's slots wholesale.
type UpdateFields struct {
	UserID          *int64
	LabID           *uint64
	ReservationDate *time.Time
	Slots           []model.TimeSlot
	Anonymous       *bool
	Status          *string
}

// Update applies field-level changes to a reservation inside one
// transaction. When new slots are supplied, they are scanned against all
// other Active reservations sharing the existing reservation's lab and
// exact stored reservation_date; the reservation's own claims never
// self-conflict. Note the window here is exact-date equality, not the
// day range create uses.
func (r *ReservationRepo) Update(ctx context.Context, id uint64, upd UpdateFields) (*model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	existing, err := getForUpdateTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := lockLab(ctx, tx, existing.LabID); err != nil {
		return nil, err
	}

	if upd.Slots != nil {
		taken, err := r.activeSlotsTx(ctx, tx, existing.LabID,
			`res.reservation_date = ? AND res.id <> ?`, existing.ReservationDate.UTC(), id)
		if err != nil {
			return nil, err
		}
		if clash := findSlotConflict(upd.Slots, taken, id); clash != nil {
			return nil, conflictError(clash)
		}
	}

	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	if upd.UserID != nil {
		sets = append(sets, "user_id = ?")
		args = append(args, *upd.UserID)
	}
	if upd.LabID != nil {
		sets = append(sets, "lab_id = ?")
		args = append(args, *upd.LabID)
	}
	if upd.ReservationDate != nil {
		sets = append(sets, "reservation_date = ?")
		args = append(args, upd.ReservationDate.UTC())
	}
	if upd.Anonymous != nil {
		sets = append(sets, "anonymous = ?")
		args = append(args, *upd.Anonymous)
	}
	if upd.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *upd.Status)
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := tx.ExecContext(ctx,
			"UPDATE reservations SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
			return nil, err
		}
	}
	if upd.Slots != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM reservation_slots WHERE reservation_id = ?`, id); err != nil {
			return nil, err
		}
		if err := insertSlotsTx(ctx, tx, id, upd.Slots); err != nil {
			return nil, err
		}
	}

	updated, err := getWithSlotsTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return updated, nil
}

// Delete removes a reservation (slots cascade via FK) inside one
// transaction and returns the removed snapshot.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) (*model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	snapshot, err := getWithSlotsTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := lockLab(ctx, tx, snapshot.LabID); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return snapshot, nil
}

// getForUpdateTx fetches and row-locks a reservation header.
func getForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	var res model.Reservation
	err := tx.QueryRowContext(ctx,
		`SELECT id, reference, user_id, lab_id, reservation_date, anonymous, status, created_at, updated_at
		 FROM reservations WHERE id = ? FOR UPDATE`, id).
		Scan(&res.ID, &res.Reference, &res.UserID, &res.LabID, &res.ReservationDate,
			&res.Anonymous, &res.Status, &res.CreatedAt, &res.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// getWithSlotsTx fetches a reservation and its ordered slots inside tx.
func getWithSlotsTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	res, err := getForUpdateTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT seat_number, start_time, end_time FROM reservation_slots
		 WHERE reservation_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s model.TimeSlot
		if err := rows.Scan(&s.SeatNumber, &s.StartTime, &s.EndTime); err != nil {
			return nil, err
		}
		res.Slots = append(res.Slots, s)
	}
	return res, rows.Err()
}

// ReservationUser is the identity block attached to read responses. For
// anonymous reservations every field carries the sentinel values and the
// storage ID is omitted.
type ReservationUser struct {
	ID     uint64 `json:"_id,omitempty"`
	UserID any    `json:"user_id"`
	Email  string `json:"email"`
	Fname  string `json:"fname"`
	Lname  string `json:"lname"`
}

// ReservationDetail is the read-path shape: a reservation joined with its
// lab's display fields. The User block is attached by the handler after
// batch lookup so anonymization happens in one place.
type ReservationDetail struct {
	ID              uint64           `json:"id"`
	Reference       string           `json:"reference"`
	UserID          int64            `json:"user_id"`
	LabID           uint64           `json:"lab_id"`
	LabName         string           `json:"lab_name"`
	LabDisplayName  string           `json:"lab_display_name"`
	Building        string           `json:"building"`
	ReservationDate string           `json:"reservation_date"`
	Slots           []model.TimeSlot `json:"slots"`
	Anonymous       bool             `json:"anonymous"`
	Status          string           `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
	User            *ReservationUser `json:"user,omitempty"`
}

const detailSelect = `SELECT res.id, res.reference, res.user_id, res.lab_id,
       l.name, l.display_name, l.building,
       res.reservation_date, res.anonymous, res.status, res.created_at
  FROM reservations res
  JOIN labs l ON l.id = res.lab_id`

// ListAll returns every reservation with lab display fields, newest first.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]ReservationDetail, error) {
	return r.listDetails(ctx, detailSelect+` ORDER BY res.created_at DESC`)
}

// ListByUserID returns a subject's reservations, newest first.
func (r *ReservationRepo) ListByUserID(ctx context.Context, userID int64) ([]ReservationDetail, error) {
	return r.listDetails(ctx, detailSelect+` WHERE res.user_id = ? ORDER BY res.created_at DESC`, userID)
}

// ListByLabID returns a lab's reservations, newest first.
func (r *ReservationRepo) ListByLabID(ctx context.Context, labID uint64) ([]ReservationDetail, error) {
	return r.listDetails(ctx, detailSelect+` WHERE res.lab_id = ? ORDER BY res.created_at DESC`, labID)
}

// GetDetail returns a single reservation with lab display fields.
func (r *ReservationRepo) GetDetail(ctx context.Context, id uint64) (*ReservationDetail, error) {
	details, err := r.listDetails(ctx, detailSelect+` WHERE res.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, ErrReservationNotFound
	}
	return &details[0], nil
}

// listDetails runs a detail query and populates slots for all returned
// reservations with a single IN-clause query.
func (r *ReservationRepo) listDetails(ctx context.Context, query string, args ...any) ([]ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]ReservationDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d ReservationDetail
		var date time.Time
		if err := rows.Scan(&d.ID, &d.Reference, &d.UserID, &d.LabID,
			&d.LabName, &d.LabDisplayName, &d.Building,
			&date, &d.Anonymous, &d.Status, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.ReservationDate = date.UTC().Format("2006-01-02")
		d.Slots = []model.TimeSlot{}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}

	ids := make([]any, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	slotQ := `SELECT reservation_id, seat_number, start_time, end_time
	          FROM reservation_slots
	          WHERE reservation_id IN (` + strings.Join(placeholders, ",") + `)
	          ORDER BY reservation_id, id`
	srows, err := r.db.QueryContext(ctx, slotQ, ids...)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var rid uint64
		var s model.TimeSlot
		if err := srows.Scan(&rid, &s.SeatNumber, &s.StartTime, &s.EndTime); err != nil {
			return nil, err
		}
		if idx, ok := index[rid]; ok {
			details[idx].Slots = append(details[idx].Slots, s)
		}
	}
	return details, srows.Err()
}

// CancelActiveByUserID flips a subject's Active reservations to Cancelled
// inside tx. Used when an account is deactivated.
func (r *ReservationRepo) CancelActiveByUserID(ctx context.Context, tx *sql.Tx, userID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE user_id = ? AND status = ?`,
		model.ReservationCancelled, userID, model.ReservationActive)
	return err
}
