package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/campuslab/lab-seat-reservation/internal/model"
)

// LabRepo owns the labs table. Labs are seeded by admins and toggled
// between Active and Inactive; there is no hard delete.
type LabRepo struct {
	db *sql.DB
}

func NewLabRepo(db *sql.DB) *LabRepo { return &LabRepo{db: db} }

const labColumns = `id, name, display_name, building, open_time, close_time,
 capacity, status, created_at, updated_at`

func scanLab(row interface{ Scan(...any) error }) (model.Lab, error) {
	var l model.Lab
	err := row.Scan(&l.ID, &l.Name, &l.DisplayName, &l.Building, &l.OpenTime, &l.CloseTime,
		&l.Capacity, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

// Create inserts a lab and returns it with the generated ID.
func (r *LabRepo) Create(ctx context.Context, l model.Lab) (model.Lab, error) {
	if l.Status == "" {
		l.Status = model.LabActive
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO labs (name, display_name, building, open_time, close_time, capacity, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.Name, l.DisplayName, l.Building, l.OpenTime, l.CloseTime, l.Capacity, l.Status)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return l, ErrLabNameExists
		}
		return l, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return l, err
	}
	l.ID = uint64(id)
	return r.GetByID(ctx, l.ID)
}

// GetByID fetches a lab; ErrLabNotFound when absent.
func (r *LabRepo) GetByID(ctx context.Context, id uint64) (model.Lab, error) {
	l, err := scanLab(r.db.QueryRowContext(ctx,
		`SELECT `+labColumns+` FROM labs WHERE id = ? LIMIT 1`, id))
	if err == sql.ErrNoRows {
		return l, ErrLabNotFound
	}
	return l, err
}

// List returns labs ordered by name. When activeOnly is set, inactive
// labs are filtered out (the public browse path).
func (r *LabRepo) List(ctx context.Context, activeOnly bool) ([]model.Lab, error) {
	q := `SELECT ` + labColumns + ` FROM labs`
	if activeOnly {
		q += ` WHERE status = 'Active'`
	}
	q += ` ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	labs := make([]model.Lab, 0)
	for rows.Next() {
		l, err := scanLab(rows)
		if err != nil {
			return nil, err
		}
		labs = append(labs, l)
	}
	return labs, rows.Err()
}

// UpdateStatus toggles a lab between Active and Inactive.
func (r *LabRepo) UpdateStatus(ctx context.Context, id uint64, status string) (model.Lab, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE labs SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return model.Lab{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Distinguish "absent" from "already in this status".
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return model.Lab{}, getErr
		}
	}
	return r.GetByID(ctx, id)
}
