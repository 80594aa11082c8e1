package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/campuslab/lab-seat-reservation/internal/model"
	"github.com/campuslab/lab-seat-reservation/internal/utils"
)

// UserRepo owns the users table. Besides the storage primary key every
// account carries a sequential public user_id (max existing + 1, assigned
// under a table lock at registration) which reservations reference.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, user_id, email, password_hash, fname, lname, mname,
 role, status, profile_pic_path, description, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.UserID, &u.Email, &u.PasswordHash, &u.Fname, &u.Lname, &u.Mname,
		&u.Role, &u.Status, &u.ProfilePicPath, &u.Description, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// RegisterInput carries the fields collected at registration.
type RegisterInput struct {
	Email    string
	Password string
	Fname    string
	Lname    string
	Mname    *string
	Role     string
}

// Create inserts a new account, assigning the next sequential user_id
// inside a transaction so concurrent registrations cannot collide.
// Returns ErrEmailExists on a duplicate e-mail.
func (r *UserRepo) Create(ctx context.Context, in RegisterInput, bcryptCost int) (model.User, error) {
	var u model.User
	hash, err := utils.HashPassword(in.Password, bcryptCost)
	if err != nil {
		return u, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return u, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Serialize user_id assignment on the current maximum.
	var maxID int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(user_id), 0) FROM users FOR UPDATE`).Scan(&maxID); err != nil {
		return u, err
	}
	nextID := maxID + 1

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (user_id, email, password_hash, fname, lname, mname, role, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		nextID, email, hash, in.Fname, in.Lname, in.Mname, in.Role, model.UserActive)
	if err != nil {
		// 1062 = duplicate key (unique email)
		if strings.Contains(err.Error(), "1062") {
			return u, ErrEmailExists
		}
		return u, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return u, err
	}
	if err := tx.Commit(); err != nil {
		return u, err
	}
	committed = true

	return model.User{
		ID: uint64(id), UserID: nextID, Email: email,
		Fname: in.Fname, Lname: in.Lname, Mname: in.Mname,
		Role: in.Role, Status: model.UserActive,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}, nil
}

// GetByEmail fetches an account by normalized e-mail.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`, email))
}

// GetByID fetches an account by storage primary key.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id))
}

// GetByUserID fetches an account by its public sequential user_id.
// Returns ErrUserNotFound when absent.
func (r *UserRepo) GetByUserID(ctx context.Context, userID int64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = ? LIMIT 1`, userID))
	if err == sql.ErrNoRows {
		return u, ErrUserNotFound
	}
	return u, err
}

// ByUserIDs loads the given public user_ids in one query and returns them
// keyed by user_id. Missing ids are simply absent from the map.
func (r *UserRepo) ByUserIDs(ctx context.Context, userIDs []int64) (map[int64]model.User, error) {
	out := make(map[int64]model.User, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	placeholders := make([]string, 0, len(userIDs))
	args := make([]any, 0, len(userIDs))
	for _, id := range userIDs {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id IN (`+strings.Join(placeholders, ",")+`)`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out[u.UserID] = u
	}
	return out, rows.Err()
}

// Deactivate flips an account to Inactive and cancels its Active
// reservations in the same transaction.
func (r *UserRepo) Deactivate(ctx context.Context, reservations *ReservationRepo, userID int64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET status = ? WHERE user_id = ?`, model.UserInactive, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	if err := reservations.CancelActiveByUserID(ctx, tx, userID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
