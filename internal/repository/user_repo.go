package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"authentication_api/internal/dbx"
	"authentication_api/internal/models"
)

// UserSQL is a UserRepo over any DBTX, so the same code runs on the pool or
// inside a transaction.
type UserSQL struct {
	db      dbx.DBTX
	dialect Dialect
	now     func() time.Time
}

func NewUserSQL(db dbx.DBTX, dialect Dialect) *UserSQL {
	return &UserSQL{db: db, dialect: dialect, now: time.Now}
}

// Ensure implementation of UserRepo interface at compile time.
var _ UserRepo = (*UserSQL)(nil)

const (
	userColumns = `id, username, first_name, last_name, password_hash, password_salt, created_at, updated_at`

	insertUserSQL = `INSERT INTO users (username, first_name, last_name, password_hash, password_salt, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`
	selectUserByUsernameSQL = `SELECT ` + userColumns + ` FROM users WHERE username = ? LIMIT 2`
	selectUserByIDSQL       = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	updateUserSQL           = `UPDATE users SET username = ?, first_name = ?, last_name = ?, password_hash = ?, password_salt = ?, updated_at = ?
		WHERE id = ?`
	deleteUserSQL    = `DELETE FROM users WHERE id = ?`
	selectAllUserSQL = `SELECT ` + userColumns + ` FROM users ORDER BY id ASC`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PasswordHash, &u.PasswordSalt, &u.CreatedAt, &u.UpdatedAt)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, err
}

// FindByUsername returns the single user with that username, (nil, nil) if
// there is none, and ErrConflict if the store somehow holds more than one.
func (r *UserSQL) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(selectUserByUsernameSQL), username)
	if err != nil {
		return nil, fmt.Errorf("select user %q: %w", username, err)
	}
	defer rows.Close()

	var found []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user %q: %w", username, err)
		}
		found = append(found, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user %q: %w", username, err)
	}

	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("select user %q: %w: %d rows share the username", username, ErrConflict, len(found))
	}
}

// FindByID returns the user with id or (nil, nil).
func (r *UserSQL) FindByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, r.dialect.rebind(selectUserByIDSQL), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user %d: %w", id, err)
	}
	return &u, nil
}

// Insert persists u and returns it with ID and timestamps populated.
func (r *UserSQL) Insert(ctx context.Context, u models.User) (models.User, error) {
	now := r.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	err := r.db.QueryRowContext(ctx, r.dialect.rebind(insertUserSQL),
		u.Username, u.FirstName, u.LastName, u.PasswordHash, u.PasswordSalt, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("insert user %q: %w", u.Username, ErrConflict)
		}
		return models.User{}, fmt.Errorf("insert user %q: %w", u.Username, err)
	}
	return u, nil
}

// Update overwrites the mutable columns of an existing record.
func (r *UserSQL) Update(ctx context.Context, u models.User) error {
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(updateUserSQL),
		u.Username, u.FirstName, u.LastName, u.PasswordHash, u.PasswordSalt, r.now().UTC(), u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update user %d: %w", u.ID, ErrConflict)
		}
		return fmt.Errorf("update user %d: %w", u.ID, err)
	}
	return expectOneRow(res, "update", u.ID)
}

// Delete hard-deletes the record.
func (r *UserSQL) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(deleteUserSQL), id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return expectOneRow(res, "delete", id)
}

// ListAll returns every user in insertion (id) order.
func (r *UserSQL) ListAll(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, selectAllUserSQL)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]models.User, 0, 16)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan users: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

func expectOneRow(res sql.Result, op string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s user %d: rows affected: %w", op, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s user %d: %w", op, id, ErrNotFound)
	}
	return nil
}
