package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"authentication_api/internal/models"
)

// Storage-level errors. Everything else a repository returns is a wrapped
// driver error.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("unique constraint violated")
)

// UserRepo is the narrow persistence boundary for user records.
// FindByUsername and FindByID return (nil, nil) when nothing matches.
type UserRepo interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	Insert(ctx context.Context, u models.User) (models.User, error)
	Update(ctx context.Context, u models.User) error
	Delete(ctx context.Context, id int64) error
	ListAll(ctx context.Context) ([]models.User, error)
}

// Store hands out user repositories. InTx runs fn against a repository bound
// to a single transaction: either every write in fn is committed or none is.
type Store interface {
	Users() UserRepo
	InTx(ctx context.Context, fn func(ctx context.Context, users UserRepo) error) error
}

type AuditRepo interface {
	Append(ctx context.Context, e models.AuditEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.AuditEvent, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Repository struct {
	Users Store
	Audit AuditRepo
}

// NewRepository wires SQL-backed repositories for the given dialect.
func NewRepository(db *sql.DB, dialect Dialect) *Repository {
	return &Repository{
		Users: NewSQLStore(db, dialect),
		Audit: NewAuditSQL(db, dialect),
	}
}

// NewMemoryRepository wires process-local repositories; nothing survives a restart.
func NewMemoryRepository() *Repository {
	return &Repository{
		Users: NewMemoryStore(),
		Audit: NewAuditMemory(),
	}
}
