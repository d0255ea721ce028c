package repository

import (
	"context"
	"database/sql"

	"authentication_api/internal/dbx"
)

// SQLStore binds UserSQL either to the pool or to a transaction.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

var _ Store = (*SQLStore)(nil)

func (s *SQLStore) Users() UserRepo {
	return NewUserSQL(s.db, s.dialect)
}

// InTx runs fn in a read-committed transaction.
func (s *SQLStore) InTx(ctx context.Context, fn func(ctx context.Context, users UserRepo) error) error {
	opts := &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	if s.dialect == SQLite {
		// SQLite transactions are always serializable and reject explicit levels.
		opts = nil
	}
	return dbx.WithTx(ctx, s.db, opts, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, NewUserSQL(tx, s.dialect))
	})
}
