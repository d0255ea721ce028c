package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestDialect_Rebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		in      string
		want    string
	}{
		{"sqlite untouched", SQLite, "SELECT 1 FROM users WHERE id = ? AND username = ?", "SELECT 1 FROM users WHERE id = ? AND username = ?"},
		{"postgres numbered", Postgres, "UPDATE users SET username = ? WHERE id = ?", "UPDATE users SET username = $1 WHERE id = $2"},
		{"postgres no args", Postgres, "SELECT id FROM users", "SELECT id FROM users"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.rebind(tt.in); got != tt.want {
				t.Fatalf("rebind: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("disk I/O error"), false},
		{"sqlite message", errors.New("constraint failed: UNIQUE constraint failed: users.username (2067)"), true},
		{"pg unique", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, true},
		{"pg wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgerrcode.UniqueViolation}), true},
		{"pg other", &pgconn.PgError{Code: pgerrcode.NotNullViolation}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Fatalf("isUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
