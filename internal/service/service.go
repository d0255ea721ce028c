package service

import (
	"context"
	"time"

	"authentication_api/internal/credential"
	"authentication_api/internal/logger"
	"authentication_api/internal/metrics"
	"authentication_api/internal/models"
	"authentication_api/internal/repository"
)

// Directory manages user records and verifies passwords.
type Directory interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	CreateUser(ctx context.Context, u models.User, password string) (models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) error
	DeleteUser(ctx context.Context, id int64) error
	GetUser(ctx context.Context, id int64) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Authorization issues and verifies bearer tokens.
type Authorization interface {
	SignIn(ctx context.Context, username, password string) (*Session, error)
	ParseToken(accessToken string) (*Claims, error)
}

// AuditLog exposes the append-only audit trail with filtering access.
type AuditLog interface {
	ListEvents(ctx context.Context, f AuditFilter) ([]models.AuditEvent, error)
}

// Sweeper prunes expired audit events in the background.
// Stop via context cancellation in main() for graceful shutdown.
type Sweeper interface {
	Run(ctx context.Context, tick time.Duration)
}

// Service aggregates all sub-services.
type Service struct {
	Directory
	Authorization
	AuditLog
	Sweeper
}

// Deps are the collaborators NewService wires together. Hasher, Log and
// Metrics may be nil.
type Deps struct {
	Repos     *repository.Repository
	Tokens    *TokenIssuer
	Hasher    credential.Hasher
	Log       *logger.Logger
	Metrics   *metrics.Metrics
	Retention time.Duration
}

func NewService(d Deps) *Service {
	hasher := d.Hasher
	if hasher == nil {
		hasher = credential.NewHMACHasher()
	}
	audit := NewAuditLogService(d.Repos.Audit, d.Log)
	directory := NewDirectoryService(d.Repos.Users, hasher, audit, d.Log, d.Metrics)
	return &Service{
		Directory:     directory,
		Authorization: NewAuthService(directory, d.Tokens, audit, d.Log, d.Metrics),
		AuditLog:      audit,
		Sweeper:       NewRetentionService(d.Repos.Audit, d.Retention, d.Log),
	}
}
