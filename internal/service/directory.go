package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"authentication_api/internal/credential"
	"authentication_api/internal/logger"
	"authentication_api/internal/metrics"
	"authentication_api/internal/models"
	"authentication_api/internal/repository"
)

// auditRecorder is the best-effort sink the directory reports to.
type auditRecorder interface {
	Record(ctx context.Context, e models.AuditEvent)
}

// DirectoryService orchestrates the user store and the credential hasher.
type DirectoryService struct {
	store   repository.Store
	hasher  credential.Hasher
	audit   auditRecorder
	log     *logger.Logger
	metrics *metrics.Metrics

	// Verified against when the username is unknown so that both failure
	// paths do the same work.
	dummyHash []byte
	dummySalt []byte
}

func NewDirectoryService(store repository.Store, hasher credential.Hasher, audit auditRecorder, log *logger.Logger, m *metrics.Metrics) *DirectoryService {
	if log == nil {
		log = logger.Nop()
	}
	return &DirectoryService{
		store:     store,
		hasher:    hasher,
		audit:     audit,
		log:       log,
		metrics:   m,
		dummyHash: make([]byte, models.PasswordHashLen),
		dummySalt: make([]byte, models.PasswordSaltLen),
	}
}

func (s *DirectoryService) record(ctx context.Context, e models.AuditEvent) {
	if s.audit != nil {
		s.audit.Record(ctx, e)
	}
}

// Authenticate returns the user when password matches, and (nil, nil) for an
// empty input, an unknown username or a wrong password alike. Only storage
// failures are reported as errors.
func (s *DirectoryService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || strings.TrimSpace(password) == "" {
		s.metrics.Authentication(metrics.ResultFailure)
		return nil, nil
	}

	u, err := s.store.Users().FindByUsername(ctx, username)
	if err != nil {
		s.metrics.Authentication(metrics.ResultError)
		s.log.Errorw("auth_lookup_failed", "username", username, "error", err)
		return nil, translateRepoErr("authenticate", err)
	}

	hash, salt := s.dummyHash, s.dummySalt
	if u != nil {
		hash, salt = u.PasswordHash, u.PasswordSalt
	}
	ok, err := s.hasher.Verify(password, hash, salt)
	if err != nil {
		// Malformed stored credentials; the caller still only sees a failed login.
		s.log.Errorw("auth_verify_failed", "username", username, "error", err)
		ok = false
	}

	if u == nil || !ok {
		s.metrics.Authentication(metrics.ResultFailure)
		s.log.Infow("auth_sign_in_failed", "username", username)
		s.record(ctx, models.AuditEvent{
			Type:        models.EventLoginFailed,
			Username:    username,
			Description: "Authentication failed",
		})
		return nil, nil
	}

	s.metrics.Authentication(metrics.ResultSuccess)
	s.record(ctx, models.AuditEvent{
		Type:        models.EventLoginSucceeded,
		UserID:      u.ID,
		Username:    u.Username,
		Description: "Authentication succeeded",
	})
	return u, nil
}

// CreateUser hashes password and stores u. ID and timestamps on u are ignored.
func (s *DirectoryService) CreateUser(ctx context.Context, u models.User, password string) (models.User, error) {
	created, err := s.createUser(ctx, u, password)
	s.metrics.UserOperation("create", operationResult(err))
	if err != nil {
		s.logFailure("user_create_failed", err, "username", u.Username)
		return models.User{}, err
	}

	s.log.Infow("user_created", "user_id", created.ID, "username", created.Username)
	s.record(ctx, models.AuditEvent{
		Type:        models.EventUserCreated,
		UserID:      created.ID,
		Username:    created.Username,
		Description: "User registered",
	})
	return created, nil
}

func (s *DirectoryService) createUser(ctx context.Context, u models.User, password string) (models.User, error) {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		return models.User{}, fmt.Errorf("create user: %w: username is required", ErrValidation)
	}
	hash, salt, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, hasherErr("create user", err)
	}
	u.ID = 0
	u.PasswordHash, u.PasswordSalt = hash, salt

	var created models.User
	err = s.store.InTx(ctx, func(ctx context.Context, users repository.UserRepo) error {
		existing, err := users.FindByUsername(ctx, u.Username)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("create user %q: %w", u.Username, ErrConflict)
		}
		// The unique constraint still decides races the pre-check cannot see.
		created, err = users.Insert(ctx, u)
		return err
	})
	if err != nil {
		return models.User{}, translateRepoErr("create user", err)
	}
	return created, nil
}

// UpdateUser applies patch atomically. Absent (nil) and blank fields are left
// unchanged; a username already held by another user yields ErrConflict and
// nothing is written.
func (s *DirectoryService) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) error {
	var (
		changed []string
		updated models.User
	)
	err := s.store.InTx(ctx, func(ctx context.Context, users repository.UserRepo) error {
		cur, err := users.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return fmt.Errorf("update user %d: %w", id, ErrNotFound)
		}
		next := *cur

		if v, ok := present(patch.Username); ok && v != cur.Username {
			other, err := users.FindByUsername(ctx, v)
			if err != nil {
				return err
			}
			if other != nil && other.ID != id {
				return fmt.Errorf("update user %d: %w", id, ErrConflict)
			}
			next.Username = v
			changed = append(changed, "username")
		}
		if v, ok := present(patch.FirstName); ok && v != cur.FirstName {
			next.FirstName = v
			changed = append(changed, "firstName")
		}
		if v, ok := present(patch.LastName); ok && v != cur.LastName {
			next.LastName = v
			changed = append(changed, "lastName")
		}
		if patch.Password != nil && strings.TrimSpace(*patch.Password) != "" {
			hash, salt, err := s.hasher.Hash(*patch.Password)
			if err != nil {
				return hasherErr("update user", err)
			}
			next.PasswordHash, next.PasswordSalt = hash, salt
			changed = append(changed, "password")
		}

		if len(changed) == 0 {
			return nil
		}
		updated = next
		return users.Update(ctx, next)
	})
	err = translateRepoErr("update user", err)
	s.metrics.UserOperation("update", operationResult(err))
	if err != nil {
		s.logFailure("user_update_failed", err, "user_id", id)
		return err
	}
	if len(changed) == 0 {
		return nil
	}

	s.log.Infow("user_updated", "user_id", id, "fields", changed)
	s.record(ctx, models.AuditEvent{
		Type:        models.EventUserUpdated,
		UserID:      id,
		Username:    updated.Username,
		Description: "User updated",
		Metadata:    map[string]any{"fields": changed},
	})
	return nil
}

// DeleteUser hard-deletes the user.
func (s *DirectoryService) DeleteUser(ctx context.Context, id int64) error {
	err := translateRepoErr("delete user", s.store.Users().Delete(ctx, id))
	s.metrics.UserOperation("delete", operationResult(err))
	if err != nil {
		s.logFailure("user_delete_failed", err, "user_id", id)
		return err
	}

	s.log.Infow("user_deleted", "user_id", id)
	s.record(ctx, models.AuditEvent{
		Type:        models.EventUserDeleted,
		UserID:      id,
		Description: "User deleted",
	})
	return nil
}

func (s *DirectoryService) GetUser(ctx context.Context, id int64) (models.User, error) {
	u, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return models.User{}, translateRepoErr("get user", err)
	}
	if u == nil {
		return models.User{}, fmt.Errorf("get user %d: %w", id, ErrNotFound)
	}
	return *u, nil
}

func (s *DirectoryService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.store.Users().ListAll(ctx)
	if err != nil {
		return nil, translateRepoErr("list users", err)
	}
	return users, nil
}

func (s *DirectoryService) logFailure(event string, err error, kv ...any) {
	kv = append(kv, "error", err)
	if errors.Is(err, ErrStorage) {
		s.log.Errorw(event, kv...)
		return
	}
	s.log.Warnw(event, kv...)
}

// present reports the trimmed value of an optional field, and false when the
// field is absent or blank.
func present(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	v := strings.TrimSpace(*p)
	return v, v != ""
}

func hasherErr(op string, err error) error {
	if errors.Is(err, credential.ErrInvalidInput) {
		return fmt.Errorf("%s: %w: password is required", op, ErrValidation)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
