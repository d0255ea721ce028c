package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"authentication_api/internal/logger"
	"authentication_api/internal/models"
	"authentication_api/internal/repository"
)

// AuditFilter narrows ListEvents by time range and event type.
type AuditFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "USER_CREATED", "LOGIN_FAILED", ...
}

type AuditLogService struct {
	repo repository.AuditRepo
	log  *logger.Logger
}

func NewAuditLogService(repo repository.AuditRepo, log *logger.Logger) *AuditLogService {
	if log == nil {
		log = logger.Nop()
	}
	return &AuditLogService{repo: repo, log: log}
}

var errInvalidTimeRange = errors.New("invalid time range: from must be <= to")

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

func normalizeAndValidateFilter(f AuditFilter) (AuditFilter, error) {
	out := AuditFilter{
		From: normalizeToUTC(f.From),
		To:   normalizeToUTC(f.To),
		Type: normalizeEventType(f.Type),
	}
	if !out.From.IsZero() && !out.To.IsZero() && out.From.After(out.To) {
		return AuditFilter{}, fmt.Errorf("%w: %w", ErrValidation, errInvalidTimeRange)
	}
	return out, nil
}

// ListEvents returns matching events oldest first.
func (s *AuditLogService) ListEvents(ctx context.Context, f AuditFilter) ([]models.AuditEvent, error) {
	nf, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	events, err := s.repo.List(ctx, nf.From, nf.To, nf.Type)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w: %w", ErrStorage, err)
	}
	return events, nil
}

// Record appends e. Failures are logged and swallowed so that auditing never
// fails the operation being audited.
func (s *AuditLogService) Record(ctx context.Context, e models.AuditEvent) {
	if err := s.repo.Append(ctx, e); err != nil {
		s.log.Warnw("audit_append_failed", "type", e.Type, "user_id", e.UserID, "error", err)
	}
}
