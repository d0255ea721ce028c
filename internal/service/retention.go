package service

import (
	"context"
	"fmt"
	"time"

	"authentication_api/internal/logger"
	"authentication_api/internal/repository"
)

// RetentionService prunes audit events older than the retention window.
type RetentionService struct {
	repo      repository.AuditRepo
	retention time.Duration
	log       *logger.Logger
	now       func() time.Time
}

func NewRetentionService(repo repository.AuditRepo, retention time.Duration, log *logger.Logger) *RetentionService {
	if log == nil {
		log = logger.Nop()
	}
	return &RetentionService{repo: repo, retention: retention, log: log, now: time.Now}
}

// Run sweeps at the given interval until ctx is canceled.
func (s *RetentionService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				s.log.Warnw("audit_sweep_failed", "error", err)
			}
		}
	}
}

// SweepOnce deletes everything that occurred before now minus the retention.
func (s *RetentionService) SweepOnce(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	cutoff := s.now().UTC().Add(-s.retention)
	n, err := s.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete audit events before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	if n > 0 {
		s.log.Infow("audit_events_pruned", "count", n, "cutoff", cutoff)
	}
	return n, nil
}
