package service

import (
	"context"
	"fmt"

	"authentication_api/internal/logger"
	"authentication_api/internal/metrics"
	"authentication_api/internal/models"
)

// Session is the result of a successful sign-in.
type Session struct {
	User  models.User
	Token models.IssuedToken
}

// AuthService turns verified credentials into bearer tokens.
type AuthService struct {
	directory *DirectoryService
	tokens    *TokenIssuer
	audit     auditRecorder
	log       *logger.Logger
	metrics   *metrics.Metrics
}

func NewAuthService(directory *DirectoryService, tokens *TokenIssuer, audit auditRecorder, log *logger.Logger, m *metrics.Metrics) *AuthService {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthService{directory: directory, tokens: tokens, audit: audit, log: log, metrics: m}
}

// SignIn authenticates and issues a token. A nil session with a nil error
// means the credentials were rejected.
func (s *AuthService) SignIn(ctx context.Context, username, password string) (*Session, error) {
	u, err := s.directory.Authenticate(ctx, username, password)
	if err != nil || u == nil {
		return nil, err
	}

	tok, err := s.tokens.Issue(*u)
	if err != nil {
		s.log.Errorw("token_issue_failed", "user_id", u.ID, "error", err)
		return nil, fmt.Errorf("sign in: %w", err)
	}
	s.metrics.TokenIssued()
	if s.audit != nil {
		s.audit.Record(ctx, models.AuditEvent{
			Type:        models.EventTokenIssued,
			UserID:      u.ID,
			Username:    u.Username,
			Description: "Bearer token issued",
			Metadata:    map[string]any{"expires": tok.ExpiresAt},
		})
	}
	return &Session{User: *u, Token: tok}, nil
}

// ParseToken verifies accessToken and returns its claims.
func (s *AuthService) ParseToken(accessToken string) (*Claims, error) {
	return s.tokens.Parse(accessToken)
}
