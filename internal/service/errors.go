package service

import (
	"errors"
	"fmt"

	"authentication_api/internal/metrics"
	"authentication_api/internal/repository"
)

// Outcomes the transport layer branches on. Authentication failure is not
// among them: Authenticate and SignIn report it as an empty result.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("user not found")
	ErrConflict     = errors.New("username already exists")
	ErrStorage      = errors.New("storage error")
	ErrInvalidToken = errors.New("invalid token")
)

// translateRepoErr maps repository errors onto the service taxonomy.
func translateRepoErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict), errors.Is(err, ErrStorage):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
	}
}

// operationResult buckets an error into a metrics result label.
func operationResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, ErrStorage):
		return metrics.ResultError
	default:
		return metrics.ResultFailure
	}
}
