// Package exitcode defines exit codes for the CLI.
package exitcode

import (
	"errors"

	"tasksync/internal/service"
)

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, validation, not found).
	UserError = 1

	// AuthError indicates a missing or rejected session.
	AuthError = 2

	// BackendError indicates a backend, network or local state error.
	BackendError = 3
)

// For maps an error to its exit code.
func For(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, service.ErrUnauthorized):
		return AuthError
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrNotFound):
		return UserError
	default:
		return BackendError
	}
}
