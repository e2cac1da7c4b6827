// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the typed task operations against the backend.
// Every call maps to exactly one request; errors are *Error values
// classified by the transport and passed through unchanged.
type Service interface {
	// ListTasks returns all tasks of the current user in backend order.
	ListTasks(ctx context.Context) ([]Task, error)

	// SearchTasks returns tasks filtered server-side by query.
	// An empty query is equivalent to ListTasks.
	SearchTasks(ctx context.Context, query string) ([]Task, error)

	// GetTask returns a single task or ErrNotFound.
	GetTask(ctx context.Context, id int64) (Task, error)

	// CreateTask creates a task. Title must be non-blank.
	CreateTask(ctx context.Context, title, description string) (Task, error)

	// UpdateTask applies a partial update.
	UpdateTask(ctx context.Context, id int64, patch TaskPatch) (Task, error)

	// SetCompleted sets the completed flag of a task.
	SetCompleted(ctx context.Context, id int64, completed bool) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id int64) error
}
