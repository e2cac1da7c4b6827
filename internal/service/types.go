// Package service defines the backend-agnostic types for task operations.
package service

import (
	"strings"
	"time"
)

// Task represents a single task owned by the backend.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasDescription reports whether the task carries a description.
// An empty description is treated as absent.
func (t Task) HasDescription() bool {
	return strings.TrimSpace(t.Description) != ""
}

// User is the profile of the authenticated user.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TaskPatch is a partial update. Nil fields are left unchanged server-side.
type TaskPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// IsEmpty reports whether the patch sets no field.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil
}
