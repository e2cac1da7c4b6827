// Package mutation runs task mutations on behalf of user intents and
// reports their outcome.
package mutation

import (
	"context"
	"errors"
	"io"
	"log"

	"tasksync/internal/querycache"
	"tasksync/internal/service"
)

// Level is the severity of a Notice.
type Level int

const (
	LevelSuccess Level = iota + 1
	LevelError
)

// Notice is the user-facing outcome of a mutation.
type Notice struct {
	Level   Level
	Message string
	Fields  service.FieldErrors // set for validation failures
}

// Notifier receives notices.
type Notifier func(Notice)

// Invalidator discards cached query results.
type Invalidator interface {
	Invalidate(queries ...querycache.Query)
}

// Coordinator sequences one backend call per intent, then invalidates the
// cache on confirmed success. It holds no lock across calls, so unrelated
// mutations run concurrently.
type Coordinator struct {
	svc    service.Service
	cache  Invalidator
	notify Notifier
	logger *log.Logger
}

// New creates a Coordinator. notify may be nil.
func New(svc service.Service, cache Invalidator, notify Notifier, logger *log.Logger) *Coordinator {
	if notify == nil {
		notify = func(Notice) {}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Coordinator{svc: svc, cache: cache, notify: notify, logger: logger}
}

// Create creates a task.
func (c *Coordinator) Create(ctx context.Context, title, description string) (service.Task, error) {
	task, err := c.svc.CreateTask(ctx, title, description)
	c.settle("create", err, "Task created successfully!", "Failed to create task")
	return task, err
}

// Update applies a partial update to a task.
func (c *Coordinator) Update(ctx context.Context, id int64, patch service.TaskPatch) (service.Task, error) {
	task, err := c.svc.UpdateTask(ctx, id, patch)
	c.settle("update", err, "Task updated successfully!", "Failed to update task")
	return task, err
}

// SetCompleted marks a task completed or open.
func (c *Coordinator) SetCompleted(ctx context.Context, id int64, completed bool) (service.Task, error) {
	task, err := c.svc.SetCompleted(ctx, id, completed)
	success := "Task marked as incomplete"
	if completed {
		success = "Task marked as completed"
	}
	c.settle("complete", err, success, "Failed to update task status")
	return task, err
}

// Delete deletes a task.
func (c *Coordinator) Delete(ctx context.Context, id int64) error {
	err := c.svc.DeleteTask(ctx, id)
	c.settle("delete", err, "Task deleted successfully!", "Failed to delete task")
	return err
}

// settle runs after the backend answered. Success invalidates every query,
// since a mutation may change any result set. Failure leaves the cache
// alone, except NotFound which invalidates to drop the vanished task.
func (c *Coordinator) settle(op string, err error, success, failure string) {
	if err == nil {
		c.cache.Invalidate()
		c.notify(Notice{Level: LevelSuccess, Message: success})
		return
	}

	c.logger.Printf("mutation %s failed: %v", op, err)

	n := Notice{Level: LevelError, Message: failure}
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		n.Message = "Session expired, please log in again"
	case errors.Is(err, service.ErrValidation):
		n.Fields = service.FieldsOf(err)
	case errors.Is(err, service.ErrNotFound):
		c.cache.Invalidate()
	}
	c.notify(n)
}
