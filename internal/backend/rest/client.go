// Package rest implements the service.Service interface over the task
// backend's REST API.
package rest

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tasksync/internal/service"
	"tasksync/internal/transport"
)

const (
	tasksPath  = "tasks/"
	searchPath = "tasks/search/"
	taskPath   = "tasks/{id}/"
)

// Sender sends requests to the backend.
type Sender interface {
	Do(ctx context.Context, req transport.Request, out any) error
}

// Client implements service.Service on top of a transport.
// Transport errors are returned unchanged.
type Client struct {
	api Sender
}

var _ service.Service = (*Client)(nil)

// New creates a Client that sends its requests through api.
func New(api Sender) *Client {
	return &Client{api: api}
}

// ListTasks returns all tasks in backend order.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	var tasks []service.Task
	err := c.api.Do(ctx, transport.Request{Method: http.MethodGet, Path: tasksPath}, &tasks)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// SearchTasks returns tasks matching query. An empty query lists all tasks.
func (c *Client) SearchTasks(ctx context.Context, query string) ([]service.Task, error) {
	if query == "" {
		return c.ListTasks(ctx)
	}

	var tasks []service.Task
	err := c.api.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   searchPath,
		Query:  url.Values{"q": {query}},
	}, &tasks)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask returns a single task.
func (c *Client) GetTask(ctx context.Context, id int64) (service.Task, error) {
	var task service.Task
	err := c.api.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   taskPath,
		Params: idParam(id),
	}, &task)
	return task, err
}

// CreateTask creates a task. A blank title is rejected without a request.
func (c *Client) CreateTask(ctx context.Context, title, description string) (service.Task, error) {
	if strings.TrimSpace(title) == "" {
		return service.Task{}, service.NewValidationError("title", "Title is required.")
	}

	var task service.Task
	err := c.api.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   tasksPath,
		Body: map[string]string{
			"title":       title,
			"description": description,
		},
	}, &task)
	return task, err
}

// UpdateTask sends only the fields set in patch.
func (c *Client) UpdateTask(ctx context.Context, id int64, patch service.TaskPatch) (service.Task, error) {
	if patch.IsEmpty() {
		return service.Task{}, service.NewValidationError(service.NonFieldKey, "Nothing to update.")
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return service.Task{}, service.NewValidationError("title", "Title is required.")
	}

	var task service.Task
	err := c.api.Do(ctx, transport.Request{
		Method: http.MethodPut,
		Path:   taskPath,
		Params: idParam(id),
		Body:   patch,
	}, &task)
	return task, err
}

// SetCompleted marks a task completed or open.
func (c *Client) SetCompleted(ctx context.Context, id int64, completed bool) (service.Task, error) {
	var task service.Task
	err := c.api.Do(ctx, transport.Request{
		Method: http.MethodPatch,
		Path:   taskPath,
		Params: idParam(id),
		Body:   map[string]bool{"completed": completed},
	}, &task)
	return task, err
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.api.Do(ctx, transport.Request{
		Method: http.MethodDelete,
		Path:   taskPath,
		Params: idParam(id),
	}, nil)
}

func idParam(id int64) map[string]string {
	return map[string]string{"id": strconv.FormatInt(id, 10)}
}
