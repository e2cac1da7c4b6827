// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"tasksync/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
// It does not check authentication; use FakeBackend for that.
type FakeService struct {
	mu     sync.RWMutex
	tasks  []service.Task
	nextID int64
	calls  map[string]int

	// Error injection for testing
	ListTasksErr    error
	SearchTasksErr  error
	GetTaskErr      error
	CreateTaskErr   error
	UpdateTaskErr   error
	SetCompletedErr error
	DeleteTaskErr   error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{calls: make(map[string]int)}
}

// AddTask adds a task and returns it.
func (f *FakeService) AddTask(title, description string) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLocked(title, description)
}

func (f *FakeService) addLocked(title, description string) service.Task {
	f.nextID++
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(f.nextID) * time.Minute)
	t := service.Task{
		ID:          f.nextID,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.tasks = append(f.tasks, t)
	return t
}

// Calls returns how many times the named method was called.
func (f *FakeService) Calls(method string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.calls[method]
}

func (f *FakeService) count(method string) {
	f.calls[method]++
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("ListTasks")
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	return f.filterLocked(""), nil
}

// SearchTasks implements service.Service.
func (f *FakeService) SearchTasks(ctx context.Context, query string) ([]service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("SearchTasks")
	if f.SearchTasksErr != nil {
		return nil, f.SearchTasksErr
	}
	return f.filterLocked(query), nil
}

func (f *FakeService) filterLocked(query string) []service.Task {
	query = strings.ToLower(query)
	var out []service.Task
	for _, t := range f.tasks {
		if query == "" || strings.Contains(strings.ToLower(t.Title), query) {
			out = append(out, t)
		}
	}
	return out
}

// GetTask implements service.Service.
func (f *FakeService) GetTask(ctx context.Context, id int64) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("GetTask")
	if f.GetTaskErr != nil {
		return service.Task{}, f.GetTaskErr
	}
	i := f.indexLocked(id)
	if i < 0 {
		return service.Task{}, &service.Error{Kind: service.ErrNotFound, Status: 404}
	}
	return f.tasks[i], nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, title, description string) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("CreateTask")
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	if strings.TrimSpace(title) == "" {
		return service.Task{}, service.NewValidationError("title", "This field may not be blank.")
	}
	return f.addLocked(title, description), nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id int64, patch service.TaskPatch) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("UpdateTask")
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	i := f.indexLocked(id)
	if i < 0 {
		return service.Task{}, &service.Error{Kind: service.ErrNotFound, Status: 404}
	}
	if patch.Title != nil {
		f.tasks[i].Title = *patch.Title
	}
	if patch.Description != nil {
		f.tasks[i].Description = *patch.Description
	}
	if patch.Completed != nil {
		f.tasks[i].Completed = *patch.Completed
	}
	return f.tasks[i], nil
}

// SetCompleted implements service.Service.
func (f *FakeService) SetCompleted(ctx context.Context, id int64, completed bool) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("SetCompleted")
	if f.SetCompletedErr != nil {
		return service.Task{}, f.SetCompletedErr
	}
	i := f.indexLocked(id)
	if i < 0 {
		return service.Task{}, &service.Error{Kind: service.ErrNotFound, Status: 404}
	}
	f.tasks[i].Completed = completed
	return f.tasks[i], nil
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("DeleteTask")
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	i := f.indexLocked(id)
	if i < 0 {
		return &service.Error{Kind: service.ErrNotFound, Status: 404}
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	return nil
}

func (f *FakeService) indexLocked(id int64) int {
	for i, t := range f.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
