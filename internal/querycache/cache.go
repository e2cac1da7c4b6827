// Package querycache caches task collections per search query.
//
// Entries are discarded on invalidation, never patched, so the next read
// after a mutation always reflects the backend.
package querycache

import (
	"context"
	"sync"
	"time"

	"tasksync/internal/service"
)

// Query identifies a cached collection. The zero Query is the unfiltered
// list. Queries compare by value and are used directly as map keys.
type Query struct {
	Search string
}

// Status is the state of a cache entry.
type Status int

const (
	// StatusIdle means the query is disabled or was never read.
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// State is what a reader sees for a query.
type State struct {
	Status    Status
	Tasks     []service.Task
	Err       error
	FetchedAt time.Time
}

// Source fetches task collections.
type Source interface {
	ListTasks(ctx context.Context) ([]service.Task, error)
	SearchTasks(ctx context.Context, query string) ([]service.Task, error)
}

type entry struct {
	state State
	done  chan struct{} // closed when the fetch finishes
}

// Cache is a keyed cache of task collections. It is safe for concurrent use.
type Cache struct {
	src     Source
	enabled func() bool
	now     func() time.Time

	mu        sync.Mutex
	entries   map[Query]*entry
	listeners map[int]chan struct{}
	nextSub   int
}

// Option configures a Cache.
type Option func(*Cache)

// WithEnabled gates fetching. While fn returns false, Read reports
// StatusIdle without contacting the source.
func WithEnabled(fn func() bool) Option {
	return func(c *Cache) { c.enabled = fn }
}

// WithClock sets the time source for FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache reading from src.
func New(src Source, opts ...Option) *Cache {
	c := &Cache{
		src:       src,
		enabled:   func() bool { return true },
		now:       time.Now,
		entries:   make(map[Query]*entry),
		listeners: make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read returns the collection for q, fetching it when there is no
// successful entry. Concurrent reads of the same query share one fetch.
// Failed fetches are reported but not kept: the next Read retries.
func (c *Cache) Read(ctx context.Context, q Query) State {
	if !c.enabled() {
		return State{Status: StatusIdle}
	}

	c.mu.Lock()
	e, ok := c.entries[q]
	if ok && e.state.Status == StatusSuccess {
		st := copyState(e.state)
		c.mu.Unlock()
		return st
	}
	if !ok || e.state.Status == StatusError {
		e = &entry{state: State{Status: StatusLoading}, done: make(chan struct{})}
		c.entries[q] = e
		c.mu.Unlock()
		go c.fetch(q, e)
	} else {
		c.mu.Unlock()
	}

	select {
	case <-e.done:
	case <-ctx.Done():
		return State{Status: StatusError, Err: ctx.Err()}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return copyState(e.state)
}

// fetch runs detached from any single reader so that one reader giving up
// does not fail the others waiting on the same entry.
func (c *Cache) fetch(q Query, e *entry) {
	var (
		tasks []service.Task
		err   error
	)
	ctx := context.Background()
	if q.Search == "" {
		tasks, err = c.src.ListTasks(ctx)
	} else {
		tasks, err = c.src.SearchTasks(ctx, q.Search)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// An entry discarded by Invalidate while in flight is no longer in the
	// map: it still answers its waiters but never lands in the cache.
	if err != nil {
		e.state = State{Status: StatusError, Err: err, FetchedAt: c.now()}
	} else {
		e.state = State{Status: StatusSuccess, Tasks: tasks, FetchedAt: c.now()}
	}
	close(e.done)
}

// Peek returns the state of q without fetching.
func (c *Cache) Peek(q Query) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[q]
	if !ok {
		return State{Status: StatusIdle}, false
	}
	return copyState(e.state), true
}

// Invalidate discards the entries for the given queries, or every entry
// when called without arguments, then signals subscribers.
func (c *Cache) Invalidate(queries ...Query) {
	c.mu.Lock()
	if len(queries) == 0 {
		c.entries = make(map[Query]*entry)
	} else {
		for _, q := range queries {
			delete(c.entries, q)
		}
	}
	listeners := make([]chan struct{}, 0, len(c.listeners))
	for _, ch := range c.listeners {
		listeners = append(listeners, ch)
	}
	c.mu.Unlock()

	for _, ch := range listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribe returns a channel that receives a signal after invalidations.
// Signals coalesce; a reader should Read again on each one. cancel stops
// the subscription.
func (c *Cache) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.listeners[id] = ch
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
	return ch, cancel
}

// copyState returns st with its own copy of the task slice.
func copyState(st State) State {
	if st.Tasks != nil {
		tasks := make([]service.Task, len(st.Tasks))
		copy(tasks, st.Tasks)
		st.Tasks = tasks
	}
	return st
}
