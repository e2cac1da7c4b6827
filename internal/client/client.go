// Package client assembles the synchronization layer: persisted session,
// authenticated transport, task repository and query cache.
package client

import (
	"context"
	"fmt"
	"io"
	"log"

	"tasksync/internal/backend/rest"
	"tasksync/internal/config"
	"tasksync/internal/mutation"
	"tasksync/internal/querycache"
	"tasksync/internal/service"
	"tasksync/internal/session"
	"tasksync/internal/store"
	"tasksync/internal/transport"
)

// Client bundles the components a front end talks to.
type Client struct {
	Session *session.Session
	Auth    *session.Auth
	Tasks   service.Service
	Cache   *querycache.Cache

	store  store.Store
	logger *log.Logger
}

// New opens the persisted state under cfg.Dir and assembles a Client for
// cfg.BaseURL.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Client, error) {
	if err := cfg.EnsureDir(); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	st, err := store.OpenSQLite(cfg.StatePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open state: %w", err)
	}
	c, err := Assemble(ctx, st, cfg.BaseURL, logger)
	if err != nil {
		st.Close()
		return nil, err
	}
	return c, nil
}

// Assemble wires a Client on top of an existing store.
// A session teardown, whatever its cause, discards every cached query.
func Assemble(ctx context.Context, st store.Store, baseURL string, logger *log.Logger, opts ...transport.Option) (*Client, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	sess, err := session.New(ctx, st, logger)
	if err != nil {
		return nil, err
	}

	opts = append([]transport.Option{transport.WithLogger(logger)}, opts...)
	tr := transport.New(baseURL, sess, opts...)
	tasks := rest.New(tr)
	cache := querycache.New(tasks, querycache.WithEnabled(sess.IsAuthenticated))

	sess.OnTeardown(func(reason session.Reason) {
		cache.Invalidate()
	})

	return &Client{
		Session: sess,
		Auth:    session.NewAuth(sess, tr),
		Tasks:   tasks,
		Cache:   cache,
		store:   st,
		logger:  logger,
	}, nil
}

// Mutations returns a coordinator that reports its notices to notify.
func (c *Client) Mutations(notify mutation.Notifier) *mutation.Coordinator {
	return mutation.New(c.Tasks, c.Cache, notify, c.logger)
}

// Close releases the persisted state.
func (c *Client) Close() error {
	return c.store.Close()
}
