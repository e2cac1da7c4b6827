// Package session owns the client's authenticated identity: the credential
// issued by the backend and the profile of the user it belongs to.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"

	"tasksync/internal/service"
	"tasksync/internal/store"
)

// Storage keys. Both are always written and cleared together.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// Reason explains why a session was torn down.
type Reason int

const (
	// ReasonLogout means the user logged out.
	ReasonLogout Reason = iota + 1

	// ReasonExpired means the backend rejected the credential.
	ReasonExpired
)

func (r Reason) String() string {
	switch r {
	case ReasonLogout:
		return "logout"
	case ReasonExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Session is the process-wide authentication state.
// Transitions happen only through Establish and Teardown.
type Session struct {
	mu         sync.RWMutex
	store      store.Store
	credential string
	user       service.User
	listeners  []func(Reason)
	logger     *log.Logger
}

// New loads the persisted session from st. A half-written state (token
// without user or the reverse) is cleared and the session starts anonymous.
func New(ctx context.Context, st store.Store, logger *log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Session{store: st, logger: logger}

	token, hasToken, err := st.Get(ctx, TokenKey)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	rawUser, hasUser, err := st.Get(ctx, UserKey)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var user service.User
	consistent := hasToken && hasUser && token != ""
	if consistent {
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
			logger.Printf("session: discarding unreadable user profile: %v", err)
			consistent = false
		}
	}

	switch {
	case consistent:
		s.credential = token
		s.user = user
	case hasToken || hasUser:
		logger.Printf("session: clearing inconsistent persisted state")
		if err := st.Delete(ctx, TokenKey, UserKey); err != nil {
			return nil, fmt.Errorf("clear session: %w", err)
		}
	}
	return s, nil
}

// Credential returns the current credential.
func (s *Session) Credential() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential, s.credential != ""
}

// CurrentUser returns the profile of the authenticated user.
func (s *Session) CurrentUser() (service.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.credential != ""
}

// IsAuthenticated reports whether a credential is held.
func (s *Session) IsAuthenticated() bool {
	_, ok := s.Credential()
	return ok
}

// OnTeardown registers fn to be called after every teardown.
func (s *Session) OnTeardown(fn func(Reason)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Establish persists credential and user in one write, then makes them
// current. Any previous session is replaced.
func (s *Session) Establish(ctx context.Context, credential string, user service.User) error {
	if credential == "" {
		return fmt.Errorf("establish session: empty credential")
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.store.SetMany(ctx, map[string]string{
		TokenKey: credential,
		UserKey:  string(data),
	})
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.credential = credential
	s.user = user
	s.logger.Printf("session: established for %s", user.Username)
	return nil
}

// Teardown clears the persisted and in-memory session. In-memory state is
// cleared even when the store fails; the store error is returned.
// Listeners run only when an authenticated session actually ended.
func (s *Session) Teardown(ctx context.Context, reason Reason) error {
	s.mu.Lock()
	wasAuthenticated := s.credential != ""
	err := s.store.Delete(ctx, TokenKey, UserKey)
	s.credential = ""
	s.user = service.User{}
	listeners := make([]func(Reason), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	if err != nil {
		s.logger.Printf("session: clearing store: %v", err)
		err = fmt.Errorf("clear session: %w", err)
	}
	if !wasAuthenticated {
		return err
	}
	s.logger.Printf("session: torn down (%s)", reason)

	for _, fn := range listeners {
		fn(reason)
	}
	return err
}

// Expire tears the session down after the backend rejected the credential.
// It implements transport.Credentials.
func (s *Session) Expire() {
	_ = s.Teardown(context.Background(), ReasonExpired)
}
