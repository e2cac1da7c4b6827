package session

import (
	"context"
	"errors"
	"net/http"

	"tasksync/internal/service"
	"tasksync/internal/transport"
)

// ErrInvalidCredentials is returned when the backend rejects a login.
// It also matches service.ErrValidation.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Sender sends requests to the backend.
type Sender interface {
	Do(ctx context.Context, req transport.Request, out any) error
}

// Result is the outcome of a successful login or registration.
type Result struct {
	Credential string
	User       service.User
}

// RegisterRequest holds the registration form.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// authResponse is the body of login and register responses.
// Some backends name the credential "key" instead of "token".
type authResponse struct {
	Token string        `json:"token"`
	Key   string        `json:"key"`
	User  *service.User `json:"user"`
}

func (r authResponse) credential() string {
	if r.Token != "" {
		return r.Token
	}
	return r.Key
}

// Auth runs the login, registration and logout flows for a Session.
type Auth struct {
	session *Session
	api     Sender
}

// NewAuth creates an Auth that talks to the backend through api.
func NewAuth(s *Session, api Sender) *Auth {
	return &Auth{session: s, api: api}
}

// Login exchanges username and password for a credential and establishes
// the session before returning.
func (a *Auth) Login(ctx context.Context, username, password string) (Result, error) {
	var resp authResponse
	err := a.api.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "auth/login/",
		Body: map[string]string{
			"username": username,
			"password": password,
		},
	}, &resp)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return Result{}, &invalidCredentials{err: err}
		}
		return Result{}, err
	}

	credential := resp.credential()
	if credential == "" || resp.User == nil {
		return Result{}, service.Errorf(service.ErrServer, "invalid response from server")
	}

	if err := a.session.Establish(ctx, credential, *resp.User); err != nil {
		return Result{}, err
	}
	return Result{Credential: credential, User: *resp.User}, nil
}

// Register creates an account. The password confirmation is checked before
// any request is sent. When the backend answers with a credential the
// session is established as after Login.
func (a *Auth) Register(ctx context.Context, req RegisterRequest) (Result, error) {
	if req.Password != req.PasswordConfirm {
		return Result{}, service.NewValidationError("password_confirm", "Passwords must match.")
	}

	var resp authResponse
	err := a.api.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "auth/register/",
		Body:   req,
	}, &resp)
	if err != nil {
		return Result{}, err
	}

	result := Result{Credential: resp.credential()}
	if resp.User != nil {
		result.User = *resp.User
	}
	if result.Credential != "" && resp.User != nil {
		if err := a.session.Establish(ctx, result.Credential, result.User); err != nil {
			return Result{}, err
		}
	}
	return result, nil
}

// Logout notifies the backend, then clears the session whether or not the
// notification succeeded. The notification error is returned for reporting;
// local state is cleared either way.
func (a *Auth) Logout(ctx context.Context) error {
	var notifyErr error
	if a.session.IsAuthenticated() {
		notifyErr = a.api.Do(ctx, transport.Request{
			Method: http.MethodPost,
			Path:   "auth/logout/",
		}, nil)
	}

	if err := a.session.Teardown(context.WithoutCancel(ctx), ReasonLogout); err != nil {
		return err
	}
	return notifyErr
}

// invalidCredentials wraps a rejected login so it matches both
// ErrInvalidCredentials and the underlying validation error.
type invalidCredentials struct {
	err error
}

func (e *invalidCredentials) Error() string {
	if fields := service.FieldsOf(e.err); len(fields) > 0 {
		return fields.String()
	}
	return ErrInvalidCredentials.Error()
}

func (e *invalidCredentials) Is(target error) bool {
	return target == ErrInvalidCredentials
}

func (e *invalidCredentials) Unwrap() error {
	return e.err
}
