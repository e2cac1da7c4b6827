// Package transport issues authenticated HTTP requests to the task backend
// and classifies their failures.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"tasksync/internal/service"
)

const (
	// TokenType is the scheme of the Authorization header.
	TokenType = "Token"

	// RequestIDHeader carries a per-request identifier.
	RequestIDHeader = "X-Request-ID"
)

// Credentials supplies the credential for outgoing requests and is told
// when the backend rejects it.
type Credentials interface {
	// Credential returns the current credential, if any.
	Credential() (string, bool)

	// Expire is called after any 401 response, whatever the endpoint.
	Expire()
}

// Request describes one backend call.
type Request struct {
	Method string
	Path   string            // relative to the base URL, may contain {name} templates
	Params map[string]string // template expansions for Path
	Query  url.Values
	Body   any // JSON-encoded when non-nil
}

// Transport sends requests to the backend.
type Transport struct {
	baseURL string
	creds   Credentials
	base    http.RoundTripper
	logger  *log.Logger
}

// Option configures a Transport.
type Option func(*Transport)

// WithRoundTripper sets the underlying round tripper.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(t *Transport) { t.base = rt }
}

// WithLogger sets the debug logger.
func WithLogger(l *log.Logger) Option {
	return func(t *Transport) { t.logger = l }
}

// New creates a Transport for baseURL. creds may be nil for an
// unauthenticated client.
func New(baseURL string, creds Credentials, opts ...Option) *Transport {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	t := &Transport{
		baseURL: baseURL,
		creds:   creds,
		base:    http.DefaultTransport,
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// BaseURL returns the normalized base URL.
func (t *Transport) BaseURL() string {
	return t.baseURL
}

// Do sends req and decodes a successful JSON response into out (if non-nil).
// Failures are *service.Error values.
func (t *Transport) Do(ctx context.Context, req Request, out any) error {
	httpReq, err := t.newRequest(ctx, req)
	if err != nil {
		return err
	}

	requestID := uuid.NewString()
	httpReq.Header.Set(RequestIDHeader, requestID)

	res, err := t.client().Do(httpReq)
	if err != nil {
		t.logger.Printf("%s %s [%s]: %v", req.Method, httpReq.URL, requestID, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &service.Error{Kind: service.ErrNetwork, Err: ctxErr}
		}
		return &service.Error{Kind: service.ErrNetwork, Err: err}
	}
	defer res.Body.Close()

	t.logger.Printf("%s %s [%s]: %d", req.Method, httpReq.URL, requestID, res.StatusCode)

	if err := googleapi.CheckResponse(res); err != nil {
		return t.classify(err)
	}

	if out == nil {
		return nil
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return &service.Error{Kind: service.ErrNetwork, Status: res.StatusCode, Err: err}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &service.Error{
			Kind:    service.ErrServer,
			Status:  res.StatusCode,
			Message: "invalid response from server",
			Err:     err,
		}
	}
	return nil
}

func (t *Transport) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	// ResolveRelative panics on unparseable input.
	if _, err := url.Parse(t.baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", t.baseURL, err)
	}
	if _, err := url.Parse(req.Path); err != nil {
		return nil, fmt.Errorf("invalid request path %q: %w", req.Path, err)
	}
	urls := googleapi.ResolveRelative(t.baseURL, req.Path)
	if len(req.Query) > 0 {
		urls += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, urls, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if len(req.Params) > 0 {
		googleapi.Expand(httpReq.URL, req.Params)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return httpReq, nil
}

// client returns an HTTP client that attaches the current credential.
// Without a credential the request goes out unauthenticated.
func (t *Transport) client() *http.Client {
	if t.creds == nil {
		return &http.Client{Transport: t.base}
	}
	credential, ok := t.creds.Credential()
	if !ok {
		return &http.Client{Transport: t.base}
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{
				AccessToken: credential,
				TokenType:   TokenType,
			}),
			Base: t.base,
		},
	}
}

// classify turns a non-2xx response into a service.Error.
// A 401 expires the credentials before returning.
func (t *Transport) classify(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return &service.Error{Kind: service.ErrServer, Err: err}
	}

	e := &service.Error{Status: gerr.Code, Err: err}
	switch {
	case gerr.Code == http.StatusUnauthorized:
		e.Kind = service.ErrUnauthorized
		e.Message = detailOf(gerr.Body)
		if t.creds != nil {
			t.creds.Expire()
		}
	case gerr.Code == http.StatusNotFound:
		e.Kind = service.ErrNotFound
		e.Message = detailOf(gerr.Body)
	case gerr.Code >= 400 && gerr.Code < 500:
		e.Kind = service.ErrValidation
		e.Fields = DecodeFieldErrors([]byte(gerr.Body))
	default:
		e.Kind = service.ErrServer
		e.Message = http.StatusText(gerr.Code)
	}
	return e
}

// detailOf extracts the "detail" message of an error body.
func detailOf(body string) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal([]byte(body), &payload) != nil {
		return ""
	}
	return payload.Detail
}
