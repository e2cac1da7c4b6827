package transport_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"tasksync/internal/service"
	"tasksync/internal/transport"
)

// fakeCreds is a Credentials stub that records Expire calls.
type fakeCreds struct {
	mu      sync.Mutex
	token   string
	expired int
}

func (f *fakeCreds) Credential() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, f.token != ""
}

func (f *fakeCreds) Expire() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.expired++
}

func newServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestDo_AttachesCredential(t *testing.T) {
	var gotAuth, gotRequestID, gotPath string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get(transport.RequestIDHeader)
		gotPath = r.URL.Path
		w.Write([]byte(`{"id": 7, "title": "Buy milk"}`))
	})

	tr := transport.New(srv.URL+"/api", &fakeCreds{token: "abc123"})

	var task service.Task
	err := tr.Do(context.Background(), transport.Request{
		Method: http.MethodGet,
		Path:   "tasks/{id}/",
		Params: map[string]string{"id": "7"},
	}, &task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Token abc123" {
		t.Errorf("expected Authorization %q, got %q", "Token abc123", gotAuth)
	}
	if gotRequestID == "" {
		t.Error("expected request ID header")
	}
	if gotPath != "/api/tasks/7/" {
		t.Errorf("expected path /api/tasks/7/, got %q", gotPath)
	}
	if task.ID != 7 || task.Title != "Buy milk" {
		t.Errorf("unexpected task: %+v", task)
	}
}

func TestDo_AnonymousRequestHasNoAuthorization(t *testing.T) {
	var gotAuth string
	var sawHeader bool
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, sawHeader = r.Header["Authorization"]
		w.WriteHeader(http.StatusOK)
	})

	for name, creds := range map[string]transport.Credentials{
		"nil credentials":   nil,
		"empty credentials": &fakeCreds{},
	} {
		t.Run(name, func(t *testing.T) {
			tr := transport.New(srv.URL+"/api/", creds)
			err := tr.Do(context.Background(), transport.Request{Method: http.MethodPost, Path: "auth/login/"}, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sawHeader {
				t.Errorf("expected no Authorization header, got %q", gotAuth)
			}
		})
	}
}

func TestDo_SendsJSONBodyAndQuery(t *testing.T) {
	var gotBody map[string]any
	var gotQuery url.Values
	var gotContentType string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotQuery = r.URL.Query()
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)
		w.WriteHeader(http.StatusCreated)
	})

	tr := transport.New(srv.URL+"/api/", nil)
	err := tr.Do(context.Background(), transport.Request{
		Method: http.MethodPost,
		Path:   "tasks/search/",
		Query:  url.Values{"q": {"milk & eggs: today"}},
		Body:   map[string]string{"title": "x"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected JSON content type, got %q", gotContentType)
	}
	if gotQuery.Get("q") != "milk & eggs: today" {
		t.Errorf("expected query to round-trip, got %q", gotQuery.Get("q"))
	}
	if gotBody["title"] != "x" {
		t.Errorf("expected body title x, got %v", gotBody)
	}
}

func TestDo_UnauthorizedExpiresCredentials(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "Invalid token."}`))
	})

	creds := &fakeCreds{token: "stale"}
	tr := transport.New(srv.URL+"/api/", creds)

	// Any endpoint, not only auth endpoints.
	err := tr.Do(context.Background(), transport.Request{Method: http.MethodDelete, Path: "tasks/1/"}, nil)
	if !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if creds.expired != 1 {
		t.Errorf("expected Expire to be called once, got %d", creds.expired)
	}
	if _, ok := creds.Credential(); ok {
		t.Error("expected credential to be cleared")
	}
}

func TestDo_ClassifiesStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"not found", http.StatusNotFound, `{"detail": "Not found."}`, service.ErrNotFound},
		{"bad request", http.StatusBadRequest, `{"title": ["This field may not be blank."]}`, service.ErrValidation},
		{"forbidden", http.StatusForbidden, `{"detail": "nope"}`, service.ErrValidation},
		{"server error", http.StatusInternalServerError, `oops`, service.ErrServer},
		{"bad gateway", http.StatusBadGateway, ``, service.ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			creds := &fakeCreds{token: "abc"}
			tr := transport.New(srv.URL, creds)

			err := tr.Do(context.Background(), transport.Request{Method: http.MethodGet, Path: "tasks/"}, nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if creds.expired != 0 {
				t.Error("non-401 responses must not expire credentials")
			}
		})
	}
}

func TestDo_ValidationCarriesFields(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"title": ["This field may not be blank."]}`))
	})

	tr := transport.New(srv.URL, nil)
	err := tr.Do(context.Background(), transport.Request{Method: http.MethodPost, Path: "tasks/"}, nil)

	fields := service.FieldsOf(err)
	if got := fields["title"]; len(got) != 1 || got[0] != "This field may not be blank." {
		t.Errorf("unexpected field errors: %v", fields)
	}
}

func TestDo_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	creds := &fakeCreds{token: "abc"}
	tr := transport.New(addr, creds)
	err := tr.Do(context.Background(), transport.Request{Method: http.MethodGet, Path: "tasks/"}, nil)
	if !errors.Is(err, service.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if creds.expired != 0 {
		t.Error("network errors must not expire credentials")
	}
}

func TestDo_InvalidJSONResponse(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	tr := transport.New(srv.URL, nil)
	var out []service.Task
	err := tr.Do(context.Background(), transport.Request{Method: http.MethodGet, Path: "tasks/"}, &out)
	if !errors.Is(err, service.ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}
}

func TestDo_EmptyBodyIsAccepted(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tr := transport.New(srv.URL, nil)
	var out service.Task
	if err := tr.Do(context.Background(), transport.Request{Method: http.MethodDelete, Path: "tasks/1/"}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_NormalizesBaseURL(t *testing.T) {
	tr := transport.New("http://example.com/api", nil)
	if tr.BaseURL() != "http://example.com/api/" {
		t.Errorf("expected trailing slash, got %q", tr.BaseURL())
	}
}

func TestDo_InvalidBaseURLReturnsError(t *testing.T) {
	creds := &fakeCreds{token: "abc"}
	tr := transport.New("http://[::1", creds)
	err := tr.Do(context.Background(), transport.Request{Method: http.MethodGet, Path: "tasks/"}, nil)
	if err == nil {
		t.Fatal("expected error for unparseable base URL")
	}
	if creds.expired != 0 {
		t.Error("a malformed base URL must not expire credentials")
	}
}
