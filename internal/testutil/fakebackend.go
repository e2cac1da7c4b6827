package testutil

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"tasksync/internal/service"
)

// FakeBackend is an in-memory HTTP implementation of the task backend's
// REST surface, served under /api/ on an httptest server.
type FakeBackend struct {
	Server *httptest.Server

	mu       sync.Mutex
	users    map[string]*fakeUser       // username -> user
	tokens   map[string]string          // token -> username
	tasks    map[string][]*service.Task // username -> tasks
	nextID   int64
	nextUser int64
	ticks    int
	requests []string
	failures map[string]int // "METHOD /path" -> status, one-shot
	hold     *listHold
}

type fakeUser struct {
	service.User
	password string
}

type listHold struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (h *listHold) open() {
	h.once.Do(func() { close(h.release) })
}

// NewFakeBackend starts a FakeBackend; it is closed when the test ends.
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := &FakeBackend{
		users:    make(map[string]*fakeUser),
		tokens:   make(map[string]string),
		tasks:    make(map[string][]*service.Task),
		failures: make(map[string]int),
	}
	b.Server = httptest.NewServer(b.routes())
	t.Cleanup(func() {
		b.mu.Lock()
		if b.hold != nil {
			b.hold.open()
		}
		b.mu.Unlock()
		b.Server.Close()
	})
	return b
}

// URL returns the API base URL.
func (b *FakeBackend) URL() string {
	return b.Server.URL + "/api/"
}

func (b *FakeBackend) routes() http.Handler {
	r := gin.New()

	api := r.Group("/api", b.record, b.injectFailure)
	api.POST("/auth/login/", b.login)
	api.POST("/auth/register/", b.register)
	api.POST("/auth/logout/", b.requireAuth, b.logout)

	tasks := api.Group("/tasks", b.requireAuth)
	tasks.GET("/", b.listTasks)
	tasks.POST("/", b.createTask)
	tasks.GET("/search/", b.searchTasks)
	tasks.GET("/:id/", b.getTask)
	tasks.PUT("/:id/", b.updateTask)
	tasks.PATCH("/:id/", b.updateTask)
	tasks.DELETE("/:id/", b.deleteTask)
	return r
}

// AddUser registers a user directly.
func (b *FakeBackend) AddUser(username, email, password string) service.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(username, email, password)
}

func (b *FakeBackend) addUserLocked(username, email, password string) service.User {
	b.nextUser++
	u := &fakeUser{
		User:     service.User{ID: b.nextUser, Username: username, Email: email},
		password: password,
	}
	b.users[username] = u
	return u.User
}

// IssueToken returns the user's token, creating one if needed.
func (b *FakeBackend) IssueToken(username string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokenForLocked(username)
}

func (b *FakeBackend) tokenForLocked(username string) string {
	for tok, name := range b.tokens {
		if name == username {
			return tok
		}
	}
	tok := "tok-" + username + "-" + strconv.Itoa(len(b.tokens)+1)
	b.tokens[tok] = username
	return tok
}

// RevokeTokens invalidates every issued token.
func (b *FakeBackend) RevokeTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = make(map[string]string)
}

// FailNext makes the next request to method and path answer with status.
func (b *FakeBackend) FailNext(method, path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = status
}

// HoldList makes the next list or search request block after it passed
// authentication. started is closed when the request is held; release
// lets it answer.
func (b *FakeBackend) HoldList() (started <-chan struct{}, release func()) {
	h := &listHold{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	b.mu.Lock()
	b.hold = h
	b.mu.Unlock()
	return h.started, h.open
}

// Requests returns "METHOD /path?query" for every request received.
func (b *FakeBackend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.requests))
	copy(out, b.requests)
	return out
}

// Tasks returns a snapshot of a user's tasks, newest first.
func (b *FakeBackend) Tasks(username string) []service.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked(username, "")
}

func (b *FakeBackend) record(c *gin.Context) {
	b.mu.Lock()
	b.requests = append(b.requests, c.Request.Method+" "+c.Request.URL.RequestURI())
	b.mu.Unlock()
	c.Next()
}

func (b *FakeBackend) injectFailure(c *gin.Context) {
	key := c.Request.Method + " " + c.Request.URL.Path
	b.mu.Lock()
	status, ok := b.failures[key]
	delete(b.failures, key)
	b.mu.Unlock()

	if ok {
		c.AbortWithStatusJSON(status, gin.H{"detail": http.StatusText(status)})
		return
	}
	c.Next()
}

func (b *FakeBackend) requireAuth(c *gin.Context) {
	tok, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Token ")
	b.mu.Lock()
	username, known := b.tokens[tok]
	b.mu.Unlock()

	if !ok || !known {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token."})
		return
	}
	c.Set("username", username)
	c.Next()
}

func (b *FakeBackend) login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{"Must include 'username' and 'password'."}})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[req.Username]
	if !ok || u.password != req.Password {
		c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{"Invalid username or password."}})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":  u.User,
		"token": b.tokenForLocked(u.Username),
	})
}

func (b *FakeBackend) register(c *gin.Context) {
	var req struct {
		Username        string `json:"username"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"non_field_errors": []string{err.Error()}}})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	fields := gin.H{}
	if req.Username == "" {
		fields["username"] = []string{"This field is required."}
	} else if _, taken := b.users[req.Username]; taken {
		fields["username"] = []string{"A user with that username already exists."}
	}
	if req.Email == "" {
		fields["email"] = []string{"This field is required."}
	} else {
		for _, u := range b.users {
			if u.Email == req.Email {
				fields["email"] = []string{"This email is already in use."}
			}
		}
	}
	if req.Password != req.PasswordConfirm {
		fields["password_confirm"] = []string{"Passwords must match."}
	}
	if len(fields) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": fields})
		return
	}

	u := b.addUserLocked(req.Username, req.Email, req.Password)
	// The registration serializer does not include the id.
	c.JSON(http.StatusCreated, gin.H{
		"user":  gin.H{"username": u.Username, "email": u.Email},
		"token": b.tokenForLocked(u.Username),
	})
}

func (b *FakeBackend) logout(c *gin.Context) {
	tok, _ := strings.CutPrefix(c.GetHeader("Authorization"), "Token ")
	b.mu.Lock()
	delete(b.tokens, tok)
	b.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"detail": "Successfully logged out."})
}

func (b *FakeBackend) listTasks(c *gin.Context) {
	b.waitHold(c)
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, b.snapshotLocked(c.GetString("username"), ""))
}

func (b *FakeBackend) searchTasks(c *gin.Context) {
	b.waitHold(c)
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, b.snapshotLocked(c.GetString("username"), c.Query("q")))
}

func (b *FakeBackend) waitHold(c *gin.Context) {
	b.mu.Lock()
	h := b.hold
	b.hold = nil
	b.mu.Unlock()
	if h == nil {
		return
	}
	close(h.started)
	select {
	case <-h.release:
	case <-c.Request.Context().Done():
	}
}

func (b *FakeBackend) getTask(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	task, ok := b.findLocked(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, *task)
}

func (b *FakeBackend) createTask(c *gin.Context) {
	var req struct {
		Title       *string `json:"title"`
		Description string  `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{err.Error()}})
		return
	}
	if req.Title == nil {
		c.JSON(http.StatusBadRequest, gin.H{"title": []string{"This field is required."}})
		return
	}
	if strings.TrimSpace(*req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"title": []string{"This field may not be blank."}})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	now := b.nowLocked()
	task := &service.Task{
		ID:          b.nextID,
		Title:       *req.Title,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	username := c.GetString("username")
	b.tasks[username] = append(b.tasks[username], task)
	c.JSON(http.StatusCreated, *task)
}

func (b *FakeBackend) updateTask(c *gin.Context) {
	var patch service.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{err.Error()}})
		return
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"title": []string{"This field may not be blank."}})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	task, ok := b.findLocked(c)
	if !ok {
		return
	}
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}
	task.UpdatedAt = b.nowLocked()
	c.JSON(http.StatusOK, *task)
}

func (b *FakeBackend) deleteTask(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	task, ok := b.findLocked(c)
	if !ok {
		return
	}
	username := c.GetString("username")
	tasks := b.tasks[username]
	for i, t := range tasks {
		if t.ID == task.ID {
			b.tasks[username] = append(tasks[:i], tasks[i+1:]...)
			break
		}
	}
	c.Status(http.StatusNoContent)
}

// findLocked resolves the :id parameter among the caller's tasks and
// writes a 404 when it does not exist.
func (b *FakeBackend) findLocked(c *gin.Context) (*service.Task, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err == nil {
		for _, t := range b.tasks[c.GetString("username")] {
			if t.ID == id {
				return t, true
			}
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	return nil, false
}

// snapshotLocked returns copies of a user's tasks whose title contains
// query (case-insensitive), newest first.
func (b *FakeBackend) snapshotLocked(username, query string) []service.Task {
	query = strings.ToLower(query)
	out := []service.Task{}
	for _, t := range b.tasks[username] {
		if query == "" || strings.Contains(strings.ToLower(t.Title), query) {
			out = append(out, *t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// nowLocked returns a strictly increasing timestamp.
func (b *FakeBackend) nowLocked() time.Time {
	b.ticks++
	return time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(b.ticks) * time.Second)
}
