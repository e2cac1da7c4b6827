package commands_test

import (
	"bytes"
	"context"
	"flag"
	"io"
	"net/http"
	"strings"
	"testing"

	"tasksync/internal/client"
	"tasksync/internal/commands"
	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/store"
	"tasksync/internal/testutil"
)

// newClient returns a client for a fresh FakeBackend with user alice.
// When loggedIn is set, alice is signed in.
func newClient(t *testing.T, loggedIn bool) (*client.Client, *testutil.FakeBackend) {
	t.Helper()
	backend := testutil.NewFakeBackend(t)
	user := backend.AddUser("alice", "alice@example.com", "secret")

	cl, err := client.Assemble(context.Background(), store.NewMemory(), backend.URL(), nil)
	if err != nil {
		t.Fatalf("assemble client: %v", err)
	}
	if loggedIn {
		if err := cl.Session.Establish(context.Background(), backend.IssueToken("alice"), user); err != nil {
			t.Fatalf("establish session: %v", err)
		}
	}
	return cl, backend
}

// runCommand parses flags the way the dispatcher does, then runs cmd.
func runCommand(t *testing.T, cmd commands.Command, cl *client.Client, args []string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cmd.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{
		Dir:   t.TempDir(),
		Quiet: quiet,
	}

	code = cmd.Run(context.Background(), cfg, cl, fs.Args(), &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestVersionCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.VersionCmd{}, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "tasksync 0.1.0\n" {
		t.Errorf("expected version output, got %q", stdout)
	}
}

func TestHelpCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.HelpCmd{}, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("help output should contain 'Usage:'")
	}
}

func TestHelpCommand_ListsEveryCommand(t *testing.T) {
	stdout, _, _ := runCommand(t, &commands.HelpCmd{}, nil, nil, false)
	for _, cmd := range commands.DefaultRegistry.All() {
		if !strings.Contains(stdout, "tasksync "+cmd.Name()) {
			t.Errorf("help output is missing %s", cmd.Name())
		}
	}
}

func TestListCommand_Empty(t *testing.T) {
	cl, _ := newClient(t, true)

	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, cl, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "no tasks found\n" {
		t.Errorf("expected %q, got %q", "no tasks found\n", stdout)
	}
}

func TestListCommand_EmptyQuiet(t *testing.T) {
	cl, _ := newClient(t, true)

	stdout, _, code := runCommand(t, &commands.ListCmd{}, cl, nil, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout in quiet mode, got %q", stdout)
	}
}

func TestListCommand_WithTasks(t *testing.T) {
	cl, _ := newClient(t, true)
	ctx := context.Background()
	milk, _ := cl.Tasks.CreateTask(ctx, "Buy milk", "")
	if _, err := cl.Tasks.CreateTask(ctx, "Walk dog", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := cl.Tasks.SetCompleted(ctx, milk.ID, true); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, cl, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	expected := "   2  [ ] Walk dog\n   1  [x] Buy milk\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestListCommand_SearchFlag(t *testing.T) {
	cl, backend := newClient(t, true)
	ctx := context.Background()
	cl.Tasks.CreateTask(ctx, "Buy milk", "")
	cl.Tasks.CreateTask(ctx, "Walk dog", "")

	stdout, _, code := runCommand(t, &commands.ListCmd{}, cl, []string{"--search", "MILK"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "   1  [ ] Buy milk\n" {
		t.Errorf("unexpected output %q", stdout)
	}
	reqs := backend.Requests()
	if last := reqs[len(reqs)-1]; last != "GET /api/tasks/search/?q=MILK" {
		t.Errorf("expected search request, got %q", last)
	}
}

func TestListCommand_UnexpectedArgument(t *testing.T) {
	cl, _ := newClient(t, true)

	_, stderr, code := runCommand(t, &commands.ListCmd{}, cl, []string{"work"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: unexpected argument: work\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestListCommand_SessionExpired(t *testing.T) {
	cl, backend := newClient(t, true)
	backend.RevokeTokens()

	_, stderr, code := runCommand(t, &commands.ListCmd{}, cl, nil, false)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if !strings.Contains(stderr, "session expired") {
		t.Errorf("expected session expired message, got %q", stderr)
	}
	if cl.Session.IsAuthenticated() {
		t.Error("expected session to be torn down")
	}
}

func TestSearchCommand(t *testing.T) {
	cl, _ := newClient(t, true)
	ctx := context.Background()
	cl.Tasks.CreateTask(ctx, "Buy milk", "")
	cl.Tasks.CreateTask(ctx, "Buy bread", "")
	cl.Tasks.CreateTask(ctx, "Walk dog", "")

	stdout, _, code := runCommand(t, &commands.SearchCmd{}, cl, []string{"buy"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	expected := "   2  [ ] Buy bread\n   1  [ ] Buy milk\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestSearchCommand_NoText(t *testing.T) {
	cl, _ := newClient(t, true)

	_, stderr, code := runCommand(t, &commands.SearchCmd{}, cl, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: search text required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestAddCommand_Success(t *testing.T) {
	cl, backend := newClient(t, true)

	stdout, stderr, code := runCommand(t, &commands.AddCmd{}, cl, []string{"--description", "2 liters", "Buy", "milk"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	expected := "Task created successfully!\n   1  [ ] Buy milk\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}

	tasks := backend.Tasks("alice")
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" || tasks[0].Description != "2 liters" {
		t.Errorf("unexpected backend state %+v", tasks)
	}
}

func TestAddCommand_Quiet(t *testing.T) {
	cl, _ := newClient(t, true)

	stdout, _, code := runCommand(t, &commands.AddCmd{}, cl, []string{"Buy milk"}, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout in quiet mode, got %q", stdout)
	}
}

func TestAddCommand_NoTitle(t *testing.T) {
	cl, backend := newClient(t, true)

	_, stderr, code := runCommand(t, &commands.AddCmd{}, cl, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: title required\n" {
		t.Errorf("expected %q, got %q", "error: title required\n", stderr)
	}
	if len(backend.Requests()) != 0 {
		t.Error("expected no requests")
	}
}

func TestAddCommand_BackendError(t *testing.T) {
	cl, backend := newClient(t, true)
	backend.FailNext(http.MethodPost, "/api/tasks/", http.StatusInternalServerError)

	stdout, stderr, code := runCommand(t, &commands.AddCmd{}, cl, []string{"Buy milk"}, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if stderr != "error: Failed to create task\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDoneCommand_Success(t *testing.T) {
	cl, backend := newClient(t, true)
	task, _ := cl.Tasks.CreateTask(context.Background(), "Buy milk", "")

	stdout, stderr, code := runCommand(t, &commands.DoneCmd{}, cl, []string{"1"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "Task marked as completed\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if got := backend.Tasks("alice"); !got[0].Completed || got[0].Title != task.Title {
		t.Errorf("expected task completed with title unchanged, got %+v", got[0])
	}
}

func TestUndoneCommand_Success(t *testing.T) {
	cl, backend := newClient(t, true)
	ctx := context.Background()
	task, _ := cl.Tasks.CreateTask(ctx, "Buy milk", "")
	cl.Tasks.SetCompleted(ctx, task.ID, true)

	stdout, _, code := runCommand(t, &commands.UndoneCmd{}, cl, []string{"#1"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "Task marked as incomplete\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if backend.Tasks("alice")[0].Completed {
		t.Error("expected task reopened")
	}
}

func TestDoneCommand_NoID(t *testing.T) {
	cl, _ := newClient(t, true)

	_, stderr, code := runCommand(t, &commands.DoneCmd{}, cl, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task id required\n" {
		t.Errorf("expected %q, got %q", "error: task id required\n", stderr)
	}
}

func TestDoneCommand_InvalidID(t *testing.T) {
	cl, _ := newClient(t, true)

	_, stderr, code := runCommand(t, &commands.DoneCmd{}, cl, []string{"abc"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: invalid task id: abc\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDoneCommand_NotFound(t *testing.T) {
	cl, _ := newClient(t, true)

	_, stderr, code := runCommand(t, &commands.DoneCmd{}, cl, []string{"42"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: Failed to update task status\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestRmCommand_Success(t *testing.T) {
	cl, backend := newClient(t, true)
	cl.Tasks.CreateTask(context.Background(), "Buy milk", "")

	stdout, stderr, code := runCommand(t, &commands.RmCmd{}, cl, []string{"1"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "Task deleted successfully!\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if n := len(backend.Tasks("alice")); n != 0 {
		t.Errorf("expected no tasks left, got %d", n)
	}
}

func TestRmCommand_NotFound(t *testing.T) {
	cl, _ := newClient(t, true)

	_, stderr, code := runCommand(t, &commands.RmCmd{}, cl, []string{"9"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: Failed to delete task\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestEditCommand_Success(t *testing.T) {
	cl, backend := newClient(t, true)
	cl.Tasks.CreateTask(context.Background(), "Buy milk", "old")

	stdout, stderr, code := runCommand(t, &commands.EditCmd{}, cl, []string{"--description", "", "1"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "Task updated successfully!\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	task := backend.Tasks("alice")[0]
	if task.Title != "Buy milk" || task.Description != "" {
		t.Errorf("expected only description cleared, got %+v", task)
	}
}

func TestEditCommand_BlankTitle(t *testing.T) {
	cl, _ := newClient(t, true)
	cl.Tasks.CreateTask(context.Background(), "Buy milk", "")

	_, stderr, code := runCommand(t, &commands.EditCmd{}, cl, []string{"--title", " ", "1"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: Failed to update task\n  title: Title is required.\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestEditCommand_NothingToUpdate(t *testing.T) {
	cl, _ := newClient(t, true)

	_, stderr, code := runCommand(t, &commands.EditCmd{}, cl, []string{"1"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.HasPrefix(stderr, "error: nothing to update") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestShowCommand(t *testing.T) {
	cl, _ := newClient(t, true)
	cl.Tasks.CreateTask(context.Background(), "Buy milk", "2 liters")

	stdout, stderr, code := runCommand(t, &commands.ShowCmd{}, cl, []string{"1"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	for _, want := range []string{"#1 Buy milk\n", "status:      open\n", "description: 2 liters\n"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected output to contain %q, got %q", want, stdout)
		}
	}
}

func TestShowCommand_NotFound(t *testing.T) {
	cl, _ := newClient(t, true)

	_, stderr, code := runCommand(t, &commands.ShowCmd{}, cl, []string{"3"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: not found: Not found.\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestWhoamiCommand(t *testing.T) {
	cl, _ := newClient(t, true)

	stdout, _, code := runCommand(t, &commands.WhoamiCmd{}, cl, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "alice <alice@example.com>\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
}
