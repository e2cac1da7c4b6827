// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tasksync/internal/mutation"
	"tasksync/internal/service"
)

// TimeLayout is used for task timestamps.
const TimeLayout = "2006-01-02 15:04"

// styles are bound to the renderer of one writer, so color is only emitted
// when that writer is a terminal.
type styles struct {
	title   lipgloss.Style
	done    lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
}

func stylesFor(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:   r.NewStyle().Bold(true),
		done:    r.NewStyle().Faint(true).Strikethrough(true),
		muted:   r.NewStyle().Faint(true),
		success: r.NewStyle().Foreground(lipgloss.Color("42")),
		failure: r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
}

// FormatTask formats a task line for lists.
// Format: "{ID:>4}  [ ] {TITLE}\n", with [x] for completed tasks.
func FormatTask(w io.Writer, task service.Task) {
	st := stylesFor(w)
	title := normalizeTitle(task.Title)
	box := "[ ]"
	if task.Completed {
		box = "[x]"
		title = st.done.Render(title)
	}
	fmt.Fprintf(w, "%4d  %s %s\n", task.ID, box, title)
}

// FormatTasks formats tasks in the order given.
func FormatTasks(w io.Writer, tasks []service.Task) {
	for _, task := range tasks {
		FormatTask(w, task)
	}
}

// FormatTaskDetail formats every field of a task.
func FormatTaskDetail(w io.Writer, task service.Task) {
	st := stylesFor(w)
	status := "open"
	if task.Completed {
		status = "completed"
	}

	fmt.Fprintf(w, "#%d %s\n", task.ID, st.title.Render(normalizeTitle(task.Title)))
	fmt.Fprintf(w, "status:      %s\n", status)
	if task.HasDescription() {
		fmt.Fprintf(w, "description: %s\n", singleLine(task.Description))
	}
	fmt.Fprintf(w, "created:     %s\n", st.muted.Render(task.CreatedAt.Local().Format(TimeLayout)))
	fmt.Fprintf(w, "updated:     %s\n", st.muted.Render(task.UpdatedAt.Local().Format(TimeLayout)))
}

// FormatUser formats the signed-in user.
func FormatUser(w io.Writer, user service.User) {
	if user.Email == "" {
		fmt.Fprintln(w, user.Username)
		return
	}
	fmt.Fprintf(w, "%s <%s>\n", user.Username, user.Email)
}

// FormatNotice formats a mutation notice. Error notices are prefixed with
// "error: " and followed by one indented line per field error.
func FormatNotice(w io.Writer, n mutation.Notice) {
	st := stylesFor(w)
	if n.Level == mutation.LevelSuccess {
		fmt.Fprintln(w, st.success.Render(n.Message))
		return
	}
	fmt.Fprintf(w, "error: %s\n", st.failure.Render(n.Message))
	FormatFieldErrors(w, n.Fields)
}

// FormatFieldErrors formats field errors as "  field: msg" lines in field
// order. Errors not tied to a field are printed without a name.
func FormatFieldErrors(w io.Writer, fields service.FieldErrors) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		msg := strings.Join(fields[k], " ")
		if k == service.NonFieldKey || k == "detail" {
			fmt.Fprintf(w, "  %s\n", msg)
			continue
		}
		fmt.Fprintf(w, "  %s: %s\n", k, msg)
	}
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = singleLine(title)
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

func singleLine(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
