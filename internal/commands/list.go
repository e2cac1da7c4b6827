package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasksync/internal/client"
	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/output"
	"tasksync/internal/querycache"
)

func init() {
	Register(&ListCmd{})
	Register(&SearchCmd{})
}

// ListCmd implements the list command.
// Handles both `tasksync` (no args) and `tasksync list [--search <text>]`.
type ListCmd struct {
	search string
}

func (c *ListCmd) Name() string          { return "list" }
func (c *ListCmd) Aliases() []string     { return []string{"ls"} }
func (c *ListCmd) Synopsis() string      { return "List tasks" }
func (c *ListCmd) Usage() string         { return "tasksync list [--search <text>]" }
func (c *ListCmd) Requires() Requirement { return RequiresSession }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.search, "search", "", "")
	fs.StringVar(&c.search, "s", "", "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, cl *client.Client, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	return printQuery(ctx, cfg, cl, querycache.Query{Search: c.search}, out, errOut)
}

// SearchCmd implements the search command.
type SearchCmd struct{}

func (c *SearchCmd) Name() string          { return "search" }
func (c *SearchCmd) Aliases() []string     { return []string{"find"} }
func (c *SearchCmd) Synopsis() string      { return "List tasks whose title matches text" }
func (c *SearchCmd) Usage() string         { return "tasksync search <text...>" }
func (c *SearchCmd) Requires() Requirement { return RequiresSession }

func (c *SearchCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *SearchCmd) Run(ctx context.Context, cfg *config.Config, cl *client.Client, args []string, out, errOut io.Writer) int {
	text := strings.Join(args, " ")
	if text == "" {
		fmt.Fprintln(errOut, "error: search text required")
		return exitcode.UserError
	}
	return printQuery(ctx, cfg, cl, querycache.Query{Search: text}, out, errOut)
}

// printQuery reads q through the cache and prints the tasks in backend order.
func printQuery(ctx context.Context, cfg *config.Config, cl *client.Client, q querycache.Query, out, errOut io.Writer) int {
	st := cl.Cache.Read(ctx, q)
	switch st.Status {
	case querycache.StatusError:
		return reportError(errOut, st.Err)
	case querycache.StatusIdle:
		fmt.Fprintln(errOut, "error: not logged in (run: tasksync login)")
		return exitcode.AuthError
	}

	if len(st.Tasks) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks found")
		}
		return exitcode.Success
	}
	output.FormatTasks(out, st.Tasks)
	return exitcode.Success
}
