package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasksync/internal/client"
	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/output"
)

func init() {
	Register(&ShowCmd{})
}

// ShowCmd prints a single task.
type ShowCmd struct{}

func (c *ShowCmd) Name() string          { return "show" }
func (c *ShowCmd) Aliases() []string     { return nil }
func (c *ShowCmd) Synopsis() string      { return "Show a task" }
func (c *ShowCmd) Usage() string         { return "tasksync show <id>" }
func (c *ShowCmd) Requires() Requirement { return RequiresSession }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, cl *client.Client, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	task, err := cl.Tasks.GetTask(ctx, id)
	if err != nil {
		return reportError(errOut, err)
	}
	output.FormatTaskDetail(out, task)
	return exitcode.Success
}
