package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasksync/internal/client"
	"tasksync/internal/config"
	"tasksync/internal/exitcode"
)

func init() {
	Register(&DoneCmd{})
	Register(&UndoneCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct{}

func (c *DoneCmd) Name() string          { return "done" }
func (c *DoneCmd) Aliases() []string     { return []string{"complete"} }
func (c *DoneCmd) Synopsis() string      { return "Mark a task completed" }
func (c *DoneCmd) Usage() string         { return "tasksync done <id>" }
func (c *DoneCmd) Requires() Requirement { return RequiresSession }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, cl *client.Client, args []string, out, errOut io.Writer) int {
	return runSetCompleted(ctx, cfg, cl, args, true, out, errOut)
}

// UndoneCmd implements the undone command.
type UndoneCmd struct{}

func (c *UndoneCmd) Name() string          { return "undone" }
func (c *UndoneCmd) Aliases() []string     { return []string{"reopen"} }
func (c *UndoneCmd) Synopsis() string      { return "Mark a task incomplete" }
func (c *UndoneCmd) Usage() string         { return "tasksync undone <id>" }
func (c *UndoneCmd) Requires() Requirement { return RequiresSession }

func (c *UndoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UndoneCmd) Run(ctx context.Context, cfg *config.Config, cl *client.Client, args []string, out, errOut io.Writer) int {
	return runSetCompleted(ctx, cfg, cl, args, false, out, errOut)
}

// runSetCompleted is the shared implementation for done and undone.
func runSetCompleted(ctx context.Context, cfg *config.Config, cl *client.Client, args []string, completed bool, out, errOut io.Writer) int {
	id, err := ParseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	_, err = coordinator(cfg, cl, out, errOut).SetCompleted(ctx, id, completed)
	return exitcode.For(err)
}
