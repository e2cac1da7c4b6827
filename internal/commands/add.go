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
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
}

func (c *AddCmd) Name() string          { return "add" }
func (c *AddCmd) Aliases() []string     { return []string{"create"} }
func (c *AddCmd) Synopsis() string      { return "Create a task" }
func (c *AddCmd) Usage() string         { return "tasksync add [--description <text>] <title...>" }
func (c *AddCmd) Requires() Requirement { return RequiresSession }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.description, "description", "", "")
	fs.StringVar(&c.description, "d", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, cl *client.Client, args []string, out, errOut io.Writer) int {
	title := strings.Join(args, " ")
	if strings.TrimSpace(title) == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	task, err := coordinator(cfg, cl, out, errOut).Create(ctx, title, c.description)
	if err != nil {
		return exitcode.For(err)
	}

	if !cfg.Quiet {
		output.FormatTask(out, task)
	}
	return exitcode.Success
}
