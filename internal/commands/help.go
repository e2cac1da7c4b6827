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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string          { return "help" }
func (c *HelpCmd) Aliases() []string     { return nil }
func (c *HelpCmd) Synopsis() string      { return "Print usage" }
func (c *HelpCmd) Usage() string         { return "tasksync help" }
func (c *HelpCmd) Requires() Requirement { return RequiresNothing }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, cl *client.Client, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  tasksync                                           List all tasks
  tasksync list [common flags] [--search <text>]     List tasks (alias: ls)
  tasksync search [common flags] <text...>
  tasksync show [common flags] <id>
  tasksync add [common flags] [--description <text>] <title...>
  tasksync create [common flags] [--description <text>] <title...>
  tasksync edit [common flags] [--title <title>] [--description <text>] <id>
  tasksync done [common flags] <id>
  tasksync undone [common flags] <id>
  tasksync rm [common flags] <id>
  tasksync login [common flags] [--password <password>] <username>
  tasksync register [common flags] --email <email> <username>
  tasksync logout [common flags]
  tasksync whoami [common flags]
  tasksync help
  tasksync version

Passwords not given as flags are read from standard input.

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
