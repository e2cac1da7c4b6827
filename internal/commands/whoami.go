package commands

import (
	"context"
	"flag"
	"io"

	"tasksync/internal/client"
	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/output"
)

func init() {
	Register(&WhoamiCmd{})
}

// WhoamiCmd prints the signed-in user.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string          { return "whoami" }
func (c *WhoamiCmd) Aliases() []string     { return nil }
func (c *WhoamiCmd) Synopsis() string      { return "Show the signed-in user" }
func (c *WhoamiCmd) Usage() string         { return "tasksync whoami" }
func (c *WhoamiCmd) Requires() Requirement { return RequiresSession }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *config.Config, cl *client.Client, args []string, out, errOut io.Writer) int {
	user, _ := cl.Session.CurrentUser()
	output.FormatUser(out, user)
	return exitcode.Success
}
