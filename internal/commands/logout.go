package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasksync/internal/client"
	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/service"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string          { return "logout" }
func (c *LogoutCmd) Aliases() []string     { return nil }
func (c *LogoutCmd) Synopsis() string      { return "Sign out and remove stored credentials" }
func (c *LogoutCmd) Usage() string         { return "tasksync logout [common flags]" }
func (c *LogoutCmd) Requires() Requirement { return RequiresClient }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, cl *client.Client, args []string, out, errOut io.Writer) int {
	if !cl.Session.IsAuthenticated() {
		if !cfg.Quiet {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}

	// Backend failures only warn: the local session is gone either way.
	if err := cl.Auth.Logout(ctx); err != nil {
		if service.KindOf(err) == nil {
			return reportError(errOut, err)
		}
		fmt.Fprintf(errOut, "warning: backend logout failed: %v\n", err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
