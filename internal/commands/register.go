package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"tasksync/internal/client"
	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/session"
)

func init() {
	Register(&RegisterCmd{})
}

// RegisterCmd implements the register command.
// Without --password the password and its confirmation are read as two
// lines from In.
type RegisterCmd struct {
	email    string
	password string
	confirm  string

	In io.Reader
}

func (c *RegisterCmd) Name() string      { return "register" }
func (c *RegisterCmd) Aliases() []string { return []string{"signup"} }
func (c *RegisterCmd) Synopsis() string  { return "Create an account and sign in" }
func (c *RegisterCmd) Usage() string {
	return "tasksync register --email <email> [--password <password> --confirm <password>] <username>"
}
func (c *RegisterCmd) Requires() Requirement { return RequiresClient }

func (c *RegisterCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
	fs.StringVar(&c.confirm, "confirm", "", "")
}

func (c *RegisterCmd) Run(ctx context.Context, cfg *config.Config, cl *client.Client, args []string, out, errOut io.Writer) int {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintln(errOut, "error: username required")
		return exitcode.UserError
	}

	req := session.RegisterRequest{
		Username:        args[0],
		Email:           c.email,
		Password:        c.password,
		PasswordConfirm: c.confirm,
	}
	if req.Password == "" {
		in := c.In
		if in == nil {
			in = os.Stdin
		}
		lines, err := readLines(in, 2)
		if err != nil {
			fmt.Fprintf(errOut, "error: failed to read password: %v\n", err)
			return exitcode.UserError
		}
		req.Password, req.PasswordConfirm = lines[0], lines[1]
	}

	res, err := cl.Auth.Register(ctx, req)
	if err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		if cl.Session.IsAuthenticated() {
			fmt.Fprintf(out, "registered and logged in as %s\n", res.User.Username)
		} else {
			fmt.Fprintf(out, "registered %s (run: tasksync login %s)\n", req.Username, req.Username)
		}
	}
	return exitcode.Success
}
