package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"tasksync/internal/client"
	"tasksync/internal/config"
	"tasksync/internal/exitcode"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	password string

	// In supplies the password when --password is not given.
	// Defaults to os.Stdin.
	In io.Reader
}

func (c *LoginCmd) Name() string          { return "login" }
func (c *LoginCmd) Aliases() []string     { return nil }
func (c *LoginCmd) Synopsis() string      { return "Sign in with username and password" }
func (c *LoginCmd) Usage() string         { return "tasksync login [--password <password>] <username>" }
func (c *LoginCmd) Requires() Requirement { return RequiresClient }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.password, "password", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, cl *client.Client, args []string, out, errOut io.Writer) int {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintln(errOut, "error: username required")
		return exitcode.UserError
	}

	if user, ok := cl.Session.CurrentUser(); ok {
		if !cfg.Quiet {
			fmt.Fprintf(out, "already logged in as %s\n", user.Username)
		}
		return exitcode.Success
	}

	password := c.password
	if password == "" {
		lines, err := readLines(c.input(), 1)
		if err != nil {
			fmt.Fprintf(errOut, "error: failed to read password: %v\n", err)
			return exitcode.UserError
		}
		password = lines[0]
	}
	if password == "" {
		fmt.Fprintln(errOut, "error: password required")
		return exitcode.UserError
	}

	res, err := cl.Auth.Login(ctx, args[0], password)
	if err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "logged in as %s\n", res.User.Username)
	}
	return exitcode.Success
}

func (c *LoginCmd) input() io.Reader {
	if c.In != nil {
		return c.In
	}
	return os.Stdin
}

// readLines reads n lines from r without their line endings.
// A final line without a newline counts.
func readLines(r io.Reader, n int) ([]string, error) {
	br := bufio.NewReader(r)
	lines := make([]string, 0, n)
	for len(lines) < n {
		line, err := br.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("unexpected end of input")
			}
			return nil, err
		}
		lines = append(lines, strings.TrimRight(line, "\r\n"))
	}
	return lines, nil
}
