// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"tasksync/internal/client"
	"tasksync/internal/config"
)

// Requirement is what a command needs before it can run.
type Requirement int

const (
	// RequiresNothing commands run without touching client state.
	RequiresNothing Requirement = iota

	// RequiresClient commands need the client but not a session.
	RequiresClient

	// RequiresSession commands need an authenticated session.
	RequiresSession
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// Requires reports what the dispatcher must provide.
	Requires() Requirement

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided.
	// cl is nil if Requires() returns RequiresNothing.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, cl *client.Client, args []string, out, errOut io.Writer) int
}
