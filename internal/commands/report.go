package commands

import (
	"errors"
	"fmt"
	"io"

	"tasksync/internal/client"
	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/mutation"
	"tasksync/internal/output"
	"tasksync/internal/service"
)

// reportError prints err and returns its exit code.
func reportError(errOut io.Writer, err error) int {
	if errors.Is(err, service.ErrUnauthorized) {
		fmt.Fprintln(errOut, "error: session expired, please log in again (run: tasksync login)")
		return exitcode.AuthError
	}
	fmt.Fprintf(errOut, "error: %v\n", err)
	return exitcode.For(err)
}

// coordinator returns a mutation coordinator that prints success notices to
// out (unless quiet) and error notices to errOut.
func coordinator(cfg *config.Config, cl *client.Client, out, errOut io.Writer) *mutation.Coordinator {
	return cl.Mutations(func(n mutation.Notice) {
		if n.Level == mutation.LevelError {
			output.FormatNotice(errOut, n)
			return
		}
		if !cfg.Quiet {
			output.FormatNotice(out, n)
		}
	})
}
