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
	Register(&EditCmd{})
}

// optString is a string flag that remembers whether it was set, so an
// explicit empty value can be told apart from an absent flag.
type optString struct {
	value string
	set   bool
}

func (o *optString) String() string { return o.value }

func (o *optString) Set(s string) error {
	o.value, o.set = s, true
	return nil
}

func (o *optString) ptr() *string {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}

// EditCmd implements the edit command.
type EditCmd struct {
	title       optString
	description optString
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"update"} }
func (c *EditCmd) Synopsis() string  { return "Change a task's title or description" }
func (c *EditCmd) Usage() string {
	return "tasksync edit [--title <title>] [--description <text>] <id>"
}
func (c *EditCmd) Requires() Requirement { return RequiresSession }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.title, c.description = optString{}, optString{}
	fs.Var(&c.title, "title", "")
	fs.Var(&c.title, "t", "")
	fs.Var(&c.description, "description", "")
	fs.Var(&c.description, "d", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, cl *client.Client, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	patch := service.TaskPatch{
		Title:       c.title.ptr(),
		Description: c.description.ptr(),
	}
	if patch.IsEmpty() {
		fmt.Fprintln(errOut, "error: nothing to update (use --title or --description)")
		return exitcode.UserError
	}

	_, err = coordinator(cfg, cl, out, errOut).Update(ctx, id, patch)
	return exitcode.For(err)
}
