package commands_test

import (
	"flag"
	"io"

	"authdemo/internal/commands"
)

// newFlagSet registers the command's flags so tests can set them the way
// the dispatcher does.
func newFlagSet(cmd commands.Command) *flag.FlagSet {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cmd.RegisterFlags(fs)
	return fs
}
