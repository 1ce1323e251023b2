// Package base carries the pieces shared by every CLI command: the UI,
// the logger, and a flag set with a rendered help block.
package base

import (
	"bytes"
	"flag"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command is embedded by each subcommand.
type Command struct {
	// UI is the terminal the command talks to.
	UI cli.Ui

	// Log is the logger for the command.
	Log hclog.Logger
}

// FlagSet wraps flag.FlagSet with help rendering.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet returns a flag set that swallows its own error output so
// commands can render usage themselves.
func NewFlagSet(name string) *FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	return &FlagSet{FlagSet: fs}
}

// Help renders the defined flags as an indented block.
func (f *FlagSet) Help() string {
	var buf bytes.Buffer
	f.FlagSet.SetOutput(&buf)
	f.FlagSet.PrintDefaults()
	f.FlagSet.SetOutput(&bytes.Buffer{})
	return buf.String()
}
