package version

import (
	"github.com/alm-forge/stanza/internal/cmd/base"
	"github.com/alm-forge/stanza/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return "Usage: stanza version"
}

func (c *Command) Run(args []string) int {
	c.UI.Output(version.Version)
	return 0
}
