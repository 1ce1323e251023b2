package cmd

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/alm-forge/stanza/internal/version"
)

// Main runs the CLI with the given arguments and returns the exit code.
// With no subcommand the server starts, so `stanza` alone brings the
// emulator up on its defaults.
func Main(args []string) int {
	cliName := filepath.Base(args[0])

	log := hclog.New(&hclog.LoggerOptions{
		Name:  cliName,
		Level: hclog.LevelFromString(os.Getenv("STANZA_LOG")),
	})

	switch {
	case len(args) == 2 && (args[1] == "-v" || args[1] == "-version" || args[1] == "--version"):
		args = []string{cliName, "version"}
	case len(args) == 1:
		args = append(args, "serve")
	}

	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	initCommands(log, ui)

	c := &cli.CLI{
		Name:     cliName,
		Args:     args[1:],
		Version:  version.Version,
		Commands: Commands,
		HelpFunc: cli.BasicHelpFunc(cliName),
	}

	exitCode, err := c.Run()
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	return exitCode
}
