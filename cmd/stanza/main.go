package main

import (
	"os"

	"github.com/alm-forge/stanza/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
