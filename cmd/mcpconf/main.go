// Package main is the entry point for the mcpconf CLI.
//
// All work happens in internal/cli; main only maps the result to an exit
// status.
package main

import (
	"os"

	"mcpconf/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
