// Package main is the chatsearch CLI entry point.
package main

import (
	"os"

	"github.com/hyperjump/chatsearch/internal/cli"
)

// version is set by ldflags at build time.
var version = "1.0.0"

func main() {
	cmd := cli.NewRootCommand(version)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
