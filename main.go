// Package main is the entry point of the dbkit command line.
// Without a subcommand it prints usage; "dbkit serve" starts the
// diagnostics HTTP server.
package main

import (
	"context"
	"fmt"
	"os"

	"dbkit/src/app/cli"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}

func run() error {
	return cli.NewRootCommand().ExecuteContext(context.Background())
}
