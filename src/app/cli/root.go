// Package cli implements the dbkit command line.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"dbkit/src/infra/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "text" | "json" | "yaml"

	// LoadConfig reads the configuration; config.Load when nil.
	LoadConfig func() (*config.Config, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command of the dbkit CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{LoadConfig: config.Load})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dbkit",
		Short: "dbkit - database access layer diagnostics",
		Long: `Inspect a MySQL, SQLite or PostgreSQL database through the dbkit access layer.

Connection settings come from APP_DB_* environment variables. Query and
exception lines are written to the database and exception log channels.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return WrapExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newDescribeCommand(opts))
	cmd.AddCommand(newCountCommand(opts))
	cmd.AddCommand(newExplainCommand(opts))
	cmd.AddCommand(newQueryCommand(opts))

	return cmd
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}
