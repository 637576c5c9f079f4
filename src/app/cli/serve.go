package cli

import (
	"github.com/spf13/cobra"

	"dbkit/src/app/server"
)

func newServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the diagnostics HTTP server",
		Long: `Run the diagnostics HTTP server on APP_HOST:APP_PORT.

The server shares one database connection between requests and shuts
down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), rootOpts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.Close()

			s.log.Info("starting application",
				"port", s.cfg.Server.Port,
				"driver", s.cfg.Database.Driver,
				"log_level", s.cfg.Log.Level,
			)

			// Run blocks until shutdown signal is received
			return server.New(s.cfg, s.log, s.repo).Run(cmd.Context())
		},
	}
}
