package cli

import (
	"context"
	"io"
	"log/slog"

	"dbkit/src/core/usecase"
	"dbkit/src/infra/config"
	"dbkit/src/infra/db"
	"dbkit/src/infra/logger"
	"dbkit/src/infra/repo"
)

// session is one opened database with the services built on it.
type session struct {
	cfg     *config.Config
	log     *slog.Logger
	sink    *logger.ChannelSink
	repo    *repo.InspectorRepository
	inspect *usecase.InspectService
}

// openSession loads the configuration and connects. Process logs and
// channel lines go to logOut unless a log directory is configured.
func openSession(ctx context.Context, opts *RootOptions, logOut io.Writer) (*session, error) {
	load := opts.LoadConfig
	if load == nil {
		load = config.Load
	}
	cfg, err := load()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "loading configuration", err)
	}

	log := logger.NewWithWriter(cfg.Log, logOut)
	sink, err := logger.NewChannelSink(cfg.Log, logOut)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "opening log channels", err)
	}

	database, err := db.Open(ctx, cfg.Database, sink, log)
	if err != nil {
		_ = sink.Close()
		return nil, WrapExitError(exitCodeFor(err), "connecting to database", err)
	}

	r := repo.NewInspectorRepository(database, log)
	return &session{
		cfg:     cfg,
		log:     log,
		sink:    sink,
		repo:    r,
		inspect: usecase.NewInspectService(r, log),
	}, nil
}

func (s *session) Close() {
	if err := s.repo.Close(); err != nil {
		s.log.Warn("closing database", "error", err)
	}
	if err := s.sink.Close(); err != nil {
		s.log.Warn("closing log channels", "error", err)
	}
}
