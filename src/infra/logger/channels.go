package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"dbkit/src/core/domain"
	"dbkit/src/infra/config"
)

const channelKey = "channel"

// ChannelSink routes lines to named channels. With a log directory
// configured each channel owns <dir>/<channel>.log, otherwise every channel
// shares the fallback writer and is told apart by its "channel" attribute.
// Channels log at Info or below whatever the process level is, so a warn or
// error LOG_LEVEL never silences query lines.
//
// ChannelSink is safe for concurrent use.
type ChannelSink struct {
	cfg config.LogConfig
	out io.Writer

	mu      sync.Mutex
	loggers map[string]*slog.Logger
	files   map[string]*os.File
}

// NewChannelSink creates a sink. The log directory, when set, is created
// eagerly so a bad path fails at startup.
func NewChannelSink(cfg config.LogConfig, out io.Writer) (*ChannelSink, error) {
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating log directory %s: %w", cfg.Dir, err)
		}
	}
	if out == nil {
		out = os.Stdout
	}
	return &ChannelSink{
		cfg:     cfg,
		out:     out,
		loggers: make(map[string]*slog.Logger),
		files:   make(map[string]*os.File),
	}, nil
}

// Write appends message to channel.
func (s *ChannelSink) Write(channel, message string, withTimestamp bool, attrs ...any) {
	s.logger(channel, withTimestamp).Info(message, attrs...)
}

// WriteException writes info to the exception channel.
func (s *ChannelSink) WriteException(info domain.ExceptionInfo, withTimestamp bool) {
	line := fmt.Sprintf("[Exception:%s][Code:%d][File:%s][Line:%d] %s",
		info.Kind, info.Code, info.File, info.Line, info.Message)

	attrs := []any{"kind", info.Kind, "code", info.Code}
	if info.DriverCode != "" {
		attrs = append(attrs, "driver_code", info.DriverCode)
	}
	s.logger(domain.ChannelException, withTimestamp).Error(line, attrs...)
}

// Close closes every channel file. The sink falls back to its writer
// for lines written afterwards.
func (s *ChannelSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for name, f := range s.files {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s log: %w", name, err))
		}
	}
	s.files = make(map[string]*os.File)
	s.loggers = make(map[string]*slog.Logger)
	s.cfg.Dir = ""
	return errors.Join(errs...)
}

func (s *ChannelSink) logger(channel string, withTimestamp bool) *slog.Logger {
	key := channel
	if !withTimestamp {
		key += "|notime"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.loggers[key]; ok {
		return l
	}

	w, err := s.writer(channel)
	l := slog.New(newHandler(s.channelConfig(), w, withTimestamp))
	if w == s.out {
		l = l.With(channelKey, channel)
	}
	if err != nil {
		l.Warn("channel log file unavailable, using fallback writer", "error", err)
	}
	s.loggers[key] = l
	return l
}

// channelConfig caps the process level at Info.
func (s *ChannelSink) channelConfig() config.LogConfig {
	cfg := s.cfg
	if parseLevel(cfg.Level) > slog.LevelInfo {
		cfg.Level = "info"
	}
	return cfg
}

// writer must be called with s.mu held.
func (s *ChannelSink) writer(channel string) (io.Writer, error) {
	if s.cfg.Dir == "" {
		return s.out, nil
	}
	if f, ok := s.files[channel]; ok {
		return f, nil
	}

	path := filepath.Join(s.cfg.Dir, channel+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return s.out, fmt.Errorf("opening %s: %w", path, err)
	}
	s.files[channel] = f
	return f, nil
}
