// Package logger provides structured logging using Go's standard library slog.
//
// Two kinds of loggers are built here: the process logger returned by New,
// and the per-channel loggers of ChannelSink that receive the database
// layer's query and exception lines.
//
// Usage:
//
//	log := logger.New(cfg.Log)
//	log.Info("server starting", "port", 8080)
//
//	sink, err := logger.NewChannelSink(cfg.Log, os.Stdout)
//	sink.Write(domain.ChannelDatabase, "[Time:0.0012sec]SELECT 1", true)
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"dbkit/src/infra/config"
)

// New creates a new slog.Logger based on the provided configuration.
// It supports JSON and text output formats, and configurable log levels.
func New(cfg config.LogConfig) *slog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter creates a new logger that writes to the specified writer.
// This is useful for testing or writing logs to files.
func NewWithWriter(cfg config.LogConfig, w io.Writer) *slog.Logger {
	return slog.New(newHandler(cfg, w, true))
}

// newHandler builds the handler for cfg.Format. withTimestamp=false drops
// the time attribute from every record.
func newHandler(cfg config.LogConfig, w io.Writer, withTimestamp bool) slog.Handler {
	level := parseLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info only in debug mode
	}
	if !withTimestamp {
		opts.ReplaceAttr = dropTime
	}

	switch strings.ToLower(cfg.Format) {
	case "plain":
		return &plainHandler{level: level, w: w, timestamp: withTimestamp, mu: &sync.Mutex{}}
	case "text":
		return slog.NewTextHandler(w, opts)
	default:
		return slog.NewJSONHandler(w, opts)
	}
}

func dropTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}

// parseLevel converts a string log level to slog.Level.
// Defaults to Info if the level is not recognized.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID returns a new logger with the request ID added to all log entries.
// Use this in HTTP handlers after extracting the request ID from context.
func WithRequestID(log *slog.Logger, requestID string) *slog.Logger {
	if log == nil {
		return nil
	}
	return log.With("request_id", requestID)
}

// WithComponent returns a new logger with a component name added.
// Useful for identifying which part of the application generated the log.
func WithComponent(log *slog.Logger, component string) *slog.Logger {
	if log == nil {
		return nil
	}
	return log.With("component", component)
}

// Info is a convenience wrapper for slog.Logger.Info, guarding nil.
func Info(log *slog.Logger, msg string, args ...any) {
	if log == nil {
		return
	}
	log.Info(msg, args...)
}

// Warn is a convenience wrapper for slog.Logger.Warn, guarding nil.
func Warn(log *slog.Logger, msg string, args ...any) {
	if log == nil {
		return
	}
	log.Warn(msg, args...)
}

// Error is a convenience wrapper for slog.Logger.Error, guarding nil.
func Error(log *slog.Logger, msg string, args ...any) {
	if log == nil {
		return
	}
	log.Error(msg, args...)
}

// Debug is a convenience wrapper for slog.Logger.Debug, guarding nil.
func Debug(log *slog.Logger, msg string, args ...any) {
	if log == nil {
		return
	}
	log.Debug(msg, args...)
}

const plainTimeLayout = "2006-01-02 15:04:05"

// plainHandler writes only the log message, without structured envelope.
// With timestamp set the message is prefixed by the record time. A channel
// attribute bound through With is rendered as a [channel] prefix so lines of
// channels sharing one writer stay apart.
type plainHandler struct {
	level     slog.Level
	w         io.Writer
	timestamp bool
	channel   string
	mu        *sync.Mutex
}

func (h *plainHandler) Enabled(_ context.Context, lvl slog.Level) bool {
	return lvl >= h.level
}

func (h *plainHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	if h.timestamp && !r.Time.IsZero() {
		b.WriteString("[" + r.Time.Format(plainTimeLayout) + "] ")
	}
	if h.channel != "" {
		b.WriteString("[" + h.channel + "] ")
	}
	b.WriteString(r.Message)
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *plainHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	for _, a := range attrs {
		if a.Key == channelKey {
			clone.channel = a.Value.String()
		}
	}
	return &clone
}

func (h *plainHandler) WithGroup(name string) slog.Handler {
	_ = name
	return h
}
