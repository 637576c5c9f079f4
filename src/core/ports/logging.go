package ports

import "dbkit/src/core/domain"

// LogSink receives the lines emitted by the database layer.
type LogSink interface {
	// Write appends message to channel. attrs are slog-style key/value pairs.
	Write(channel, message string, withTimestamp bool, attrs ...any)

	// WriteException records a failure on the exception channel.
	WriteException(info domain.ExceptionInfo, withTimestamp bool)
}
