// Package domain contains domain entities, value objects, and domain-specific errors.
// This package should have no external dependencies except the standard library.
package domain

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
)

// Error kinds surfaced by the database layer. Every *DbError unwraps to
// exactly one of these, never to the underlying driver error.
var (
	// ErrConnection is returned when opening or closing the connection fails.
	ErrConnection = errors.New("database connection error")

	// ErrTransaction is returned when begin, commit or rollback fails.
	ErrTransaction = errors.New("database transaction error")

	// ErrExecute is returned when preparing or executing a statement fails.
	ErrExecute = errors.New("query execution error")

	// ErrUnexpected is the catch-all for failures outside the other kinds,
	// including statement building.
	ErrUnexpected = errors.New("unexpected database error")
)

// Errors used by the diagnostics surfaces (HTTP and CLI).
var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)

// ErrorKind names the taxonomy entry of a DbError.
type ErrorKind string

const (
	KindConnection  ErrorKind = "ConnectionError"
	KindTransaction ErrorKind = "TransactionError"
	KindExecute     ErrorKind = "ExecuteError"
	KindUnexpected  ErrorKind = "UnexpectedError"
)

// Error codes. The numbering is stable and shared with existing log tooling.
const (
	CodeConnect    = 80001
	CodeClose      = 80002
	CodeExecute    = 80003
	CodeBegin      = 80004
	CodeCommit     = 80005
	CodeRollback   = 80006
	CodeUnexpected = 80009
)

// TxOp identifies which transaction primitive failed.
type TxOp string

const (
	TxBegin    TxOp = "begin"
	TxCommit   TxOp = "commit"
	TxRollback TxOp = "rollback"
)

var txCodes = map[TxOp]int{
	TxBegin:    CodeBegin,
	TxCommit:   CodeCommit,
	TxRollback: CodeRollback,
}

var txMessages = map[TxOp]string{
	TxBegin:    "Failed to begin transaction.",
	TxCommit:   "Failed to commit the database.",
	TxRollback: "Failed to rollback the database.",
}

// DbError is the single error type returned by the database layer.
//
// The driver's own error value is flattened into DriverMessage/DriverCode so
// callers never depend on a concrete driver type.
type DbError struct {
	// Base is the kind sentinel (ErrConnection, ErrTransaction, ...)
	Base error

	Kind ErrorKind
	Code int

	// Op is "connect"/"close" for connection errors and the TxOp for
	// transaction errors.
	Op string

	// Message is the human-readable summary.
	Message string

	// Query is the attempted SQL text for execute errors.
	Query string

	DriverMessage string
	DriverCode    string

	// File and Line locate where the error was raised.
	File string
	Line int
}

// Error implements the error interface.
func (e *DbError) Error() string {
	if e.DriverMessage != "" {
		return fmt.Sprintf("%s [%d]: %s: %s", e.Base.Error(), e.Code, e.Message, e.DriverMessage)
	}
	return fmt.Sprintf("%s [%d]: %s", e.Base.Error(), e.Code, e.Message)
}

// Unwrap returns the kind sentinel for errors.Is/As support.
func (e *DbError) Unwrap() error {
	return e.Base
}

// WithDriverCode records the driver specific error code.
func (e *DbError) WithDriverCode(code string) *DbError {
	e.DriverCode = code
	return e
}

// ExceptionInfo returns the fields written to the exception log channel.
func (e *DbError) ExceptionInfo() ExceptionInfo {
	msg := e.Message
	if e.DriverMessage != "" {
		msg = msg + " " + e.DriverMessage
	}
	return ExceptionInfo{
		Kind:       string(e.Kind),
		Code:       e.Code,
		DriverCode: e.DriverCode,
		File:       e.File,
		Line:       e.Line,
		Message:    msg,
	}
}

// NewConnectionError creates a connection error. op is "connect" or "close".
func NewConnectionError(op string, cause error) *DbError {
	code, msg := CodeConnect, "Failed to database connection."
	if op == "close" {
		code, msg = CodeClose, "Failed to database connection close."
	}
	return newDbError(ErrConnection, KindConnection, code, op, msg, cause)
}

// NewTransactionError creates a transaction error tagged with the failed operation.
func NewTransactionError(op TxOp, cause error) *DbError {
	return newDbError(ErrTransaction, KindTransaction, txCodes[op], string(op), txMessages[op], cause)
}

// NewExecuteError creates an execute error carrying the attempted SQL.
func NewExecuteError(query string, cause error) *DbError {
	e := newDbError(ErrExecute, KindExecute, CodeExecute, "execute",
		fmt.Sprintf("Failed to execute query. %q", query), cause)
	e.Query = query
	return e
}

// NewUnexpectedError wraps any other failure. A cause that already is a
// *DbError is returned unchanged.
func NewUnexpectedError(cause error) *DbError {
	var dbErr *DbError
	if errors.As(cause, &dbErr) {
		return dbErr
	}
	msg := "An unexpected database error has occurred."
	if cause != nil {
		msg = cause.Error()
	}
	return newDbError(ErrUnexpected, KindUnexpected, CodeUnexpected, "", msg, nil)
}

func newDbError(base error, kind ErrorKind, code int, op, msg string, cause error) *DbError {
	e := &DbError{
		Base:    base,
		Kind:    kind,
		Code:    code,
		Op:      op,
		Message: msg,
	}
	if cause != nil {
		e.DriverMessage = cause.Error()
	}
	// skip newDbError and the exported constructor
	if _, file, line, ok := runtime.Caller(2); ok {
		e.File = filepath.Base(file)
		e.Line = line
	}
	return e
}

// DomainError wraps a base error with additional context.
// It is used by the diagnostics surfaces for request validation.
type DomainError struct {
	// Base is the underlying error type (e.g., ErrNotFound)
	Base error

	// Message provides human-readable context
	Message string

	// Field indicates which field caused the error (for validation errors)
	Field string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Base.Error(), e.Message, e.Field)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Base.Error(), e.Message)
	}
	return e.Base.Error()
}

// Unwrap returns the base error for errors.Is/As support.
func (e *DomainError) Unwrap() error {
	return e.Base
}

// NewNotFoundError creates a not found error with context.
func NewNotFoundError(resource string) *DomainError {
	return &DomainError{
		Base:    ErrNotFound,
		Message: resource,
	}
}

// NewValidationError creates a validation error for a specific field.
func NewValidationError(field, message string) *DomainError {
	return &DomainError{
		Base:    ErrInvalidInput,
		Message: message,
		Field:   field,
	}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConnectionError checks if an error is a connection error.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsTransactionError checks if an error is a transaction error.
func IsTransactionError(err error) bool {
	return errors.Is(err, ErrTransaction)
}

// IsTransactionOp reports whether err is a transaction error raised by op.
func IsTransactionOp(err error, op TxOp) bool {
	var dbErr *DbError
	return errors.As(err, &dbErr) && dbErr.Kind == KindTransaction && dbErr.Op == string(op)
}

// IsExecuteError checks if an error is an execute error.
func IsExecuteError(err error) bool {
	return errors.Is(err, ErrExecute)
}

// IsUnexpectedError checks if an error is an unexpected error.
func IsUnexpectedError(err error) bool {
	return errors.Is(err, ErrUnexpected)
}
