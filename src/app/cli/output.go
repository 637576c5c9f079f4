package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"dbkit/src/core/domain"
)

// Exit codes for CLI commands.
const (
	ExitSuccess       = 0 // Successful execution
	ExitFailure       = 1 // Unexpected failure, or nothing found
	ExitCommandError  = 2 // Invalid arguments or configuration
	ExitDatabaseError = 3 // Connection, transaction or execute error
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// exitCodeFor classifies an error returned by the database layer or the
// inspect usecase.
func exitCodeFor(err error) int {
	switch {
	case domain.IsValidationError(err):
		return ExitCommandError
	case domain.IsConnectionError(err), domain.IsTransactionError(err), domain.IsExecuteError(err):
		return ExitDatabaseError
	default:
		return ExitFailure
	}
}

// OutputFormatter renders command results as text, JSON or YAML.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the envelope of JSON and YAML output.
type CLIResponse struct {
	Status string    `json:"status" yaml:"status"`
	Data   any       `json:"data,omitempty" yaml:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty" yaml:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Kind    string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Code    int    `json:"code,omitempty" yaml:"code,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// Success writes data. text renders the human-readable form.
func (f *OutputFormatter) Success(data any, text func(w io.Writer) error) error {
	switch f.Format {
	case "json":
		return f.encodeJSON(CLIResponse{Status: "ok", Data: data})
	case "yaml":
		return f.encodeYAML(CLIResponse{Status: "ok", Data: data})
	default:
		return text(f.Writer)
	}
}

// Error writes err in the configured format and returns it as an
// *ExitError carrying the matching exit code.
func (f *OutputFormatter) Error(message string, err error) error {
	cliErr := &CLIError{Message: err.Error()}
	var dbErr *domain.DbError
	if errors.As(err, &dbErr) {
		cliErr.Kind = string(dbErr.Kind)
		cliErr.Code = dbErr.Code
	}

	switch f.Format {
	case "json":
		_ = f.encodeJSON(CLIResponse{Status: "error", Error: cliErr})
	case "yaml":
		_ = f.encodeYAML(CLIResponse{Status: "error", Error: cliErr})
	}
	return WrapExitError(exitCodeFor(err), message, err)
}

func (f *OutputFormatter) encodeJSON(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (f *OutputFormatter) encodeYAML(v any) error {
	enc := yaml.NewEncoder(f.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// writeColumns renders a table description, one column per line.
func writeColumns(w io.Writer, cols []domain.Column) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tTYPE\tNULL\tKEY\tDEFAULT\tEXTRA")
	for _, c := range cols {
		null := "NO"
		if c.Nullable {
			null = "YES"
		}
		def := "NULL"
		if c.Default != nil {
			def = *c.Default
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", c.Name, c.Type, null, c.Key, def, c.Extra)
	}
	return tw.Flush()
}

// writeRecords renders records as a table with columns in name order.
func writeRecords(w io.Writer, recs []domain.Record) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "(no rows)")
		return err
	}

	cols := make([]string, 0, len(recs[0]))
	for c := range recs[0] {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)
	for _, rec := range recs {
		for i, c := range cols {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, displayCell(rec[c]))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func displayCell(v any) string {
	if v == nil {
		return "NULL"
	}
	return cast.ToString(v)
}
