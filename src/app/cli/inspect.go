package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"dbkit/src/core/domain"
	"dbkit/src/core/usecase"
)

func newDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table>",
		Short: "List the columns of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			f := rootOpts.formatter(cmd)
			cols, err := s.inspect.Columns(cmd.Context(), args[0])
			if err != nil {
				return f.Error("describe "+args[0], err)
			}
			return f.Success(cols, func(w io.Writer) error {
				return writeColumns(w, cols)
			})
		},
	}
}

type countOptions struct {
	filters []string
}

func newCountCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &countOptions{}

	cmd := &cobra.Command{
		Use:   "count <table>",
		Short: "Count the rows of a table",
		Long: `Count the rows of a table, optionally filtered by column values.

Each --filter is column:value and keeps rows whose column equals value.
Filters are combined with AND. Columns must exist in the table.`,
		Example: `  dbkit count users --filter active:1 --filter country:NL`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			f := rootOpts.formatter(cmd)
			filters, err := usecase.ParseFilters(opts.filters)
			if err != nil {
				return f.Error("count "+args[0], err)
			}
			n, err := s.inspect.Count(cmd.Context(), args[0], filters)
			if err != nil {
				return f.Error("count "+args[0], err)
			}
			return f.Success(map[string]any{"table": args[0], "count": n}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, n)
				return err
			})
		},
	}

	cmd.Flags().StringArrayVar(&opts.filters, "filter", nil, "column:value equality filter (repeatable)")

	return cmd
}

func newExplainCommand(rootOpts *RootOptions) *cobra.Command {
	var bind []string

	cmd := &cobra.Command{
		Use:   "explain <sql>",
		Short: "Show the query plan of a statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			f := rootOpts.formatter(cmd)
			rec, err := s.inspect.Explain(cmd.Context(), args[0], bind)
			if err != nil {
				return f.Error("explain", err)
			}
			return f.Success(rec, func(w io.Writer) error {
				if rec == nil {
					return writeRecords(w, nil)
				}
				return writeRecords(w, []domain.Record{rec})
			})
		},
	}

	cmd.Flags().StringArrayVar(&bind, "arg", nil, "value bound to the next ? placeholder (repeatable)")
	return cmd
}

func newQueryCommand(rootOpts *RootOptions) *cobra.Command {
	var bind []string

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a statement and print the fetched rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			f := rootOpts.formatter(cmd)
			recs, err := s.inspect.Query(cmd.Context(), args[0], bind)
			if err != nil {
				return f.Error("query", err)
			}
			if recs == nil {
				recs = []domain.Record{}
			}
			return f.Success(recs, func(w io.Writer) error {
				return writeRecords(w, recs)
			})
		},
	}

	cmd.Flags().StringArrayVar(&bind, "arg", nil, "value bound to the next ? placeholder (repeatable)")
	return cmd
}
