package usecase

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"dbkit/src/core/domain"
	"dbkit/src/core/ports"
)

// tableNamePattern accepts a plain or schema-qualified table name.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

var columnNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// InspectService exposes the read-only diagnostics shared by the HTTP
// server and the CLI.
type InspectService struct {
	db  ports.Inspector
	log *slog.Logger
}

func NewInspectService(db ports.Inspector, log *slog.Logger) *InspectService {
	return &InspectService{db: db, log: log}
}

// Columns returns the columns of table. A table without columns is
// reported as not found.
func (s *InspectService) Columns(ctx context.Context, table string) ([]domain.Column, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	cols, err := s.db.DescribeColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, domain.NewNotFoundError("table " + table)
	}
	return cols, nil
}

// Filter restricts a count to rows whose Column equals Value.
type Filter struct {
	Column string
	Value  string
}

// ParseFilters parses "column:value" pairs. The value may itself contain
// colons.
func ParseFilters(pairs []string) ([]Filter, error) {
	filters := make([]Filter, 0, len(pairs))
	for _, p := range pairs {
		col, val, ok := strings.Cut(p, ":")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return nil, domain.NewValidationError("filter", "expected column:value, got "+strconv.Quote(p))
		}
		filters = append(filters, Filter{Column: col, Value: val})
	}
	return filters, nil
}

// Count returns the number of rows of table matching every filter. Filter
// columns must be columns of table; values are always bound, never
// spliced into the statement.
func (s *InspectService) Count(ctx context.Context, table string, filters []Filter) (int64, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}
	if len(filters) == 0 {
		return s.db.Count(ctx, table, "")
	}

	known, err := s.columnSet(ctx, table)
	if err != nil {
		return 0, err
	}

	conds := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	seen := make(map[string]bool, len(filters))
	for _, f := range filters {
		if !columnNamePattern.MatchString(f.Column) {
			return 0, domain.NewValidationError("filter", "invalid column name "+strconv.Quote(f.Column))
		}
		if !known[strings.ToLower(f.Column)] {
			return 0, domain.NewValidationError("filter", "unknown column "+f.Column+" in table "+table)
		}
		if seen[strings.ToLower(f.Column)] {
			return 0, domain.NewValidationError("filter", "column "+f.Column+" filtered twice")
		}
		seen[strings.ToLower(f.Column)] = true
		conds = append(conds, f.Column+" = ?")
		args = append(args, f.Value)
	}

	return s.db.Count(ctx, table, "WHERE "+strings.Join(conds, " AND "), args...)
}

func (s *InspectService) columnSet(ctx context.Context, table string) (map[string]bool, error) {
	cols, err := s.db.DescribeColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, domain.NewNotFoundError("table " + table)
	}
	set := make(map[string]bool, len(cols))
	for _, c := range cols {
		set[strings.ToLower(c.Name)] = true
	}
	return set, nil
}

// Query runs query and returns every row.
func (s *InspectService) Query(ctx context.Context, query string, args []string) ([]domain.Record, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.NewValidationError("query", "query is required")
	}
	return s.db.Query(ctx, query, toArgs(args)...)
}

// Explain returns the first row of the query plan of query.
func (s *InspectService) Explain(ctx context.Context, query string, args []string) (domain.Record, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.NewValidationError("query", "query is required")
	}
	return s.db.Explain(ctx, query, toArgs(args)...)
}

// LastQuery returns the latest executed query, or not found before the
// first execution.
func (s *InspectService) LastQuery() (string, error) {
	q := s.db.LastQuery()
	if q == "" {
		return "", domain.NewNotFoundError("query")
	}
	return q, nil
}

// Queries returns every executed query, oldest first.
func (s *InspectService) Queries() []string {
	return s.db.QueryStack()
}

func validateTable(table string) error {
	if table == "" {
		return domain.NewValidationError("table", "table is required")
	}
	if !tableNamePattern.MatchString(table) {
		return domain.NewValidationError("table", "invalid table name")
	}
	return nil
}

func toArgs(args []string) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}
