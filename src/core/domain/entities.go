package domain

import (
	"fmt"
	"sort"
	"time"
)

// Value is a single column value in a write statement.
//
// It is either a Literal, bound as a statement parameter, or a RawExpr,
// emitted verbatim into the SQL text without consuming a parameter slot.
type Value interface {
	isValue()
}

// Literal is an ordinary value bound as a parameter.
type Literal struct {
	V any
}

func (Literal) isValue() {}

// RawExpr is a SQL fragment written into the statement as is.
type RawExpr string

func (RawExpr) isValue() {}

// Now is the database's current-timestamp function call.
func Now() RawExpr {
	return RawExpr("NOW()")
}

// ValueOf wraps v into a Literal unless it already is a Value.
func ValueOf(v any) Value {
	if val, ok := v.(Value); ok {
		return val
	}
	return Literal{V: v}
}

// Field is one named column value of a Row.
type Field struct {
	Name  string
	Value Value
}

// F builds a Field; plain values become Literals.
func F(name string, v any) Field {
	return Field{Name: name, Value: ValueOf(v)}
}

// Row is an ordered set of column values. Column order in generated SQL
// follows field order.
type Row []Field

// RowOf builds a Row from fields.
func RowOf(fields ...Field) Row {
	return Row(fields)
}

// RowFromMap builds a Row from a map, ordering columns by name.
func RowFromMap(m map[string]any) Row {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	row := make(Row, 0, len(names))
	for _, name := range names {
		row = append(row, F(name, m[name]))
	}
	return row
}

// Has reports whether the row defines column name.
func (r Row) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Get returns the value of column name.
func (r Row) Get(name string) (Value, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// With returns a copy of the row with column name set to v, replacing an
// existing value in place or appending a new field.
func (r Row) With(name string, v any) Row {
	out := make(Row, len(r), len(r)+1)
	copy(out, r)
	for i := range out {
		if out[i].Name == name {
			out[i].Value = ValueOf(v)
			return out
		}
	}
	return append(out, F(name, v))
}

// Columns returns the column names in order.
func (r Row) Columns() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// Batch is an ordered sequence of rows written by one multi-row statement.
type Batch []Row

// Params holds named statement parameters, keyed without the leading colon.
type Params map[string]any

// Record is one fetched row keyed by column name.
type Record map[string]any

// Column describes one table column as reported by introspection.
type Column struct {
	Name     string  `json:"name" yaml:"name"`
	Type     string  `json:"type" yaml:"type"`
	Nullable bool    `json:"nullable" yaml:"nullable"`
	Key      string  `json:"key,omitempty" yaml:"key,omitempty"`
	Default  *string `json:"default" yaml:"default"`
	Extra    string  `json:"extra,omitempty" yaml:"extra,omitempty"`
	Comment  string  `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// BenchmarkRecord holds the timing and memory figures of one namespace.
type BenchmarkRecord struct {
	Namespace   string
	StartTime   time.Time
	EndTime     time.Time
	StartMemory uint64
	EndMemory   uint64

	// Derived on end.
	ExecutionTime time.Duration
	MemoryUsage   int64
	MemoryPeak    uint64
}

// Done reports whether the record has been closed by an end call.
func (r BenchmarkRecord) Done() bool {
	return !r.EndTime.IsZero()
}

// ExceptionInfo is the payload written to the exception log channel.
type ExceptionInfo struct {
	Kind       string
	Code       int
	DriverCode string
	File       string
	Line       int
	Message    string
}

// Origin returns "file:line" of where the error was raised.
func (i ExceptionInfo) Origin() string {
	if i.File == "" {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", i.File, i.Line)
}
