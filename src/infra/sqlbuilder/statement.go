package sqlbuilder

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"dbkit/src/core/domain"
)

// Statement is SQL text plus its arguments, ready for binding.
type Statement struct {
	SQL string

	// Args holds positional arguments for "?" placeholders.
	Args []any

	// Named holds ":name" arguments. A non-nil map makes the statement named.
	Named domain.Params

	// Overridden lists update parameters whose row value was replaced by
	// a suffix parameter of the same name.
	Overridden []string

	// Returning is the column read back as the inserted id, if any.
	Returning string
}

// NewStatement builds a statement from caller arguments. A single
// domain.Params or map[string]any argument selects named binding;
// anything else is positional.
func NewStatement(query string, args ...any) Statement {
	if len(args) == 1 {
		switch p := args[0].(type) {
		case domain.Params:
			return Statement{SQL: query, Named: p}
		case map[string]any:
			return Statement{SQL: query, Named: domain.Params(p)}
		}
	}
	return Statement{SQL: query, Args: args}
}

// IsNamed reports whether the statement uses ":name" binding.
func (s Statement) IsNamed() bool {
	return s.Named != nil
}

// WithPrefix returns a copy with prefix prepended to the SQL text.
func (s Statement) WithPrefix(prefix string) Statement {
	s.SQL = prefix + s.SQL
	return s
}

// Bind returns the SQL and arguments as sent to the driver of d.
func (s Statement) Bind(d Dialect) (string, []any, error) {
	query, args := s.SQL, s.Args
	if s.IsNamed() {
		var err error
		query, args, err = bindNamed(query, s.Named)
		if err != nil {
			return "", nil, err
		}
	}
	query, err := rewritePlaceholders(query, d.Placeholder())
	if err != nil {
		return "", nil, err
	}
	return query, args, nil
}

// BoundQuery returns the SQL with every placeholder replaced by its quoted
// value.
//
// The result is for logs only. Values are not escaped, so the text is
// neither safe nor guaranteed valid to execute.
func (s Statement) BoundQuery() string {
	if s.IsNamed() {
		return s.boundNamed()
	}
	return s.boundPositional()
}

func (s Statement) boundPositional() string {
	if len(s.Args) == 0 {
		return s.SQL
	}
	var b strings.Builder
	last, n := 0, 0
	err := eachQuestion(s.SQL, func(i int) {
		if n >= len(s.Args) {
			return
		}
		b.WriteString(s.SQL[last:i])
		b.WriteString(displayValue(s.Args[n]))
		n++
		last = i + 1
	})
	if err != nil {
		return s.SQL
	}
	b.WriteString(s.SQL[last:])
	return b.String()
}

func (s Statement) boundNamed() string {
	toks, err := findNamedParams(s.SQL)
	if err != nil || len(toks) == 0 {
		return s.SQL
	}
	var b strings.Builder
	last := 0
	for _, t := range toks {
		val, ok := s.Named[t.name]
		if !ok {
			continue
		}
		b.WriteString(s.SQL[last:t.start])
		b.WriteString(displayValue(val))
		last = t.end
	}
	b.WriteString(s.SQL[last:])
	return b.String()
}

func displayValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return "'" + string(x) + "'"
	case time.Time:
		return "'" + x.Format("2006-01-02 15:04:05") + "'"
	}

	rv := reflect.ValueOf(v)
	if isSliceOrArray(rv) {
		if rv.Len() == 0 {
			return "NULL"
		}
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = displayValue(rv.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprintf("'%v'", v)
}
