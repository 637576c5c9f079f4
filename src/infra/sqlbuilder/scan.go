package sqlbuilder

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SQL scanning. Quoted strings, quoted identifiers, comments and
// PostgreSQL dollar-quoted blocks are copied through untouched; only
// placeholders in plain SQL text are recognised.

type nameToken struct {
	name  string
	start int
	end   int
}

// skipNonCode reports whether a quoted or commented region starts at i and
// returns the index just past it.
func skipNonCode(s string, i int) (int, bool, error) {
	switch s[i] {
	case '\'':
		j, err := skipQuoted(s, i+1, '\'', true)
		return j, true, err
	case '"':
		j, err := skipQuoted(s, i+1, '"', false)
		return j, true, err
	case '`':
		j, err := skipQuoted(s, i+1, '`', false)
		return j, true, err
	case '-':
		if strings.HasPrefix(s[i:], "--") {
			return skipLineComment(s, i+2), true, nil
		}
	case '/':
		if strings.HasPrefix(s[i:], "/*") {
			j, err := skipBlockComment(s, i+2)
			return j, true, err
		}
	case '$':
		return skipDollarQuoted(s, i)
	}
	return i, false, nil
}

// findNamedParams returns the ":name" tokens of query in order.
func findNamedParams(query string) ([]nameToken, error) {
	var out []nameToken
	i := 0
	for i < len(query) {
		j, skipped, err := skipNonCode(query, i)
		if err != nil {
			return nil, err
		}
		if skipped {
			i = j
			continue
		}
		if query[i] == ':' {
			if strings.HasPrefix(query[i:], "::") {
				i += 2 // PG cast
				continue
			}
			name, end := parseIdent(query, i+1)
			if name != "" {
				out = append(out, nameToken{name: name, start: i, end: end})
				i = end
				continue
			}
		}
		i++
	}
	return out, nil
}

// countPlaceholders returns the number of "?" placeholders in query.
func countPlaceholders(query string) (int, error) {
	n := 0
	err := eachQuestion(query, func(int) { n++ })
	return n, err
}

func eachQuestion(query string, fn func(i int)) error {
	i := 0
	for i < len(query) {
		j, skipped, err := skipNonCode(query, i)
		if err != nil {
			return err
		}
		if skipped {
			i = j
			continue
		}
		if query[i] == '?' {
			fn(i)
		}
		i++
	}
	return nil
}

// bindNamed rewrites ":name" tokens to "?" and returns the arguments in
// token order. Slice values expand to one placeholder per element and an
// empty slice becomes NULL; []byte stays scalar.
func bindNamed(query string, params map[string]any) (string, []any, error) {
	toks, err := findNamedParams(query)
	if err != nil {
		return "", nil, err
	}
	if len(toks) == 0 {
		return query, nil, nil
	}

	var b strings.Builder
	b.Grow(len(query))
	args := make([]any, 0, len(toks))
	last := 0

	for _, t := range toks {
		b.WriteString(query[last:t.start])

		val, ok := params[t.name]
		if !ok {
			return "", nil, fmt.Errorf("missing value for :%s", t.name)
		}

		rv := reflect.ValueOf(val)
		if isSliceOrArray(rv) {
			n := rv.Len()
			if n == 0 {
				b.WriteString("NULL")
			}
			for i := 0; i < n; i++ {
				if i > 0 {
					b.WriteByte(',')
				}
				b.WriteByte('?')
				args = append(args, rv.Index(i).Interface())
			}
		} else {
			b.WriteByte('?')
			args = append(args, val)
		}
		last = t.end
	}
	b.WriteString(query[last:])
	return b.String(), args, nil
}

// rewritePlaceholders converts "?" to the dialect's style.
func rewritePlaceholders(query string, ph Placeholder) (string, error) {
	if ph == PlaceholderQuestion {
		return query, nil
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	last, arg := 0, 1
	err := eachQuestion(query, func(i int) {
		b.WriteString(query[last:i])
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(arg))
		arg++
		last = i + 1
	})
	if err != nil {
		return "", err
	}
	b.WriteString(query[last:])
	return b.String(), nil
}

func skipQuoted(s string, i int, quote byte, backslash bool) (int, error) {
	for i < len(s) {
		c := s[i]
		i++
		if backslash && c == '\\' {
			i++
			continue
		}
		if c == quote {
			if i < len(s) && s[i] == quote {
				i++
				continue
			}
			return i, nil
		}
	}
	return 0, fmt.Errorf("unterminated %c-quoted text", quote)
}

func skipLineComment(s string, i int) int {
	if j := strings.IndexByte(s[i:], '\n'); j >= 0 {
		return i + j + 1
	}
	return len(s)
}

func skipBlockComment(s string, i int) (int, error) {
	if j := strings.Index(s[i:], "*/"); j >= 0 {
		return i + j + 2, nil
	}
	return 0, fmt.Errorf("unterminated block comment")
}

// skipDollarQuoted handles $$...$$ and $tag$...$tag$ blocks. "$1" style
// placeholders are not blocks.
func skipDollarQuoted(s string, i int) (int, bool, error) {
	j := i + 1
	for j < len(s) && isTagChar(rune(s[j])) {
		j++
	}
	if j >= len(s) || s[j] != '$' {
		return i, false, nil
	}
	tag := s[i : j+1]
	if len(tag) > 2 && unicode.IsDigit(rune(tag[1])) {
		return i, false, nil
	}
	k := j + 1
	idx := strings.Index(s[k:], tag)
	if idx < 0 {
		return 0, true, fmt.Errorf("unterminated dollar-quoted string")
	}
	return k + idx + len(tag), true, nil
}

func isTagChar(r rune) bool { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }

func parseIdent(s string, i int) (string, int) {
	start := i
	for i < len(s) {
		r, w := utf8.DecodeRuneInString(s[i:])
		if !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			break
		}
		i += w
	}
	if i == start {
		return "", i
	}
	return s[start:i], i
}

func isSliceOrArray(v reflect.Value) bool {
	if !v.IsValid() {
		return false
	}
	switch v.Kind() {
	case reflect.Slice:
		return v.Type().Elem().Kind() != reflect.Uint8 // []byte is scalar
	case reflect.Array:
		return true
	default:
		return false
	}
}
