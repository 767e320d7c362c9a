package stub

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidIdent is returned when an Ident slot holds something that is
// not a plain identifier or namespace path.
var ErrInvalidIdent = errors.New("stub: invalid identifier")

// Value is a typed placeholder slot. The caller picks the slot type, so
// escaping is decided where the value is built rather than sniffed from
// the template text.
type Value interface {
	render() (string, error)
}

type text string

// Text substitutes s verbatim.
func Text(s string) Value { return text(s) }

func (t text) render() (string, error) { return string(t), nil }

type ident string

// Ident substitutes an identifier or a backslash-separated namespace
// such as App\Models. Anything else fails the render.
func Ident(s string) Value { return ident(s) }

func (i ident) render() (string, error) {
	s := string(i)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidIdent)
	}
	for _, seg := range strings.Split(s, `\`) {
		if !validSegment(seg) {
			return "", fmt.Errorf("%w: %q", ErrInvalidIdent, s)
		}
	}
	return s, nil
}

func validSegment(seg string) bool {
	if seg == "" {
		return false
	}
	for i, r := range seg {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

type literal string

// Quote substitutes s as a single-quoted string literal, escaping
// backslashes and quotes.
func Quote(s string) Value { return literal(s) }

func (l literal) render() (string, error) {
	return QuoteString(string(l)), nil
}

// QuoteString returns s as a single-quoted literal.
func QuoteString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}

type list []Value

// List substitutes its members joined with ", ".
func List(vals ...Value) Value { return list(vals) }

// Quotes is a List of Quote slots.
func Quotes(ss []string) Value {
	vals := make([]Value, len(ss))
	for i, s := range ss {
		vals[i] = Quote(s)
	}
	return list(vals)
}

func (l list) render() (string, error) {
	parts := make([]string, len(l))
	for i, v := range l {
		s, err := v.render()
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ", "), nil
}
