// Package stub renders named text templates ("stubs") by substituting
// {{ name }} placeholders. There are no conditionals or loops: callers
// resolve every branch before building the placeholder map.
package stub

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTemplateNotFound is returned when a store has no template by the
// requested name.
var ErrTemplateNotFound = errors.New("stub: template not found")

// NotFoundError names the missing template.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("stub: template %q not found", e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrTemplateNotFound }

// Engine renders templates loaded from a Store.
type Engine struct {
	store Store
}

// NewEngine creates an engine over the given store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Render loads the template called name and substitutes every placeholder
// present in values. Placeholders without a value are left untouched.
func (e *Engine) Render(name string, values map[string]Value) (string, error) {
	tmpl, err := e.store.Load(name)
	if err != nil {
		return "", err
	}
	out, err := Substitute(tmpl, values)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return out, nil
}

// Substitute replaces {{ name }} tokens in tmpl. Whitespace inside the
// braces is optional. Substituted text is not rescanned.
func Substitute(tmpl string, values map[string]Value) (string, error) {
	var b strings.Builder
	b.Grow(len(tmpl))
	rest := tmpl
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[open+2:], "}}")
		if end < 0 {
			b.WriteString(rest)
			break
		}
		token := rest[open : open+2+end+2]
		key := strings.TrimSpace(token[2 : len(token)-2])

		b.WriteString(rest[:open])
		if v, ok := values[key]; ok {
			s, err := v.render()
			if err != nil {
				return "", fmt.Errorf("placeholder %s: %w", key, err)
			}
			b.WriteString(s)
		} else {
			b.WriteString(token)
		}
		rest = rest[open+len(token):]
	}
	return b.String(), nil
}
