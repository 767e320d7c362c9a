package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnterminatedBlock is returned when a block's opening brace has no
// matching close brace in the text.
var ErrUnterminatedBlock = errors.New("schema: unterminated block")

// BlockError locates an undelimitable block.
type BlockError struct {
	Keyword string
	Name    string
	Line    int
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("schema: %s %s opened on line %d has no closing brace", e.Keyword, e.Name, e.Line)
}

func (e *BlockError) Is(target error) bool { return target == ErrUnterminatedBlock }

// blockKeywords are the top-level declarations whose bodies are delimited.
// Only enum and model bodies are interpreted.
var blockKeywords = map[string]bool{
	"model":      true,
	"enum":       true,
	"datasource": true,
	"generator":  true,
	"view":       true,
	"type":       true,
}

type block struct {
	keyword string
	name    string
	body    string
	line    int // line of the first body character
}

// Parse turns schema text into enums and models. Lines that match no known
// shape are dropped and listed in Schema.Skipped; the only error is a block
// whose braces cannot be delimited.
func Parse(text string) (Schema, error) {
	blocks, err := splitBlocks(text)
	if err != nil {
		return Schema{}, err
	}

	var s Schema
	enumIdx := map[string]int{}
	modelIdx := map[string]int{}
	for _, b := range blocks {
		if b.keyword != "enum" {
			continue
		}
		e, skipped := parseEnum(b)
		s.Skipped = append(s.Skipped, skipped...)
		if i, ok := enumIdx[e.Name]; ok {
			s.Enums[i] = e
			continue
		}
		enumIdx[e.Name] = len(s.Enums)
		s.Enums = append(s.Enums, e)
	}
	for _, b := range blocks {
		if b.keyword != "model" {
			continue
		}
		m, skipped := parseModel(b)
		s.Skipped = append(s.Skipped, skipped...)
		if i, ok := modelIdx[m.Name]; ok {
			s.Models[i] = m
			continue
		}
		modelIdx[m.Name] = len(s.Models)
		s.Models = append(s.Models, m)
	}

	for mi := range s.Models {
		for fi := range s.Models[mi].Fields {
			f := &s.Models[mi].Fields[fi]
			f.Kind = classify(f.BaseType(), enumIdx)
		}
	}
	return s, nil
}

func classify(base string, enums map[string]int) FieldKind {
	if IsPrimitive(base) {
		return ScalarField
	}
	if _, ok := enums[base]; ok {
		return EnumField
	}
	return RelationField
}

// splitBlocks finds every "<keyword> <Name> { ... }" declaration.
func splitBlocks(src string) ([]block, error) {
	var blocks []block
	i := 0
	for i < len(src) {
		i = skipSpace(src, i, true)
		if i >= len(src) {
			break
		}
		if strings.HasPrefix(src[i:], "//") {
			i = lineEnd(src, i)
			continue
		}
		if strings.HasPrefix(src[i:], "/*") {
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				break
			}
			i += end + 4
			continue
		}

		start := i
		s := &paramScanner{src: src, pos: i}
		word := s.ident(false)
		if word == "" || !blockKeywords[word] {
			i = lineEnd(src, start)
			continue
		}
		s.pos = skipSpace(src, s.pos, true)
		name := s.ident(false)
		s.pos = skipSpace(src, s.pos, true)
		if name == "" || s.eof() || src[s.pos] != '{' {
			i = lineEnd(src, start)
			continue
		}

		open := s.pos
		closeAt := matchBrace(src, open)
		if closeAt < 0 {
			return nil, &BlockError{Keyword: word, Name: name, Line: lineOf(src, open)}
		}
		blocks = append(blocks, block{
			keyword: word,
			name:    name,
			body:    src[open+1 : closeAt],
			line:    lineOf(src, open),
		})
		i = closeAt + 1
	}
	return blocks, nil
}

// matchBrace returns the index of the brace closing the one at open, or -1.
// Strings, parenthesized groups and line comments are opaque; none of them
// extends past the end of its line.
func matchBrace(src string, open int) int {
	depth := 0
	parens := 0
	var quote byte
	for i := open; i < len(src); i++ {
		c := src[i]
		if c == '\n' {
			parens, quote = 0, 0
			continue
		}
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '/':
			if i+1 < len(src) && src[i+1] == '/' {
				parens = 0
				i = lineEnd(src, i) - 1
			}
		case '(', '[':
			parens++
		case ')', ']':
			if parens > 0 {
				parens--
			}
		case '{':
			if parens == 0 {
				depth++
			}
		case '}':
			if parens == 0 {
				depth--
				if depth == 0 {
					return i
				}
			}
		}
	}
	return -1
}

func parseEnum(b block) (Enum, []SkippedLine) {
	e := Enum{Name: b.name}
	var skipped []SkippedLine
	for n, line := range bodyLines(b.body) {
		if line == "" || strings.HasPrefix(line, "@@") {
			continue
		}
		s := &paramScanner{src: line}
		value := s.ident(false)
		if value == "" {
			skipped = append(skipped, SkippedLine{Block: b.name, Line: b.line + n, Text: line})
			continue
		}
		e.Values = append(e.Values, value)
	}
	return e, skipped
}

func parseModel(b block) (Model, []SkippedLine) {
	m := Model{Name: b.name}
	var skipped []SkippedLine
	for n, line := range bodyLines(b.body) {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "@@") {
			if a, ok := parseModelAttribute(line); ok {
				m.Attributes = append(m.Attributes, a)
				continue
			}
		} else if f, ok := parseField(line); ok {
			m.Fields = append(m.Fields, f)
			continue
		}
		skipped = append(skipped, SkippedLine{Block: b.name, Line: b.line + n, Text: line})
	}
	return m, skipped
}

// parseModelAttribute reads "@@name" or "@@name(params)".
func parseModelAttribute(line string) (Attribute, bool) {
	s := &paramScanner{src: line, pos: 2}
	name := s.ident(true)
	if name == "" {
		return Attribute{}, false
	}
	return s.attribute(name), true
}

// parseField reads "name Type[]? @attr(params) ...".
func parseField(line string) (Field, bool) {
	s := &paramScanner{src: line}
	name := s.ident(false)
	if name == "" || s.eof() || !isBlank(line[s.pos]) {
		return Field{}, false
	}
	s.pos = skipSpace(line, s.pos, false)

	typ := s.ident(false)
	if typ == "" {
		return Field{}, false
	}
	f := Field{Name: name, Type: typ}
	if strings.HasPrefix(line[s.pos:], "[]") {
		f.Type += "[]"
		f.List = true
		s.pos += 2
	}
	if !s.eof() && line[s.pos] == '?' {
		f.Nullable = true
		s.pos++
	}
	if !s.eof() && !isBlank(line[s.pos]) {
		return Field{}, false
	}
	f.Attributes = parseAttributes(line[s.pos:])
	return f, true
}

// bodyLines splits a block body into trimmed lines with trailing comments
// removed. Index n of the result is n lines below the block's opening line.
func bodyLines(body string) []string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(stripComment(line))
	}
	return lines
}

// stripComment cuts a line at the first "//" outside a string literal.
func stripComment(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
			continue
		}
		if c == '/' && i+1 < len(line) && line[i+1] == '/' {
			return line[:i]
		}
	}
	return line
}

func skipSpace(src string, i int, newlines bool) int {
	for i < len(src) {
		c := src[i]
		if isBlank(c) || (newlines && (c == '\n' || c == '\r')) {
			i++
			continue
		}
		break
	}
	return i
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' || c == '\r' }

func lineEnd(src string, i int) int {
	if n := strings.IndexByte(src[i:], '\n'); n >= 0 {
		return i + n + 1
	}
	return len(src)
}

func lineOf(src string, i int) int {
	return strings.Count(src[:i], "\n") + 1
}
