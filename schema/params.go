package schema

import "strings"

// paramScanner walks attribute parameter text. Groups opened by (, [ or {
// nest to any depth and quoted strings are skipped whole, so separators
// and closers inside them are never mistaken for structure. Input ends
// act as an implicit close: the scanner never fails, it only stops.
type paramScanner struct {
	src string
	pos int
}

func closerOf(open byte) byte {
	switch open {
	case '(':
		return ')'
	case '[':
		return ']'
	case '{':
		return '}'
	}
	return 0
}

func (s *paramScanner) eof() bool { return s.pos >= len(s.src) }

// skipString advances past the quoted literal starting at pos. Backslash
// escapes are honoured; a missing closing quote runs to end of input.
func (s *paramScanner) skipString() {
	quote := s.src[s.pos]
	s.pos++
	for !s.eof() {
		switch s.src[s.pos] {
		case '\\':
			s.pos += 2
			continue
		case quote:
			s.pos++
			return
		}
		s.pos++
	}
	s.pos = len(s.src)
}

// group consumes the bracketed group whose opener sits at pos and returns
// the text between the delimiters.
func (s *paramScanner) group() string {
	closer := closerOf(s.src[s.pos])
	s.pos++
	start := s.pos
	for !s.eof() {
		c := s.src[s.pos]
		switch {
		case c == '"' || c == '\'':
			s.skipString()
		case closerOf(c) != 0:
			s.group()
		case c == closer:
			inner := s.src[start:s.pos]
			s.pos++
			return inner
		default:
			s.pos++
		}
	}
	return s.src[start:]
}

// splitTopLevel splits text at sep characters that are not nested inside
// a group or a string. Parts are trimmed; empty parts are dropped.
func splitTopLevel(text string, sep byte) []string {
	var parts []string
	s := &paramScanner{src: text}
	start := 0
	for !s.eof() {
		c := s.src[s.pos]
		switch {
		case c == '"' || c == '\'':
			s.skipString()
		case closerOf(c) != 0:
			s.group()
		case c == sep:
			parts = appendTrimmed(parts, text[start:s.pos])
			s.pos++
			start = s.pos
		default:
			s.pos++
		}
	}
	return appendTrimmed(parts, text[start:])
}

func appendTrimmed(parts []string, p string) []string {
	if p = strings.TrimSpace(p); p != "" {
		parts = append(parts, p)
	}
	return parts
}

// parseAttributes reads a run of "@name" or "@name(params)" tokens. Text
// between attributes that is not an attribute is ignored. The prefix is
// "@" for field attributes; a "@@" token is not a field attribute.
func parseAttributes(text string) []Attribute {
	var attrs []Attribute
	s := &paramScanner{src: text}
	for !s.eof() {
		c := s.src[s.pos]
		switch {
		case c == '"' || c == '\'':
			s.skipString()
			continue
		case c != '@':
			s.pos++
			continue
		}
		s.pos++
		name := s.ident(true)
		if name == "" {
			continue
		}
		attrs = append(attrs, s.attribute(name))
	}
	return attrs
}

// ident reads an identifier at pos. Dotted names such as "db.VarChar"
// are accepted when dotted is set.
func (s *paramScanner) ident(dotted bool) string {
	start := s.pos
	for !s.eof() {
		c := s.src[s.pos]
		if isIdentByte(c) || (dotted && c == '.' && s.pos > start) {
			s.pos++
			continue
		}
		break
	}
	return s.src[start:s.pos]
}

// attribute finishes an attribute whose name has been read, consuming an
// optional parenthesized parameter list.
func (s *paramScanner) attribute(name string) Attribute {
	a := Attribute{Kind: kindOf(name), Name: name}
	save := s.pos
	for !s.eof() && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t') {
		s.pos++
	}
	if !s.eof() && s.src[s.pos] == '(' {
		a.Params = strings.TrimSpace(s.group())
		a.HasParams = true
		return a
	}
	s.pos = save
	return a
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// IsQuoted reports whether v, trimmed, is a single- or double-quoted
// string literal.
func IsQuoted(v string) bool {
	v = strings.TrimSpace(v)
	return len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0]
}

// Unquote strips the quotes of a string literal and resolves backslash
// escapes inside it. Anything else is returned trimmed.
func Unquote(v string) string {
	v = strings.TrimSpace(v)
	if !IsQuoted(v) {
		return v
	}
	body := v[1 : len(v)-1]
	if !strings.Contains(body, `\`) {
		return body
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
		}
		b.WriteByte(body[i])
	}
	return b.String()
}
