package schema

import "strings"

// AttributeKind is the closed set of attribute directives the generator
// interprets. Everything else is AttrUnknown and keeps its raw name.
type AttributeKind string

const (
	AttrID        AttributeKind = "id"
	AttrDefault   AttributeKind = "default"
	AttrUnique    AttributeKind = "unique"
	AttrIndex     AttributeKind = "index"
	AttrRelation  AttributeKind = "relation"
	AttrUpdatedAt AttributeKind = "updatedAt"
	AttrMap       AttributeKind = "map"
	AttrUnknown   AttributeKind = "unknown"
)

func kindOf(name string) AttributeKind {
	switch k := AttributeKind(name); k {
	case AttrID, AttrDefault, AttrUnique, AttrIndex, AttrRelation, AttrUpdatedAt, AttrMap:
		return k
	}
	return AttrUnknown
}

// Attribute is a field (@name) or model (@@name) directive. Params is the
// raw text between the outer parentheses.
type Attribute struct {
	Kind      AttributeKind
	Name      string
	Params    string
	HasParams bool
}

// Arg is one top-level parameter: "key: value" or a bare value.
type Arg struct {
	Key   string
	Value string
}

// Args splits Params at top-level commas.
func (a Attribute) Args() []Arg {
	var args []Arg
	for _, part := range splitTopLevel(a.Params, ',') {
		args = append(args, parseArg(part))
	}
	return args
}

func parseArg(part string) Arg {
	s := &paramScanner{src: part}
	key := s.ident(false)
	rest := strings.TrimSpace(part[s.pos:])
	if key != "" && strings.HasPrefix(rest, ":") {
		return Arg{Key: key, Value: strings.TrimSpace(rest[1:])}
	}
	return Arg{Value: part}
}

// Positional returns the i-th unnamed argument, or "".
func (a Attribute) Positional(i int) string {
	for _, arg := range a.Args() {
		if arg.Key != "" {
			continue
		}
		if i == 0 {
			return arg.Value
		}
		i--
	}
	return ""
}

// Named returns the value of the "key: value" argument.
func (a Attribute) Named(key string) (string, bool) {
	for _, arg := range a.Args() {
		if arg.Key == key {
			return arg.Value, true
		}
	}
	return "", false
}

// FieldList extracts the bracketed field names of a composite declaration
// such as @@unique([a, b]) or @@index(fields: [a, b(sort: Desc)]).
func (a Attribute) FieldList() []string {
	v, ok := a.Named("fields")
	if !ok {
		v = a.Positional(0)
	}
	return NameList(v)
}

// NameList reads "[a, b]" into its identifiers. Per-name arguments such
// as "b(sort: Desc)" are reduced to the leading name. Text that is not
// bracketed yields nil.
func NameList(v string) []string {
	v = strings.TrimSpace(v)
	if len(v) < 2 || v[0] != '[' {
		return nil
	}
	inner := (&paramScanner{src: v}).group()
	var names []string
	for _, part := range splitTopLevel(inner, ',') {
		s := &paramScanner{src: part}
		if name := s.ident(true); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// IsAutoIncrement reports a @default(autoincrement()) directive.
func (a Attribute) IsAutoIncrement() bool {
	return a.Kind == AttrDefault && strings.ReplaceAll(a.Positional(0), " ", "") == "autoincrement()"
}
