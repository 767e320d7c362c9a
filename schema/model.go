package schema

import (
	"strings"

	"github.com/go-openapi/inflect"
)

// Schema is the parsed form of one schema text. Values are never mutated
// after Parse returns; consumers that need a different order copy first.
type Schema struct {
	Enums   []Enum
	Models  []Model
	Skipped []SkippedLine // lines dropped by the parser, kept for diagnostics only
}

// SkippedLine is a model or enum body line that matched no known shape.
type SkippedLine struct {
	Block string
	Line  int
	Text  string
}

type Enum struct {
	Name   string
	Values []string
}

type Model struct {
	Name       string
	Fields     []Field
	Attributes []Attribute
}

type Field struct {
	Name       string
	Type       string // declared type token, including a trailing "[]" when present
	List       bool
	Nullable   bool
	Kind       FieldKind
	Attributes []Attribute
}

// FieldKind classifies a field by what its base type names.
type FieldKind string

const (
	ScalarField   FieldKind = "scalar"
	EnumField     FieldKind = "enum"
	RelationField FieldKind = "relation"
)

// Primitives is the fixed set of scalar type names understood by the DSL.
var Primitives = []string{"String", "Int", "Float", "Boolean", "DateTime", "Json", "BigInt", "Decimal", "Bytes"}

// IsPrimitive reports whether name is one of Primitives.
func IsPrimitive(name string) bool {
	for _, p := range Primitives {
		if p == name {
			return true
		}
	}
	return false
}

// Enum returns the enum declared under name.
func (s Schema) Enum(name string) (Enum, bool) {
	for _, e := range s.Enums {
		if e.Name == name {
			return e, true
		}
	}
	return Enum{}, false
}

// Model returns the model declared under name.
func (s Schema) Model(name string) (Model, bool) {
	for _, m := range s.Models {
		if m.Name == name {
			return m, true
		}
	}
	return Model{}, false
}

// BaseType is the declared type with the list marker stripped.
func (f Field) BaseType() string {
	return strings.TrimSuffix(f.Type, "[]")
}

func (f Field) IsRelation() bool { return f.Kind == RelationField }

// Column is the storage column name: the @map argument when present,
// the field name otherwise.
func (f Field) Column() string {
	if a, ok := f.Attribute(AttrMap); ok {
		if v := Unquote(a.Positional(0)); v != "" {
			return v
		}
	}
	return f.Name
}

// Attribute returns the first attribute of the given kind.
func (f Field) Attribute(kind AttributeKind) (Attribute, bool) {
	return findAttribute(f.Attributes, kind)
}

func (f Field) Has(kind AttributeKind) bool {
	_, ok := f.Attribute(kind)
	return ok
}

// Field returns the field declared under name.
func (m Model) Field(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Relations returns the model's relation fields in declaration order.
func (m Model) Relations() []Field {
	var out []Field
	for _, f := range m.Fields {
		if f.IsRelation() {
			out = append(out, f)
		}
	}
	return out
}

// Scalars returns the fields that map to storage columns (scalars and enums).
func (m Model) Scalars() []Field {
	var out []Field
	for _, f := range m.Fields {
		if !f.IsRelation() {
			out = append(out, f)
		}
	}
	return out
}

// ModelAttributes returns every model-level attribute of the given kind.
func (m Model) ModelAttributes(kind AttributeKind) []Attribute {
	var out []Attribute
	for _, a := range m.Attributes {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// Table is the storage table name: the @@map argument when present,
// otherwise the pluralized snake_case model name ("BlogPost" -> "blog_posts").
func (m Model) Table() string {
	for _, a := range m.Attributes {
		if a.Kind == AttrMap {
			if v := Unquote(a.Positional(0)); v != "" {
				return v
			}
		}
	}
	return TableName(m.Name)
}

// TableName derives the conventional table name for a model name.
func TableName(model string) string {
	return inflect.Pluralize(inflect.Underscore(model))
}

func findAttribute(attrs []Attribute, kind AttributeKind) (Attribute, bool) {
	for _, a := range attrs {
		if a.Kind == kind {
			return a, true
		}
	}
	return Attribute{}, false
}
