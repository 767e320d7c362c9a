package generator

import (
	"fmt"
	"strings"

	"github.com/paulobunga/parkman/schema"
	"github.com/paulobunga/parkman/stub"
	"github.com/paulobunga/parkman/typemap"
)

// RelationKind is the Eloquent accessor emitted for a relation field.
type RelationKind string

const (
	HasMany   RelationKind = "hasMany"
	BelongsTo RelationKind = "belongsTo"
	HasOne    RelationKind = "hasOne"
)

// RelationOf classifies a relation field: list fields are has-many, fields
// whose @relation names owning-side fields are belongs-to, and anything
// else is has-one.
func RelationOf(f schema.Field) RelationKind {
	if f.List {
		return HasMany
	}
	if rel, ok := f.Attribute(schema.AttrRelation); ok {
		if fields, ok := rel.Named("fields"); ok && len(schema.NameList(fields)) > 0 {
			return BelongsTo
		}
	}
	return HasOne
}

// Fillable lists the columns of non-relation, non-identity fields.
func Fillable(m schema.Model) []string {
	var cols []string
	for _, f := range m.Scalars() {
		if f.Has(schema.AttrID) || isIdentity(f) {
			continue
		}
		cols = append(cols, f.Column())
	}
	return cols
}

// isIdentity reports whether f becomes the table's auto-incrementing id
// column, with or without @id.
func isIdentity(f schema.Field) bool {
	def, ok := f.Attribute(schema.AttrDefault)
	return ok && def.IsAutoIncrement() && typemap.IsInteger(f.BaseType())
}

func (g *Generator) entityValues(s schema.Schema, m schema.Model) map[string]stub.Value {
	var casts []stub.Value
	for _, f := range m.Scalars() {
		cast, ok := castOf(f)
		if !ok {
			continue
		}
		casts = append(casts, stub.Text(q(f.Column())+" => "+q(cast)))
	}

	var relations strings.Builder
	for _, f := range m.Relations() {
		relations.WriteString(relationMethod(s, m, f))
	}

	return map[string]stub.Value{
		"namespace": stub.Ident(g.cfg.Namespaces.Models),
		"class":     stub.Ident(m.Name),
		"table":     stub.Quote(m.Table()),
		"fillable":  stub.Quotes(Fillable(m)),
		"casts":     stub.List(casts...),
		"relations": stub.Text(relations.String()),
	}
}

func castOf(f schema.Field) (string, bool) {
	switch {
	case f.List:
		return "array", true
	case f.Kind == schema.EnumField:
		return "", false
	}
	return typemap.Cast(f.BaseType())
}

func relationMethod(s schema.Schema, m schema.Model, f schema.Field) string {
	target := f.BaseType()
	kind := RelationOf(f)

	args := []string{target + "::class"}
	switch kind {
	case BelongsTo:
		if fk, ok := singleForeignKey(m, f); ok {
			args = append(args, q(fk.local), q(fk.remote))
		}
	default:
		if inverse, ok := inverseOf(s, m, f); ok {
			if fk, ok := singleForeignKey(inverse.model, inverse.field); ok {
				args = append(args, q(fk.local))
			}
		}
	}

	return fmt.Sprintf("\n    public function %s()\n    {\n        return $this->%s(%s);\n    }\n",
		f.Name, kind, strings.Join(args, ", "))
}

type keyPair struct {
	local, remote string
}

// singleForeignKey reads a one-column @relation(fields:, references:) of f,
// declared on model m.
func singleForeignKey(m schema.Model, f schema.Field) (keyPair, bool) {
	rel, ok := f.Attribute(schema.AttrRelation)
	if !ok {
		return keyPair{}, false
	}
	fieldsArg, _ := rel.Named("fields")
	refsArg, _ := rel.Named("references")
	fields, refs := schema.NameList(fieldsArg), schema.NameList(refsArg)
	if len(fields) != 1 || len(refs) != 1 {
		return keyPair{}, false
	}
	local := fields[0]
	if lf, ok := m.Field(local); ok {
		local = lf.Column()
	}
	return keyPair{local: local, remote: refs[0]}, true
}

type relationEnd struct {
	model schema.Model
	field schema.Field
}

// inverseOf finds the owning side of f on the target model: a relation
// back to m that names its fields and carries the same relation name.
func inverseOf(s schema.Schema, m schema.Model, f schema.Field) (relationEnd, bool) {
	target, ok := s.Model(f.BaseType())
	if !ok {
		return relationEnd{}, false
	}
	name := relationName(f)
	for _, other := range target.Relations() {
		if other.BaseType() != m.Name || RelationOf(other) != BelongsTo {
			continue
		}
		if relationName(other) == name {
			return relationEnd{model: target, field: other}, true
		}
	}
	return relationEnd{}, false
}

// relationName is the disambiguating name of @relation("name", ...) or
// @relation(name: "name"), empty when absent.
func relationName(f schema.Field) string {
	rel, ok := f.Attribute(schema.AttrRelation)
	if !ok {
		return ""
	}
	if v, ok := rel.Named("name"); ok {
		return schema.Unquote(v)
	}
	if v := rel.Positional(0); schema.IsQuoted(v) {
		return schema.Unquote(v)
	}
	return ""
}
