package generator

import (
	"strconv"
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/paulobunga/parkman/schema"
	"github.com/paulobunga/parkman/stub"
	"github.com/paulobunga/parkman/typemap"
)

const defaultSeederCount = 10

// classValues fills the stubs that only need names: controller and service.
func (g *Generator) classValues(m schema.Model, namespace string) map[string]stub.Value {
	return map[string]stub.Value{
		"namespace":      stub.Ident(namespace),
		"modelNamespace": stub.Ident(g.cfg.Namespaces.Models),
		"class":          stub.Ident(m.Name),
		"variable":       stub.Ident(inflect.CamelizeDownFirst(m.Name)),
	}
}

func (g *Generator) seederValues(m schema.Model) map[string]stub.Value {
	count := g.cfg.SeederCount
	if count <= 0 {
		count = defaultSeederCount
	}
	return map[string]stub.Value{
		"namespace":      stub.Ident(g.cfg.Namespaces.Seeders),
		"modelNamespace": stub.Ident(g.cfg.Namespaces.Models),
		"class":          stub.Ident(m.Name),
		"count":          stub.Text(strconv.Itoa(count)),
	}
}

func (g *Generator) factoryValues(s schema.Schema, m schema.Model) map[string]stub.Value {
	var lines []string
	for _, d := range g.Definition(s, m) {
		lines = append(lines, "            "+q(d.Column)+" => "+d.Expr+",")
	}
	return map[string]stub.Value{
		"namespace":      stub.Ident(g.cfg.Namespaces.Factories),
		"modelNamespace": stub.Ident(g.cfg.Namespaces.Models),
		"class":          stub.Ident(m.Name),
		"definition":     stub.Text(strings.Join(lines, "\n")),
	}
}

// FactoryField is one entry of a factory definition.
type FactoryField struct {
	Column string
	Expr   string
}

// Definition builds the factory attributes of m. Columns the database fills
// (identity, timestamps maintained by the database) are left out, and
// owning-side foreign key columns get a factory of the related model.
func (g *Generator) Definition(s schema.Schema, m schema.Model) []FactoryField {
	owners := map[string]string{}
	for _, f := range m.Relations() {
		if RelationOf(f) != BelongsTo {
			continue
		}
		if fk, ok := singleForeignKey(m, f); ok {
			owners[fk.local] = f.BaseType()
		}
	}

	var attrs []FactoryField
	for _, f := range m.Scalars() {
		if f.Has(schema.AttrID) || f.Has(schema.AttrUpdatedAt) || databaseFilled(f) {
			continue
		}
		col := f.Column()
		if owner, ok := owners[col]; ok {
			attrs = append(attrs, FactoryField{
				Column: col,
				Expr:   `\` + g.cfg.Namespaces.Models + `\` + owner + "::factory()",
			})
			continue
		}
		attrs = append(attrs, FactoryField{Column: col, Expr: fixtureExpr(s, f)})
	}
	return attrs
}

func databaseFilled(f schema.Field) bool {
	def, ok := f.Attribute(schema.AttrDefault)
	if !ok {
		return false
	}
	v := strings.ReplaceAll(def.Params, " ", "")
	return v == "now()" || v == "autoincrement()"
}

func fixtureExpr(s schema.Schema, f schema.Field) string {
	if f.List {
		return "[]"
	}
	var fx typemap.Fixture
	if e, ok := s.Enum(f.BaseType()); ok && f.Kind == schema.EnumField {
		fx = typemap.EnumFixture(e.Values)
	} else {
		fx = typemap.FixtureFor(f.BaseType())
	}
	if fx.Kind == typemap.FixtureFaker && f.Has(schema.AttrUnique) {
		return strings.Replace(fx.Expr, "$this->faker->", "$this->faker->unique()->", 1)
	}
	return fx.Expr
}
