// Package typemap holds the lookup tables from schema scalar types to
// Laravel column methods, Eloquent casts and factory fixture expressions.
//
// Every table is total: names outside the supported set resolve exactly
// like String.
package typemap

import (
	"fmt"
	"strings"
)

// DefaultScalar is the fallback for unknown names and for enum-typed fields.
const DefaultScalar = "String"

var storage = map[string]string{
	"String":   "string",
	"Int":      "integer",
	"BigInt":   "bigInteger",
	"Float":    "float",
	"Decimal":  "decimal",
	"Boolean":  "boolean",
	"DateTime": "timestamp",
	"Json":     "json",
	"Bytes":    "binary",
}

// Types without an entry need no cast.
var casts = map[string]string{
	"Int":      "integer",
	"BigInt":   "integer",
	"Float":    "float",
	"Decimal":  "decimal:2",
	"Boolean":  "boolean",
	"DateTime": "datetime",
	"Json":     "array",
}

var fixtures = map[string]Fixture{
	"String":   {Kind: FixtureFaker, Expr: "$this->faker->word()"},
	"Int":      {Kind: FixtureFaker, Expr: "$this->faker->randomNumber()"},
	"BigInt":   {Kind: FixtureFaker, Expr: "$this->faker->randomNumber()"},
	"Float":    {Kind: FixtureFaker, Expr: "$this->faker->randomFloat(2)"},
	"Decimal":  {Kind: FixtureFaker, Expr: "$this->faker->randomFloat(2, 0, 10000)"},
	"Boolean":  {Kind: FixtureFaker, Expr: "$this->faker->boolean()"},
	"DateTime": {Kind: FixtureFaker, Expr: "$this->faker->dateTime()"},
	"Json":     {Kind: FixtureLiteral, Expr: "[]"},
	"Bytes":    {Kind: FixtureFaker, Expr: "$this->faker->sha256()"},
}

// Supported reports whether name is one of the known scalar types.
func Supported(name string) bool {
	_, ok := storage[name]
	return ok
}

func resolve(name string) string {
	if Supported(name) {
		return name
	}
	return DefaultScalar
}

// Storage returns the Blueprint column method for a scalar type.
func Storage(name string) string {
	return storage[resolve(name)]
}

// Cast returns the Eloquent cast for a scalar type. ok is false when the
// value needs no cast.
func Cast(name string) (cast string, ok bool) {
	cast, ok = casts[resolve(name)]
	return cast, ok
}

// IsInteger reports the integer family, the only types eligible for
// auto-increment identity columns.
func IsInteger(name string) bool {
	return name == "Int" || name == "BigInt"
}

// FixtureKind tells how a fixture expression produces a value.
type FixtureKind string

const (
	FixtureFaker   FixtureKind = "faker"
	FixtureLiteral FixtureKind = "literal"
	FixtureEnum    FixtureKind = "enum"
)

// Fixture is the default value strategy a factory uses for a field.
type Fixture struct {
	Kind FixtureKind
	Expr string
}

// FixtureFor returns the fixture strategy for a scalar type.
func FixtureFor(name string) Fixture {
	return fixtures[resolve(name)]
}

// EnumFixture picks a random member of an enum's value set.
func EnumFixture(values []string) Fixture {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", `\'`) + "'"
	}
	return Fixture{
		Kind: FixtureEnum,
		Expr: fmt.Sprintf("$this->faker->randomElement([%s])", strings.Join(quoted, ", ")),
	}
}

// Scalars lists the supported scalar names in a stable order.
func Scalars() []string {
	return []string{"String", "Int", "BigInt", "Float", "Decimal", "Boolean", "DateTime", "Json", "Bytes"}
}
