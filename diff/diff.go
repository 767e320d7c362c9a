package diff

import (
	"strings"

	"github.com/paulobunga/parkman/introspect"
	"github.com/paulobunga/parkman/schema"
)

type OperationType string

const (
	AlterTable     OperationType = "alter_table"
	RenameTable    OperationType = "rename_table"
	AddForeignKey  OperationType = "add_foreign_key"
	DropForeignKey OperationType = "drop_foreign_key"
)

type AlterationType string

const (
	AddColumn    AlterationType = "add_column"
	DropColumn   AlterationType = "drop_column"
	RenameColumn AlterationType = "rename_column"
)

// Operation is one structural change. Which fields are set depends on Type;
// an unrecognised Type is skipped by the migration renderer.
type Operation struct {
	Type        OperationType
	Table       string       // ALTER_TABLE, ADD_FOREIGN_KEY, DROP_FOREIGN_KEY
	Alterations []Alteration // ALTER_TABLE
	From        string       // RENAME_TABLE
	To          string       // RENAME_TABLE
	ForeignKey  *ForeignKey  // ADD_FOREIGN_KEY
	Name        string       // DROP_FOREIGN_KEY constraint name
}

type Alteration struct {
	Type   AlterationType
	Column *Column // ADD_COLUMN
	Name   string  // DROP_COLUMN
	From   string  // RENAME_COLUMN
	To     string  // RENAME_COLUMN
}

// Column describes a column to add. Type is a schema scalar name and
// Default holds raw default text in schema syntax, e.g. `"draft"` or now().
// Values lists the members of an enum-typed column.
type Column struct {
	Name      string
	Type      string
	List      bool
	Nullable  bool
	Unique    bool
	Primary   bool
	UpdatedAt bool
	Default   *string
	Values    []string
}

type ForeignKey struct {
	Column     string
	References string
	On         string // referenced table
	OnDelete   string
	OnUpdate   string
}

// ConstraintName is the conventional name of a foreign key on table.column.
func ConstraintName(table, column string) string {
	return table + "_" + column + "_foreign"
}

// DiffTables compares the schema's models against the tables that already
// exist and returns one ALTER_TABLE per existing table whose columns differ:
// missing scalar columns are added, columns the model no longer declares
// are dropped. Owning-side relations whose column has no constraint yet get
// an ADD_FOREIGN_KEY after the alteration. Models without an existing table
// produce nothing here; they are created from scratch by the migration
// generator.
func DiffTables(s schema.Schema, existing []introspect.ExistingTable) []Operation {
	var ops []Operation

	existingTableMap := map[string]introspect.ExistingTable{}
	for _, t := range existing {
		existingTableMap[t.TableName] = t
	}

	for _, model := range s.Models {
		table, exists := existingTableMap[model.Table()]
		if !exists {
			continue
		}

		modelCols := map[string]bool{}

		var alterations []Alteration
		for _, f := range model.Scalars() {
			modelCols[f.Column()] = true
			if _, ok := table.Column(f.Column()); ok {
				continue
			}
			alterations = append(alterations, Alteration{
				Type:   AddColumn,
				Column: ColumnFromField(s, f),
			})
		}

		for _, c := range table.Columns {
			if !modelCols[c.ColumnName] && !implicitColumns[c.ColumnName] {
				alterations = append(alterations, Alteration{
					Type: DropColumn,
					Name: c.ColumnName,
				})
			}
		}

		if len(alterations) > 0 {
			ops = append(ops, Operation{
				Type:        AlterTable,
				Table:       table.TableName,
				Alterations: alterations,
			})
		}

		for _, fk := range ForeignKeys(s, model) {
			if table.HasForeignKey(fk.Column) {
				continue
			}
			ops = append(ops, Operation{
				Type:       AddForeignKey,
				Table:      table.TableName,
				ForeignKey: &fk,
			})
		}
	}

	return ops
}

// ForeignKeys derives one constraint per owning-side column of m, from
// @relation(fields: [...], references: [...]). Relations to unknown models
// or with mismatched list lengths are left out.
func ForeignKeys(s schema.Schema, m schema.Model) []ForeignKey {
	var fks []ForeignKey
	for _, f := range m.Relations() {
		rel, ok := f.Attribute(schema.AttrRelation)
		if !ok {
			continue
		}
		fieldsArg, _ := rel.Named("fields")
		refsArg, _ := rel.Named("references")
		fields := schema.NameList(fieldsArg)
		refs := schema.NameList(refsArg)
		if len(fields) == 0 || len(fields) != len(refs) {
			continue
		}
		target, ok := s.Model(f.BaseType())
		if !ok {
			continue
		}
		onDelete, _ := rel.Named("onDelete")
		onUpdate, _ := rel.Named("onUpdate")
		for i, name := range fields {
			fk := ForeignKey{
				Column:     columnOf(m, name),
				References: columnOf(target, refs[i]),
				On:         target.Table(),
				OnDelete:   ReferentialAction(onDelete),
				OnUpdate:   ReferentialAction(onUpdate),
			}
			fks = append(fks, fk)
		}
	}
	return fks
}

func columnOf(m schema.Model, field string) string {
	if f, ok := m.Field(field); ok {
		return f.Column()
	}
	return field
}

// ReferentialAction spells a schema action (Cascade, SetNull, ...) the way
// the SQL clause does. Empty input stays empty.
func ReferentialAction(action string) string {
	switch strings.TrimSpace(action) {
	case "":
		return ""
	case "Cascade":
		return "cascade"
	case "SetNull":
		return "set null"
	case "Restrict":
		return "restrict"
	case "NoAction":
		return "no action"
	case "SetDefault":
		return "set default"
	}
	return strings.ToLower(strings.TrimSpace(action))
}

// Columns Laravel adds on its own and a schema never declares.
var implicitColumns = map[string]bool{
	"remember_token": true,
}

// ColumnFromField builds the column spec for a scalar or enum field of s.
func ColumnFromField(s schema.Schema, f schema.Field) *Column {
	col := &Column{
		Name:      f.Column(),
		Type:      f.BaseType(),
		List:      f.List,
		Nullable:  f.Nullable,
		Unique:    f.Has(schema.AttrUnique),
		UpdatedAt: f.Has(schema.AttrUpdatedAt),
	}
	def, hasDefault := f.Attribute(schema.AttrDefault)
	if hasDefault && def.HasParams {
		raw := def.Params
		col.Default = &raw
	}
	col.Primary = f.Has(schema.AttrID) && !(hasDefault && def.IsAutoIncrement())
	if f.Kind == schema.EnumField {
		if e, ok := s.Enum(f.BaseType()); ok {
			col.Values = e.Values
		}
	}
	return col
}

// ExistingTables returns the set of table names present in existing.
func ExistingTables(existing []introspect.ExistingTable) map[string]bool {
	out := make(map[string]bool, len(existing))
	for _, t := range existing {
		out[t.TableName] = true
	}
	return out
}
