package validator

import (
	"fmt"

	"github.com/paulobunga/parkman/diff"
	"github.com/paulobunga/parkman/generator"
	"github.com/paulobunga/parkman/introspect"
	"github.com/paulobunga/parkman/schema"
	"github.com/paulobunga/parkman/typemap"
)

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// ValidationError represents a validation error with details
type ValidationError struct {
	Type     string `json:"type"`
	Model    string `json:"model,omitempty"`
	Field    string `json:"field,omitempty"`
	Line     int    `json:"line,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// ValidationResult contains all validation results
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
	Info     []ValidationError `json:"info"`
}

func newResult() *ValidationResult {
	return &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
		Info:     []ValidationError{},
	}
}

func (r *ValidationResult) add(e ValidationError) {
	switch e.Severity {
	case SeverityError:
		r.Errors = append(r.Errors, e)
	case SeverityWarning:
		r.Warnings = append(r.Warnings, e)
	default:
		r.Info = append(r.Info, e)
	}
}

// Validate reports what generation would silently drop, fall back on or
// get wrong for s. Generation itself never consults it.
func Validate(s schema.Schema) *ValidationResult {
	result := newResult()

	for _, line := range s.Skipped {
		result.add(ValidationError{
			Type:     "unparsable_line",
			Model:    line.Block,
			Line:     line.Line,
			Message:  fmt.Sprintf("Line %d in '%s' was not understood and is ignored: %s", line.Line, line.Block, line.Text),
			Severity: SeverityWarning,
		})
	}

	validateNames(s, result)
	for _, model := range s.Models {
		validateModel(s, model, result)
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// ValidateWithTables validates s and notes which of its tables already
// exist, since generation skips creating those.
func ValidateWithTables(s schema.Schema, tables []introspect.ExistingTable) *ValidationResult {
	result := Validate(s)
	existing := diff.ExistingTables(tables)
	for _, model := range s.Models {
		if existing[model.Table()] {
			result.add(ValidationError{
				Type:     "table_exists",
				Model:    model.Name,
				Message:  fmt.Sprintf("Table '%s' already exists in database", model.Table()),
				Severity: SeverityInfo,
			})
		}
	}
	return result
}

// ValidateOperations reports operation kinds the migration renderer skips
// and non-enum column types that fall back to String.
func ValidateOperations(ops []diff.Operation) *ValidationResult {
	result := newResult()
	for i, op := range ops {
		switch op.Type {
		case diff.AlterTable:
			for _, alt := range op.Alterations {
				switch alt.Type {
				case diff.AddColumn:
					if alt.Column == nil {
						result.add(ValidationError{
							Type:     "missing_column",
							Model:    op.Table,
							Message:  fmt.Sprintf("Operation %d: add_column on '%s' has no column", i+1, op.Table),
							Severity: SeverityError,
						})
						continue
					}
					if len(alt.Column.Values) == 0 && !typemap.Supported(alt.Column.Type) {
						result.add(ValidationError{
							Type:     "unsupported_type",
							Model:    op.Table,
							Field:    alt.Column.Name,
							Message:  fmt.Sprintf("Type '%s' is not supported and is generated as %s", alt.Column.Type, typemap.DefaultScalar),
							Severity: SeverityWarning,
						})
					}
				case diff.DropColumn:
					result.add(ValidationError{
						Type:     "irreversible",
						Model:    op.Table,
						Field:    alt.Name,
						Message:  fmt.Sprintf("Dropping '%s.%s' cannot be rolled back automatically", op.Table, alt.Name),
						Severity: SeverityInfo,
					})
				case diff.RenameColumn:
				default:
					result.add(unknownKind(i, string(alt.Type)))
				}
			}
		case diff.AddForeignKey:
			if op.ForeignKey == nil {
				result.add(ValidationError{
					Type:     "missing_foreign_key",
					Model:    op.Table,
					Message:  fmt.Sprintf("Operation %d: add_foreign_key on '%s' has no foreign_key", i+1, op.Table),
					Severity: SeverityError,
				})
			}
		case diff.DropForeignKey:
			result.add(ValidationError{
				Type:     "irreversible",
				Model:    op.Table,
				Message:  fmt.Sprintf("Dropping foreign key '%s' cannot be rolled back automatically", op.Name),
				Severity: SeverityInfo,
			})
		case diff.RenameTable:
		default:
			result.add(unknownKind(i, string(op.Type)))
		}
	}
	result.Valid = len(result.Errors) == 0
	return result
}

func unknownKind(i int, kind string) ValidationError {
	return ValidationError{
		Type:     "unknown_operation",
		Message:  fmt.Sprintf("Operation %d: '%s' is not a known kind and is skipped", i+1, kind),
		Severity: SeverityWarning,
	}
}

// validateNames checks model and enum names against each other and the
// tables they map to.
func validateNames(s schema.Schema, result *ValidationResult) {
	enums := map[string]bool{}
	for _, e := range s.Enums {
		enums[e.Name] = true
		if len(e.Values) == 0 {
			result.add(ValidationError{
				Type:     "empty_enum",
				Model:    e.Name,
				Message:  fmt.Sprintf("Enum '%s' has no values", e.Name),
				Severity: SeverityWarning,
			})
		}
	}

	tables := map[string]string{}
	for _, m := range s.Models {
		if enums[m.Name] {
			result.add(ValidationError{
				Type:     "duplicate_name",
				Model:    m.Name,
				Message:  fmt.Sprintf("'%s' is declared both as an enum and as a model", m.Name),
				Severity: SeverityError,
			})
		}
		if other, ok := tables[m.Table()]; ok {
			result.add(ValidationError{
				Type:     "duplicate_table",
				Model:    m.Name,
				Message:  fmt.Sprintf("Models '%s' and '%s' both map to table '%s'", other, m.Name, m.Table()),
				Severity: SeverityError,
			})
			continue
		}
		tables[m.Table()] = m.Name
		if err := validateIdentifier("table", m.Table()); err != nil {
			result.add(ValidationError{
				Type:     "table_name",
				Model:    m.Name,
				Message:  err.Error(),
				Severity: SeverityError,
			})
		}
	}
}

// validateModel validates a single model
func validateModel(s schema.Schema, model schema.Model, result *ValidationResult) {
	if len(model.Fields) == 0 {
		result.add(ValidationError{
			Type:     "no_fields",
			Model:    model.Name,
			Message:  fmt.Sprintf("Model '%s' must have at least one field", model.Name),
			Severity: SeverityError,
		})
		return
	}

	fieldNames := map[string]bool{}
	hasPrimaryKey := len(model.ModelAttributes(schema.AttrID)) > 0

	for _, field := range model.Fields {
		if fieldNames[field.Name] {
			result.add(ValidationError{
				Type:     "duplicate_field",
				Model:    model.Name,
				Field:    field.Name,
				Message:  fmt.Sprintf("Duplicate field name '%s' in model '%s'", field.Name, model.Name),
				Severity: SeverityError,
			})
			continue
		}
		fieldNames[field.Name] = true

		if field.Has(schema.AttrID) {
			hasPrimaryKey = true
		}

		if field.IsRelation() {
			validateRelation(s, model, field, result)
			continue
		}

		if err := validateIdentifier("column", field.Column()); err != nil {
			result.add(ValidationError{
				Type:     "column_name",
				Model:    model.Name,
				Field:    field.Name,
				Message:  err.Error(),
				Severity: SeverityError,
			})
		}
		validateDefault(s, model, field, result)
	}

	if !hasPrimaryKey {
		result.add(ValidationError{
			Type:     "no_primary_key",
			Model:    model.Name,
			Message:  fmt.Sprintf("Model '%s' has no @id field or @@id attribute", model.Name),
			Severity: SeverityWarning,
		})
	}

	for _, kind := range []schema.AttributeKind{schema.AttrID, schema.AttrUnique, schema.AttrIndex} {
		for _, attr := range model.ModelAttributes(kind) {
			fields := attr.FieldList()
			if len(fields) == 0 {
				result.add(ValidationError{
					Type:     "composite_fields",
					Model:    model.Name,
					Message:  fmt.Sprintf("@@%s in '%s' has no field list and is ignored", attr.Name, model.Name),
					Severity: SeverityWarning,
				})
				continue
			}
			for _, name := range fields {
				if f, ok := model.Field(name); !ok || f.IsRelation() {
					result.add(ValidationError{
						Type:     "composite_fields",
						Model:    model.Name,
						Field:    name,
						Message:  fmt.Sprintf("@@%s in '%s' names unknown field '%s'", attr.Name, model.Name, name),
						Severity: SeverityError,
					})
				}
			}
		}
	}
}

func validateRelation(s schema.Schema, model schema.Model, field schema.Field, result *ValidationResult) {
	target, ok := s.Model(field.BaseType())
	if !ok {
		result.add(ValidationError{
			Type:     "unresolved_relation",
			Model:    model.Name,
			Field:    field.Name,
			Message:  fmt.Sprintf("Type '%s' of '%s.%s' is not a scalar, enum or model; no column is generated", field.BaseType(), model.Name, field.Name),
			Severity: SeverityError,
		})
		return
	}

	if rel, ok := field.Attribute(schema.AttrRelation); ok {
		fieldsArg, hasFields := rel.Named("fields")
		refsArg, hasRefs := rel.Named("references")
		fields, refs := schema.NameList(fieldsArg), schema.NameList(refsArg)
		if hasFields || hasRefs {
			if len(fields) != len(refs) {
				result.add(ValidationError{
					Type:     "relation_fields",
					Model:    model.Name,
					Field:    field.Name,
					Message:  fmt.Sprintf("Relation '%s.%s' lists %d fields but %d references", model.Name, field.Name, len(fields), len(refs)),
					Severity: SeverityError,
				})
			}
			for _, name := range fields {
				if f, ok := model.Field(name); !ok || f.IsRelation() {
					result.add(ValidationError{
						Type:     "relation_fields",
						Model:    model.Name,
						Field:    field.Name,
						Message:  fmt.Sprintf("Relation '%s.%s' names unknown field '%s'", model.Name, field.Name, name),
						Severity: SeverityError,
					})
				}
			}
			for _, name := range refs {
				if _, ok := target.Field(name); !ok {
					result.add(ValidationError{
						Type:     "relation_fields",
						Model:    model.Name,
						Field:    field.Name,
						Message:  fmt.Sprintf("Relation '%s.%s' references unknown field '%s.%s'", model.Name, field.Name, target.Name, name),
						Severity: SeverityError,
					})
				}
			}
		}
	}

	if generator.RelationOf(field) == generator.HasOne && !hasOwningSide(target, model.Name) {
		result.add(ValidationError{
			Type:     "relation_inferred",
			Model:    model.Name,
			Field:    field.Name,
			Message:  fmt.Sprintf("'%s.%s' has neither a list type nor @relation fields and is generated as hasOne", model.Name, field.Name),
			Severity: SeverityInfo,
		})
	}
}

func hasOwningSide(target schema.Model, model string) bool {
	for _, f := range target.Relations() {
		if f.BaseType() == model && generator.RelationOf(f) == generator.BelongsTo {
			return true
		}
	}
	return false
}

func validateDefault(s schema.Schema, model schema.Model, field schema.Field, result *ValidationResult) {
	def, ok := field.Attribute(schema.AttrDefault)
	if !ok || field.Kind != schema.EnumField {
		return
	}
	e, ok := s.Enum(field.BaseType())
	if !ok {
		return
	}
	value := def.Positional(0)
	for _, v := range e.Values {
		if v == value {
			return
		}
	}
	result.add(ValidationError{
		Type:     "default_value",
		Model:    model.Name,
		Field:    field.Name,
		Message:  fmt.Sprintf("Default '%s' of '%s.%s' is not a member of enum '%s'", value, model.Name, field.Name, e.Name),
		Severity: SeverityWarning,
	})
}

// validateIdentifier applies PostgreSQL identifier rules.
func validateIdentifier(what, name string) error {
	if name == "" {
		return fmt.Errorf("%s name cannot be empty", what)
	}

	if len(name) > 63 {
		return fmt.Errorf("%s name '%s' is too long (max 63 characters)", what, name)
	}

	for _, char := range name {
		if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '_') {
			return fmt.Errorf("%s name '%s' contains invalid character '%c'", what, name, char)
		}
	}

	return nil
}
