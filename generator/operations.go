package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulobunga/parkman/diff"
	"github.com/paulobunga/parkman/schema"
	"github.com/paulobunga/parkman/stub"
	"github.com/paulobunga/parkman/typemap"
)

// StatementPair is the forward statement of one operation and the statement
// that undoes it. Both are unindented PHP and may span several lines.
type StatementPair struct {
	Up   string
	Down string
}

// Plan renders each operation into a statement pair. Unknown operation and
// alteration kinds are skipped, as is an ALTER_TABLE left with nothing to do.
func Plan(ops []diff.Operation) []StatementPair {
	var pairs []StatementPair

	for _, op := range ops {
		switch op.Type {
		case diff.AlterTable:
			var up, down []string
			for _, alt := range op.Alterations {
				u, d, ok := alteration(op.Table, alt)
				if !ok {
					continue
				}
				up = append(up, u)
				down = append(down, d)
			}
			if len(up) == 0 {
				continue
			}
			// last alteration applied is the first undone
			reverseStrings(down)
			pairs = append(pairs, StatementPair{
				Up:   tableBlock(op.Table, up),
				Down: tableBlock(op.Table, down),
			})

		case diff.RenameTable:
			pairs = append(pairs, StatementPair{
				Up:   fmt.Sprintf("Schema::rename(%s, %s);", q(op.From), q(op.To)),
				Down: fmt.Sprintf("Schema::rename(%s, %s);", q(op.To), q(op.From)),
			})

		case diff.AddForeignKey:
			if op.ForeignKey == nil {
				continue
			}
			pairs = append(pairs, StatementPair{
				Up: tableBlock(op.Table, []string{foreignStatement(*op.ForeignKey)}),
				Down: tableBlock(op.Table, []string{
					fmt.Sprintf("$table->dropForeign(%s);", q(diff.ConstraintName(op.Table, op.ForeignKey.Column))),
				}),
			})

		case diff.DropForeignKey:
			pairs = append(pairs, StatementPair{
				Up: tableBlock(op.Table, []string{
					fmt.Sprintf("$table->dropForeign(%s);", q(op.Name)),
				}),
				Down: manualStep("restore foreign key %s on %s", op.Name, op.Table),
			})
		}
	}

	return pairs
}

// Forward returns the up statements of ops in order.
func Forward(ops []diff.Operation) []string {
	var stmts []string
	for _, p := range Plan(ops) {
		stmts = append(stmts, p.Up)
	}
	return stmts
}

// Reverse returns the statements that undo ops, last operation first.
func Reverse(ops []diff.Operation) []string {
	pairs := Plan(ops)
	stmts := make([]string, 0, len(pairs))
	for i := len(pairs) - 1; i >= 0; i-- {
		stmts = append(stmts, pairs[i].Down)
	}
	return stmts
}

func alteration(table string, alt diff.Alteration) (up, down string, ok bool) {
	switch alt.Type {
	case diff.AddColumn:
		if alt.Column == nil {
			return "", "", false
		}
		return columnStatement(*alt.Column),
			fmt.Sprintf("$table->dropColumn(%s);", q(alt.Column.Name)),
			true

	case diff.DropColumn:
		// the dropped definition is unknown, so nothing is re-created
		return fmt.Sprintf("$table->dropColumn(%s);", q(alt.Name)),
			manualStep("restore column %s.%s", table, alt.Name),
			true

	case diff.RenameColumn:
		return fmt.Sprintf("$table->renameColumn(%s, %s);", q(alt.From), q(alt.To)),
			fmt.Sprintf("$table->renameColumn(%s, %s);", q(alt.To), q(alt.From)),
			true
	}
	return "", "", false
}

// ManualStepPrefix starts every statement that stands in for a reverse
// step that cannot be derived.
const ManualStepPrefix = "// manual step required: "

func manualStep(format string, args ...any) string {
	return ManualStepPrefix + fmt.Sprintf(format, args...)
}

// columnStatement renders one Blueprint column definition. An integer
// column defaulting to autoincrement() becomes the identity column and
// takes no further modifiers. Enum columns are plain strings; their
// members are never stored in the table definition.
func columnStatement(c diff.Column) string {
	if c.Default != nil && isAutoIncrement(*c.Default) && typemap.IsInteger(c.Type) {
		return fmt.Sprintf("$table->id(%s);", q(c.Name))
	}

	var b strings.Builder
	switch {
	case c.List:
		fmt.Fprintf(&b, "$table->json(%s)", q(c.Name))
	default:
		fmt.Fprintf(&b, "$table->%s(%s)", typemap.Storage(c.Type), q(c.Name))
	}
	if c.Nullable {
		b.WriteString("->nullable()")
	}
	if c.Unique {
		b.WriteString("->unique()")
	}
	if c.Default != nil {
		b.WriteString(defaultModifier(*c.Default))
	}
	if c.UpdatedAt {
		b.WriteString("->useCurrentOnUpdate()")
	}
	if c.Primary {
		b.WriteString("->primary()")
	}
	b.WriteString(";")
	return b.String()
}

func isAutoIncrement(raw string) bool {
	return strings.ReplaceAll(raw, " ", "") == "autoincrement()"
}

// defaultModifier translates a default in schema syntax. Generator calls
// other than now() (uuid(), cuid(), dbgenerated(...)) have no column-level
// equivalent and are dropped.
func defaultModifier(raw string) string {
	v := strings.TrimSpace(raw)
	switch {
	case v == "":
		return ""
	case strings.ReplaceAll(v, " ", "") == "now()":
		return "->useCurrent()"
	case strings.HasSuffix(v, ")"), strings.HasPrefix(v, "["):
		return ""
	case v == "true", v == "false":
		return "->default(" + v + ")"
	case schema.IsQuoted(v):
		return "->default(" + q(schema.Unquote(v)) + ")"
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return "->default(" + v + ")"
	}
	// a bare identifier is an enum member
	return "->default(" + q(v) + ")"
}

func foreignStatement(fk diff.ForeignKey) string {
	stmt := fmt.Sprintf("$table->foreign(%s)->references(%s)->on(%s)", q(fk.Column), q(fk.References), q(fk.On))
	if fk.OnDelete != "" {
		stmt += fmt.Sprintf("->onDelete(%s)", q(fk.OnDelete))
	}
	if fk.OnUpdate != "" {
		stmt += fmt.Sprintf("->onUpdate(%s)", q(fk.OnUpdate))
	}
	return stmt + ";"
}

// tableBlock wraps statements in a Schema::table closure.
func tableBlock(table string, lines []string) string {
	return closure("Schema::table", table, lines)
}

func closure(call, table string, lines []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(%s, function (Blueprint $table) {\n", call, q(table))
	for _, l := range lines {
		b.WriteString("    ")
		b.WriteString(l)
		b.WriteString("\n")
	}
	b.WriteString("});")
	return b.String()
}

func q(s string) string { return stub.QuoteString(s) }

func quoteList(ss []string) string {
	quoted := make([]string, len(ss))
	for i, s := range ss {
		quoted[i] = q(s)
	}
	return strings.Join(quoted, ", ")
}

func reverseStrings(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
