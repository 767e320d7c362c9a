package generator

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulobunga/parkman/diff"
	"github.com/paulobunga/parkman/schema"
	"github.com/paulobunga/parkman/stub"
)

// MigrationTimeFormat sorts lexically in creation order.
const MigrationTimeFormat = "2006_01_02_150405"

// MigrationFilename names a migration created at t for the given purpose,
// e.g. 2024_05_01_093000_create_tables_from_schema.php.
func MigrationFilename(t time.Time, purpose string) string {
	return fmt.Sprintf("%s_%s.php", t.Format(MigrationTimeFormat), purpose)
}

// migration builds the combined migration of one run. ok is false when
// there is nothing to create or alter.
func (g *Generator) migration(s schema.Schema, models []schema.Model, in Input) (Artifact, bool, error) {
	pairs, creates := MigrationPlan(s, models, in.ExistingTables)
	pairs = append(pairs, Plan(in.Operations)...)
	if len(pairs) == 0 {
		return Artifact{}, false, nil
	}

	up := make([]string, len(pairs))
	down := make([]string, len(pairs))
	for i, p := range pairs {
		up[i] = p.Up
		down[len(pairs)-1-i] = p.Down
	}

	content, err := g.engine.Render("migration", map[string]stub.Value{
		"up":   stub.Text(indentBlocks(up, 8)),
		"down": stub.Text(indentBlocks(down, 8)),
	})
	if err != nil {
		return Artifact{}, false, err
	}

	purpose := "update_tables_from_schema"
	if creates > 0 {
		purpose = "create_tables_from_schema"
	}
	return Artifact{
		Kind:    Migrations,
		Path:    filepath.Join(g.cfg.Paths.Migrations, MigrationFilename(g.now(), purpose)),
		Content: content,
	}, true, nil
}

// MigrationPlan returns the create/drop pairs for models, already in
// dependency order, skipping tables in existing. A foreign key whose target
// table is created later in the run (a relation cycle) is split out into an
// ADD_FOREIGN_KEY pair after all creates. creates counts the tables created.
func MigrationPlan(s schema.Schema, models []schema.Model, existing map[string]bool) (pairs []StatementPair, creates int) {
	created := map[string]bool{}
	var deferred []diff.Operation

	for _, m := range models {
		table := m.Table()
		if existing[table] {
			continue
		}

		var lines []string
		for _, f := range m.Scalars() {
			lines = append(lines, columnStatement(*diff.ColumnFromField(s, f)))
		}
		lines = append(lines, compositeStatements(m)...)

		for _, fk := range diff.ForeignKeys(s, m) {
			if fk.On == table || created[fk.On] || existing[fk.On] {
				lines = append(lines, foreignStatement(fk))
				continue
			}
			deferred = append(deferred, diff.Operation{
				Type:       diff.AddForeignKey,
				Table:      table,
				ForeignKey: &fk,
			})
		}

		created[table] = true
		creates++
		pairs = append(pairs, StatementPair{
			Up:   closure("Schema::create", table, lines),
			Down: fmt.Sprintf("Schema::dropIfExists(%s);", q(table)),
		})
	}

	return append(pairs, Plan(deferred)...), creates
}

// compositeStatements renders @@id, @@unique and @@index declarations.
// Declarations without a bracketed field list are ignored.
func compositeStatements(m schema.Model) []string {
	var lines []string
	for _, c := range []struct {
		kind   schema.AttributeKind
		method string
	}{
		{schema.AttrID, "primary"},
		{schema.AttrUnique, "unique"},
		{schema.AttrIndex, "index"},
	} {
		for _, a := range m.ModelAttributes(c.kind) {
			fields := a.FieldList()
			if len(fields) == 0 {
				continue
			}
			cols := make([]string, len(fields))
			for i, name := range fields {
				cols[i] = name
				if f, ok := m.Field(name); ok {
					cols[i] = f.Column()
				}
			}
			lines = append(lines, fmt.Sprintf("$table->%s([%s]);", c.method, quoteList(cols)))
		}
	}
	return lines
}

// indentBlocks indents every non-empty line by n spaces and separates the
// blocks with a blank line.
func indentBlocks(blocks []string, n int) string {
	pad := strings.Repeat(" ", n)
	out := make([]string, len(blocks))
	for i, b := range blocks {
		lines := strings.Split(b, "\n")
		for j, l := range lines {
			if l != "" {
				lines[j] = pad + l
			}
		}
		out[i] = strings.Join(lines, "\n")
	}
	return strings.Join(out, "\n\n")
}
