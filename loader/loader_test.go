package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulobunga/parkman/diff"
	"github.com/paulobunga/parkman/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSchema(t *testing.T) {
	path := writeFile(t, "schema.prisma", `
model User {
  id    Int    @id @default(autoincrement())
  email String @unique
}
`)
	s, err := LoadSchema(path)
	require.NoError(t, err)
	require.Len(t, s.Models, 1)
	assert.Equal(t, "User", s.Models[0].Name)
}

func TestLoadSchemaErrors(t *testing.T) {
	_, err := LoadSchema(filepath.Join(t.TempDir(), "missing.prisma"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := writeFile(t, "schema.prisma", "model User {\n  id Int @id\n")
	_, err = LoadSchema(path)
	assert.ErrorIs(t, err, schema.ErrUnterminatedBlock)
}

func TestLoadOperations(t *testing.T) {
	path := writeFile(t, "operations.yaml", `
operations:
  - type: alter_table
    table: users
    alterations:
      - type: add_column
        column: {name: phone, type: String, nullable: true}
      - type: add_column
        column: {name: status, type: String, default: draft}
      - type: add_column
        column: {name: score, type: Int, default: 0}
      - type: add_column
        column: {name: seen_at, type: DateTime, default: now()}
      - type: drop_column
        name: legacy
      - type: rename_column
        from: fullname
        to: full_name
  - type: rename_table
    from: posts
    to: articles
  - type: add_foreign_key
    table: articles
    foreign_key: {column: user_id, references: id, on: users, on_delete: Cascade}
  - type: drop_foreign_key
    table: articles
    name: articles_editor_id_foreign
  - type: truncate_table
    table: sessions
`)
	ops, err := LoadOperations(path)
	require.NoError(t, err)
	require.Len(t, ops, 5)

	alter := ops[0]
	assert.Equal(t, diff.AlterTable, alter.Type)
	assert.Equal(t, "users", alter.Table)
	require.Len(t, alter.Alterations, 6)

	phone := alter.Alterations[0]
	assert.Equal(t, diff.AddColumn, phone.Type)
	assert.Equal(t, &diff.Column{Name: "phone", Type: "String", Nullable: true}, phone.Column)

	defaults := []string{`"draft"`, "0", "now()"}
	for i, want := range defaults {
		col := alter.Alterations[i+1].Column
		require.NotNil(t, col.Default, col.Name)
		assert.Equal(t, want, *col.Default, col.Name)
	}

	assert.Equal(t, diff.Alteration{Type: diff.DropColumn, Name: "legacy"}, alter.Alterations[4])
	assert.Equal(t, diff.Alteration{Type: diff.RenameColumn, From: "fullname", To: "full_name"}, alter.Alterations[5])

	assert.Equal(t, diff.Operation{Type: diff.RenameTable, From: "posts", To: "articles"}, ops[1])

	assert.Equal(t, diff.AddForeignKey, ops[2].Type)
	assert.Equal(t, &diff.ForeignKey{Column: "user_id", References: "id", On: "users", OnDelete: "cascade"}, ops[2].ForeignKey)

	assert.Equal(t, diff.Operation{Type: diff.DropForeignKey, Table: "articles", Name: "articles_editor_id_foreign"}, ops[3])

	assert.Equal(t, diff.OperationType("truncate_table"), ops[4].Type)
}

func TestParseOperationsInvalid(t *testing.T) {
	_, err := ParseOperations([]byte("operations: {"))
	assert.Error(t, err)

	ops, err := ParseOperations([]byte(""))
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestMarshalOperationsRoundTrip(t *testing.T) {
	def := `"it's \"quoted\""`
	zero := "0"
	now := "now()"
	ops := []diff.Operation{
		{Type: diff.AlterTable, Table: "users", Alterations: []diff.Alteration{
			{Type: diff.AddColumn, Column: &diff.Column{Name: "bio", Type: "String", Nullable: true, Default: &def}},
			{Type: diff.AddColumn, Column: &diff.Column{Name: "score", Type: "Int", Default: &zero}},
			{Type: diff.AddColumn, Column: &diff.Column{Name: "seen_at", Type: "DateTime", Default: &now, UpdatedAt: true}},
			{Type: diff.AddColumn, Column: &diff.Column{Name: "role", Type: "Role", Values: []string{"USER", "ADMIN"}}},
			{Type: diff.AddColumn, Column: &diff.Column{Name: "tags", Type: "String", List: true}},
			{Type: diff.DropColumn, Name: "phone"},
		}},
		{Type: diff.AddForeignKey, Table: "posts", ForeignKey: &diff.ForeignKey{
			Column: "user_id", References: "id", On: "users", OnDelete: "set null",
		}},
	}

	data, err := MarshalOperations(ops)
	require.NoError(t, err)

	back, err := ParseOperations(data)
	require.NoError(t, err)
	assert.Equal(t, ops, back)
}
