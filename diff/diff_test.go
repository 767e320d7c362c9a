package diff

import (
	"testing"

	"github.com/paulobunga/parkman/introspect"
	"github.com/paulobunga/parkman/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const blog = `
model User {
  id    Int    @id @default(autoincrement())
  email String @unique
  name  String? @map("full_name")
  role  String @default("member")
  posts Post[]
}

model Post {
  id       Int  @id @default(autoincrement())
  authorId Int  @map("author_id")
  author   User @relation(fields: [authorId], references: [id], onDelete: Cascade)
}
`

func parse(t *testing.T, src string) schema.Schema {
	t.Helper()
	s, err := schema.Parse(src)
	require.NoError(t, err)
	return s
}

func cols(names ...string) []introspect.ExistingColumn {
	var out []introspect.ExistingColumn
	for _, n := range names {
		out = append(out, introspect.ExistingColumn{ColumnName: n})
	}
	return out
}

func TestDiffTables(t *testing.T) {
	s := parse(t, blog)

	t.Run("new tables are left to the create migration", func(t *testing.T) {
		assert.Empty(t, DiffTables(s, nil))
	})

	t.Run("missing and stale columns", func(t *testing.T) {
		existing := []introspect.ExistingTable{
			{TableName: "users", Columns: cols("id", "email", "phone", "remember_token")},
		}
		ops := DiffTables(s, existing)
		require.Len(t, ops, 1)
		op := ops[0]
		assert.Equal(t, AlterTable, op.Type)
		assert.Equal(t, "users", op.Table)
		require.Len(t, op.Alterations, 3)

		assert.Equal(t, AddColumn, op.Alterations[0].Type)
		assert.Equal(t, "full_name", op.Alterations[0].Column.Name)
		assert.True(t, op.Alterations[0].Column.Nullable)

		assert.Equal(t, AddColumn, op.Alterations[1].Type)
		assert.Equal(t, "role", op.Alterations[1].Column.Name)
		require.NotNil(t, op.Alterations[1].Column.Default)
		assert.Equal(t, `"member"`, *op.Alterations[1].Column.Default)

		assert.Equal(t, DropColumn, op.Alterations[2].Type)
		assert.Equal(t, "phone", op.Alterations[2].Name)
	})

	t.Run("in sync table yields nothing", func(t *testing.T) {
		existing := []introspect.ExistingTable{
			{TableName: "users", Columns: cols("id", "email", "full_name", "role")},
		}
		assert.Empty(t, DiffTables(s, existing))
	})

	t.Run("unconstrained owning column gets a foreign key", func(t *testing.T) {
		existing := []introspect.ExistingTable{
			{TableName: "posts", Columns: cols("id", "author_id")},
		}
		ops := DiffTables(s, existing)
		require.Len(t, ops, 1)
		assert.Equal(t, AddForeignKey, ops[0].Type)
		assert.Equal(t, "posts", ops[0].Table)
		assert.Equal(t, &ForeignKey{
			Column:     "author_id",
			References: "id",
			On:         "users",
			OnDelete:   "cascade",
		}, ops[0].ForeignKey)
	})

	t.Run("existing constraint is kept", func(t *testing.T) {
		existing := []introspect.ExistingTable{{
			TableName:   "posts",
			Columns:     cols("id", "author_id"),
			ForeignKeys: []introspect.ExistingForeignKey{{ColumnName: "author_id"}},
		}}
		assert.Empty(t, DiffTables(s, existing))
	})
}

func TestForeignKeys(t *testing.T) {
	s := parse(t, `
model Membership {
  orgId  Int
  userId Int
  org    Org  @relation(fields: [orgId], references: [id], onUpdate: SetNull)
  user   User @relation("members", fields: [userId], references: [id])
  ghost  Ghost @relation(fields: [orgId], references: [id])
  odd    Org  @relation(fields: [orgId, userId], references: [id])
}
model Org {
  id Int @id
}
model User {
  id Int @id
}
`)
	m, ok := s.Model("Membership")
	require.True(t, ok)

	fks := ForeignKeys(s, m)
	require.Len(t, fks, 2)
	assert.Equal(t, ForeignKey{Column: "orgId", References: "id", On: "orgs", OnUpdate: "set null"}, fks[0])
	assert.Equal(t, ForeignKey{Column: "userId", References: "id", On: "users"}, fks[1])
}

func TestReferentialAction(t *testing.T) {
	tests := map[string]string{
		"":           "",
		"Cascade":    "cascade",
		"SetNull":    "set null",
		"Restrict":   "restrict",
		"NoAction":   "no action",
		"SetDefault": "set default",
		"Weird":      "weird",
	}
	for in, want := range tests {
		assert.Equal(t, want, ReferentialAction(in), in)
	}
}

func TestConstraintName(t *testing.T) {
	assert.Equal(t, "posts_user_id_foreign", ConstraintName("posts", "user_id"))
}

func TestExistingTables(t *testing.T) {
	set := ExistingTables([]introspect.ExistingTable{{TableName: "users"}, {TableName: "posts"}})
	assert.True(t, set["users"])
	assert.True(t, set["posts"])
	assert.False(t, set["tags"])
}
