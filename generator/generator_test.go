package generator

import (
	"bytes"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/paulobunga/parkman/config"
	"github.com/paulobunga/parkman/diff"
	"github.com/paulobunga/parkman/schema"
	"github.com/paulobunga/parkman/stub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSink struct {
	dirs  []string
	files map[string]string
}

func newMemSink() *memSink {
	return &memSink{files: map[string]string{}}
}

func (s *memSink) EnsureDirectory(path string) error {
	s.dirs = append(s.dirs, path)
	return nil
}

func (s *memSink) WriteText(path, content string) error {
	s.files[path] = content
	return nil
}

func (s *memSink) paths() []string {
	var out []string
	for p := range s.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

var fixedClock = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }

func parse(t *testing.T, src string) *schema.Schema {
	t.Helper()
	s, err := schema.Parse(src)
	require.NoError(t, err)
	return &s
}

func newGenerator(sink FileSink, opts ...Option) *Generator {
	return New(stub.NewEngine(stub.Default()), sink, config.Default(), append([]Option{WithClock(fixedClock)}, opts...)...)
}

const userSchema = `
model User {
  id    Int    @id @default(autoincrement())
  email String @unique
}
`

const blogSchema = `
enum Role {
  ADMIN
  MEMBER
}

model User {
  id        Int      @id @default(autoincrement())
  email     String   @unique
  role      Role     @default(MEMBER)
  age       Int?
  createdAt DateTime @default(now())
  updatedAt DateTime @updatedAt
  posts     Post[]
  profile   Profile?
}

model Profile {
  id     Int    @id @default(autoincrement())
  bio    String
  userId Int    @unique @map("user_id")
  user   User   @relation(fields: [userId], references: [id])
}

model Post {
  id       Int      @id @default(autoincrement())
  title    String
  tags     String[]
  authorId Int      @map("author_id")
  author   User     @relation(fields: [authorId], references: [id], onDelete: Cascade)

  @@index([authorId])
  @@unique([title, authorId])
}
`

func TestGenerateUserExample(t *testing.T) {
	sink := newMemSink()
	kinds, err := ParseKinds([]string{"models", "migrations"})
	require.NoError(t, err)

	arts, err := newGenerator(sink).Generate(Input{Schema: parse(t, userSchema)}, kinds)
	require.NoError(t, err)
	require.Len(t, arts, 2)

	migrationPath := filepath.Join("database", "migrations", "2024_05_01_093000_create_tables_from_schema.php")
	modelPath := filepath.Join("app", "Models", "User.php")
	assert.Equal(t, []string{modelPath, migrationPath}, sink.paths())

	migration := sink.files[migrationPath]
	assert.Contains(t, migration, "Schema::create('users', function (Blueprint $table) {")
	assert.Contains(t, migration, "            $table->id('id');\n")
	assert.Contains(t, migration, "            $table->string('email')->unique();\n")
	assert.Contains(t, migration, "        Schema::dropIfExists('users');")

	model := sink.files[modelPath]
	assert.Contains(t, model, `namespace App\Models;`)
	assert.Contains(t, model, "class User extends Model")
	assert.Contains(t, model, "protected $table = 'users';")
	assert.Contains(t, model, "protected $fillable = ['email'];")
	assert.Contains(t, model, "protected $casts = ['id' => 'integer'];")

	assert.Contains(t, sink.dirs, filepath.Join("app", "Models"))
	assert.Contains(t, sink.dirs, filepath.Join("database", "migrations"))
}

func TestGenerateDefaultsToMigrationsOnly(t *testing.T) {
	kinds, err := ParseKinds(nil)
	require.NoError(t, err)

	sink := newMemSink()
	arts, err := newGenerator(sink).Generate(Input{Schema: parse(t, userSchema)}, kinds)
	require.NoError(t, err)
	require.Len(t, arts, 1)
	assert.Equal(t, Migrations, arts[0].Kind)
	assert.Empty(t, arts[0].Model)
}

func TestGenerateSchemaMissing(t *testing.T) {
	sink := newMemSink()
	_, err := newGenerator(sink).Generate(Input{}, KindSet{Models: true})
	assert.ErrorIs(t, err, ErrSchemaMissing)
	assert.Empty(t, sink.files)
}

func TestGenerateIsDeterministic(t *testing.T) {
	kinds, err := ParseKinds([]string{"all"})
	require.NoError(t, err)
	in := Input{Schema: parse(t, blogSchema)}

	first := newMemSink()
	_, err = newGenerator(first).Generate(in, kinds)
	require.NoError(t, err)

	later := func() time.Time { return fixedClock().Add(time.Hour) }
	second := newMemSink()
	_, err = newGenerator(second, WithClock(later)).Generate(in, kinds)
	require.NoError(t, err)

	require.Len(t, first.files, len(second.files))
	// 3 models x 5 per-model kinds + 1 migration
	assert.Len(t, first.files, 16)

	var firstMigration, secondMigration string
	for path, content := range first.files {
		if strings.Contains(path, "migrations") {
			firstMigration = content
			continue
		}
		assert.Equal(t, content, second.files[path], path)
	}
	for path, content := range second.files {
		if strings.Contains(path, "migrations") {
			secondMigration = content
			assert.Contains(t, path, "2024_05_01_103000_")
		}
	}
	assert.Equal(t, firstMigration, secondMigration)
}

func TestGenerateBlogMigration(t *testing.T) {
	sink := newMemSink()
	arts, err := newGenerator(sink).Generate(Input{Schema: parse(t, blogSchema)}, KindSet{Migrations: true})
	require.NoError(t, err)
	require.Len(t, arts, 1)
	m := arts[0].Content

	users := strings.Index(m, "Schema::create('users'")
	profiles := strings.Index(m, "Schema::create('profiles'")
	posts := strings.Index(m, "Schema::create('posts'")
	require.True(t, users >= 0 && profiles >= 0 && posts >= 0)
	assert.Less(t, users, profiles)
	assert.Less(t, profiles, posts)

	for _, line := range []string{
		"$table->id('id');",
		"$table->string('role')->default('MEMBER');",
		"$table->integer('age')->nullable();",
		"$table->timestamp('createdAt')->useCurrent();",
		"$table->timestamp('updatedAt')->useCurrentOnUpdate();",
		"$table->integer('user_id')->unique();",
		"$table->foreign('user_id')->references('id')->on('users');",
		"$table->json('tags');",
		"$table->foreign('author_id')->references('id')->on('users')->onDelete('cascade');",
		"$table->index(['author_id']);",
		"$table->unique(['title', 'author_id']);",
	} {
		assert.Contains(t, m, line)
	}
	// relation fields have no column
	assert.NotContains(t, m, "$table->string('posts')")
	assert.NotContains(t, m, "'profile'")

	dropPosts := strings.Index(m, "Schema::dropIfExists('posts');")
	dropProfiles := strings.Index(m, "Schema::dropIfExists('profiles');")
	dropUsers := strings.Index(m, "Schema::dropIfExists('users');")
	assert.Less(t, dropPosts, dropProfiles)
	assert.Less(t, dropProfiles, dropUsers)
}

func TestGenerateSkipsExistingTablesAndAppendsOperations(t *testing.T) {
	in := Input{
		Schema:         parse(t, blogSchema),
		ExistingTables: map[string]bool{"users": true, "profiles": true, "posts": true},
		Operations: []diff.Operation{{
			Type:        diff.AlterTable,
			Table:       "users",
			Alterations: []diff.Alteration{{Type: diff.DropColumn, Name: "phone"}},
		}},
	}
	arts, err := newGenerator(newMemSink()).Generate(in, KindSet{Migrations: true})
	require.NoError(t, err)
	require.Len(t, arts, 1)

	assert.Contains(t, arts[0].Path, "2024_05_01_093000_update_tables_from_schema.php")
	assert.NotContains(t, arts[0].Content, "Schema::create")
	assert.Contains(t, arts[0].Content, "$table->dropColumn('phone');")
	assert.Contains(t, arts[0].Content, ManualStepPrefix+"restore column users.phone")

	// nothing left to do: no migration at all
	in.Operations = nil
	arts, err = newGenerator(newMemSink()).Generate(in, KindSet{Migrations: true})
	require.NoError(t, err)
	assert.Empty(t, arts)
}

func TestGenerateMigrationDownMirrorsUp(t *testing.T) {
	in := Input{
		Schema: parse(t, userSchema),
		Operations: []diff.Operation{
			{Type: diff.RenameTable, From: "users", To: "members"},
			{Type: diff.AlterTable, Table: "members", Alterations: []diff.Alteration{
				{Type: diff.RenameColumn, From: "email", To: "mail"},
			}},
		},
	}
	arts, err := newGenerator(newMemSink()).Generate(in, KindSet{Migrations: true})
	require.NoError(t, err)
	require.Len(t, arts, 1)
	content := arts[0].Content

	down := content[strings.Index(content, "function down()"):]
	rename := strings.Index(down, "$table->renameColumn('mail', 'email');")
	table := strings.Index(down, "Schema::rename('members', 'users');")
	drop := strings.Index(down, "Schema::dropIfExists('users');")
	require.True(t, rename >= 0 && table >= 0 && drop >= 0)
	assert.Less(t, rename, table)
	assert.Less(t, table, drop)
}

func TestMigrationPlanDefersCyclicForeignKeys(t *testing.T) {
	s := parse(t, `
model Team {
  id        Int      @id @default(autoincrement())
  captainId Int?
  captain   Player?  @relation("captain", fields: [captainId], references: [id])
  players   Player[] @relation("roster")
}

model Player {
  id        Int   @id @default(autoincrement())
  teamId    Int
  team      Team  @relation("roster", fields: [teamId], references: [id])
  captainOf Team? @relation("captain")
}
`)
	pairs, creates := MigrationPlan(*s, schema.Order(s.Models), nil)
	assert.Equal(t, 2, creates)
	require.Len(t, pairs, 3)

	assert.True(t, strings.HasPrefix(pairs[0].Up, "Schema::create('teams'"))
	assert.NotContains(t, pairs[0].Up, "->foreign(")
	assert.True(t, strings.HasPrefix(pairs[1].Up, "Schema::create('players'"))
	assert.Contains(t, pairs[1].Up, "$table->foreign('teamId')->references('id')->on('teams');")

	assert.Equal(t, "Schema::table('teams', function (Blueprint $table) {\n"+
		"    $table->foreign('captainId')->references('id')->on('players');\n"+
		"});", pairs[2].Up)
	assert.Contains(t, pairs[2].Down, "$table->dropForeign('teams_captainId_foreign');")
}

func TestGenerateEntity(t *testing.T) {
	sink := newMemSink()
	_, err := newGenerator(sink).Generate(Input{Schema: parse(t, blogSchema)}, KindSet{Models: true})
	require.NoError(t, err)

	user := sink.files[filepath.Join("app", "Models", "User.php")]
	assert.Contains(t, user, "protected $fillable = ['email', 'role', 'age', 'createdAt', 'updatedAt'];")
	assert.Contains(t, user, "protected $casts = ['id' => 'integer', 'age' => 'integer', 'createdAt' => 'datetime', 'updatedAt' => 'datetime'];")
	assert.Contains(t, user, "    public function posts()\n    {\n        return $this->hasMany(Post::class, 'author_id');\n    }\n")
	assert.Contains(t, user, "return $this->hasOne(Profile::class, 'user_id');")
	assert.True(t, strings.HasSuffix(user, "    }\n}\n") || strings.HasSuffix(user, "    }\n}"))

	post := sink.files[filepath.Join("app", "Models", "Post.php")]
	assert.Contains(t, post, "return $this->belongsTo(User::class, 'author_id', 'id');")
	assert.Contains(t, post, "'tags' => 'array'")
	assert.Contains(t, post, "protected $fillable = ['title', 'tags', 'author_id'];")
}

func TestGenerateAutoIncrementFieldIsIdentity(t *testing.T) {
	s := parse(t, `
enum Role {
  ADMIN
  MEMBER
}

model Ticket {
  code String @id
  seq  Int    @default(autoincrement())
  role Role   @default(MEMBER)
}
`)
	sink := newMemSink()
	_, err := newGenerator(sink).Generate(Input{Schema: s}, KindSet{Models: true, Migrations: true})
	require.NoError(t, err)

	migration := sink.files[filepath.Join("database", "migrations", "2024_05_01_093000_create_tables_from_schema.php")]
	assert.Contains(t, migration, "$table->id('seq');")
	assert.Contains(t, migration, "$table->string('role')->default('MEMBER');")
	assert.NotContains(t, migration, "$table->enum(")

	model := sink.files[filepath.Join("app", "Models", "Ticket.php")]
	assert.Contains(t, model, "protected $fillable = ['role'];")
	assert.Equal(t, []string{"role"}, Fillable(s.Models[0]))
}

func TestGenerateWithParallelismKeepsOutput(t *testing.T) {
	kinds, err := ParseKinds([]string{"all"})
	require.NoError(t, err)
	in := Input{Schema: parse(t, blogSchema)}

	sequential := newMemSink()
	seqArts, err := newGenerator(sequential).Generate(in, kinds)
	require.NoError(t, err)

	concurrent := newMemSink()
	conArts, err := newGenerator(concurrent, WithParallelism(4)).Generate(in, kinds)
	require.NoError(t, err)

	assert.Equal(t, sequential.files, concurrent.files)
	require.Len(t, conArts, len(seqArts))
	for i := range seqArts {
		assert.Equal(t, seqArts[i].Path, conArts[i].Path)
	}
}

func TestRelationOf(t *testing.T) {
	s := parse(t, `
model A {
  id   Int  @id
  many B[]
  own  B    @relation(fields: [bId], references: [id])
  bId  Int
  one  B?
  named B?  @relation("x")
}
model B {
  id Int @id
}
`)
	a, _ := s.Model("A")
	want := map[string]RelationKind{"many": HasMany, "own": BelongsTo, "one": HasOne, "named": HasOne}
	for name, kind := range want {
		f, ok := a.Field(name)
		require.True(t, ok, name)
		assert.Equal(t, kind, RelationOf(f), name)
	}
}

func TestGenerateScaffolding(t *testing.T) {
	sink := newMemSink()
	kinds := KindSet{Controllers: true, Services: true, Factories: true, Seeders: true}
	_, err := newGenerator(sink).Generate(Input{Schema: parse(t, blogSchema)}, kinds)
	require.NoError(t, err)

	controller := sink.files[filepath.Join("app", "Http", "Controllers", "Api", "PostController.php")]
	assert.Contains(t, controller, `namespace App\Http\Controllers\Api;`)
	assert.Contains(t, controller, `use App\Models\Post;`)
	assert.Contains(t, controller, "class PostController extends Controller")
	assert.Contains(t, controller, "public function show(Post $post)")

	service := sink.files[filepath.Join("app", "Services", "UserService.php")]
	assert.Contains(t, service, "class UserService")
	assert.Contains(t, service, "public function update(User $user, array $attributes): User")

	seeder := sink.files[filepath.Join("database", "seeders", "UserSeeder.php")]
	assert.Contains(t, seeder, `namespace Database\Seeders;`)
	assert.Contains(t, seeder, "User::factory()->count(10)->create();")

	factory := sink.files[filepath.Join("database", "factories", "UserFactory.php")]
	assert.Contains(t, factory, `namespace Database\Factories;`)
	assert.Contains(t, factory, "            'email' => $this->faker->unique()->word(),\n")
	assert.Contains(t, factory, "            'role' => $this->faker->randomElement(['ADMIN', 'MEMBER']),\n")
	assert.Contains(t, factory, "            'age' => $this->faker->randomNumber(),\n")
	assert.NotContains(t, factory, "'id' =>")
	assert.NotContains(t, factory, "'createdAt' =>")
	assert.NotContains(t, factory, "'updatedAt' =>")

	postFactory := sink.files[filepath.Join("database", "factories", "PostFactory.php")]
	assert.Contains(t, postFactory, `'author_id' => \App\Models\User::factory(),`)
	assert.Contains(t, postFactory, "'tags' => [],")
}

func TestGenerateMissingTemplateLeavesKindUnwritten(t *testing.T) {
	def := stub.Default()
	fsys := fstest.MapFS{}
	for _, name := range []string{"model", "migration"} {
		tmpl, err := def.Load(name)
		require.NoError(t, err)
		fsys["stubs/"+name+".stub"] = &fstest.MapFile{Data: []byte(tmpl)}
	}
	engine := stub.NewEngine(stub.NewFSStore(fsys, "stubs"))

	sink := newMemSink()
	g := New(engine, sink, config.Default(), WithClock(fixedClock))
	arts, err := g.Generate(Input{Schema: parse(t, blogSchema)}, KindSet{Models: true, Controllers: true, Seeders: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, stub.ErrTemplateNotFound)

	require.Len(t, arts, 3)
	for _, a := range arts {
		assert.Equal(t, Models, a.Kind)
	}
	for path := range sink.files {
		assert.NotContains(t, path, "Controller")
		assert.NotContains(t, path, "Seeder")
	}
}

func TestGenerateInvalidNamespace(t *testing.T) {
	cfg := config.Default()
	cfg.Namespaces.Models = `App\Models;evil`
	sink := newMemSink()
	g := New(stub.NewEngine(stub.Default()), sink, cfg)
	_, err := g.Generate(Input{Schema: parse(t, userSchema)}, KindSet{Models: true})
	assert.ErrorIs(t, err, stub.ErrInvalidIdent)
	assert.Empty(t, sink.files)
}

func TestParseKinds(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []Kind
	}{
		{"empty", nil, []Kind{Migrations}},
		{"all", []string{"all"}, AllKinds},
		{"singular and comma list", []string{"model,factory"}, []Kind{Models, Factories}},
		{"order is fixed", []string{"seeders", "models"}, []Kind{Models, Seeders}},
		{"blank entries", []string{" , "}, []Kind{Migrations}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := ParseKinds(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, set.Sorted())
		})
	}

	_, err := ParseKinds([]string{"views"})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestMigrationFilename(t *testing.T) {
	assert.Equal(t, "2024_05_01_093000_create_tables_from_schema.php", MigrationFilename(fixedClock(), "create_tables_from_schema"))
	earlier := MigrationFilename(fixedClock().Add(-time.Second), "x")
	assert.Less(t, earlier, MigrationFilename(fixedClock(), "x"))
}

func TestDryRunSink(t *testing.T) {
	var out bytes.Buffer
	sink := DryRunSink{Out: &out}
	_, err := newGenerator(sink).Generate(Input{Schema: parse(t, userSchema)}, KindSet{Models: true})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "==> "+filepath.Join("app", "Models", "User.php")+"\n<?php")
}

func TestDiskSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dir")
	var sink DiskSink
	require.NoError(t, sink.EnsureDirectory(dir))
	require.NoError(t, sink.WriteText(filepath.Join(dir, "a.php"), "<?php"))
}
