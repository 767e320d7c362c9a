package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/paulobunga/parkman/config"
	"github.com/paulobunga/parkman/diff"
	"github.com/paulobunga/parkman/generator"
	"github.com/paulobunga/parkman/loader"
	"github.com/paulobunga/parkman/stub"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	generateSchemaFile     string
	generateOperationsFile string
	generateStubsDir       string
	generateFromDatabase   bool
	dryRunGenerate         bool
	watchGenerate          bool
	generateParallel       int
	generateTimeout        time.Duration
)

func init() {
	generateCmd.Flags().StringVarP(&generateSchemaFile, "schema", "s", "", "Schema file (default from config, schema.prisma)")
	generateCmd.Flags().StringVarP(&generateOperationsFile, "operations", "o", "", "YAML file of alter/rename operations to append to the migration")
	generateCmd.Flags().StringVar(&generateStubsDir, "stubs", "", "Directory of stub overrides (default from config)")
	generateCmd.Flags().BoolVar(&generateFromDatabase, "database", false, "Diff against DATABASE_URL: skip existing tables and alter them instead")
	generateCmd.Flags().BoolVar(&dryRunGenerate, "dry-run", false, "Print the artifacts instead of writing them")
	generateCmd.Flags().BoolVarP(&watchGenerate, "watch", "w", false, "Regenerate whenever the schema or operations file changes")
	generateCmd.Flags().IntVarP(&generateParallel, "parallel", "p", 1, "Render up to this many models of a kind concurrently")
	generateCmd.Flags().DurationVarP(&generateTimeout, "timeout", "t", 10*time.Second, "Timeout for database introspection")
}

var generateCmd = &cobra.Command{
	Use:   "generate [kinds...]",
	Short: "Generate Laravel artifacts from the schema",
	Long: `Generate Laravel artifacts from the schema.

Kinds: models, migrations, controllers, services, factories, seeders, or all.
Without kinds only migrations are generated.

Examples:
  parkman generate                          # migrations only
  parkman generate all                      # everything
  parkman generate models factories         # selected kinds
  parkman generate --operations ops.yaml    # append alter/rename operations
  parkman generate --database               # alter tables that already exist
  parkman generate all --dry-run            # preview without writing
  parkman generate models --watch           # regenerate models on every save
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		kinds, err := generator.ParseKinds(args)
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}

		var watchKinds generator.KindSet
		if watchGenerate {
			watchKinds = withoutMigrations(kinds)
			if len(watchKinds) == 0 {
				fmt.Println("❌ --watch needs a kind other than migrations; each run would add a new migration file")
				os.Exit(1)
			}
		}

		if err := generateOnce(cfg, kinds); err != nil {
			color.Red("❌ %v", err)
			if !watchGenerate {
				os.Exit(1)
			}
		}

		if watchGenerate {
			if err := watchSchema(cfg, watchKinds); err != nil {
				fmt.Println("❌", err)
				os.Exit(1)
			}
		}
	},
}

func schemaPath(cfg config.Config) string {
	if generateSchemaFile != "" {
		return generateSchemaFile
	}
	return cfg.Schema
}

func operationsPath(cfg config.Config) string {
	if generateOperationsFile != "" {
		return generateOperationsFile
	}
	return cfg.Operations
}

// generateOnce runs one full generation with the current flags.
func generateOnce(cfg config.Config, kinds generator.KindSet) error {
	s, err := loader.LoadSchema(schemaPath(cfg))
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}

	in := generator.Input{Schema: &s}

	if operationsFile := operationsPath(cfg); operationsFile != "" {
		ops, err := loader.LoadOperations(operationsFile)
		if err != nil {
			return fmt.Errorf("loading operations: %w", err)
		}
		in.Operations = ops
	}

	if generateFromDatabase {
		existing, err := existingTables(cfg, generateTimeout)
		if err != nil {
			return fmt.Errorf("introspecting database: %w", err)
		}
		in.ExistingTables = diff.ExistingTables(existing)
		in.Operations = append(diff.DiffTables(s, existing), in.Operations...)
	}

	stubsDir := generateStubsDir
	if stubsDir == "" {
		stubsDir = cfg.Stubs
	}
	engine := stub.NewEngine(stub.WithOverrides(stubsDir))

	var sink generator.FileSink = generator.DiskSink{}
	if dryRunGenerate {
		fmt.Println("\n================ DRY RUN: Artifact Preview ================")
		sink = generator.DryRunSink{Out: os.Stdout}
	}

	artifacts, err := generator.New(engine, sink, cfg, generator.WithParallelism(generateParallel)).Generate(in, kinds)
	printArtifacts(artifacts)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	if dryRunGenerate {
		fmt.Println("============================================================")
		fmt.Println("(Dry run only. No files were written.)")
		return nil
	}
	if len(artifacts) == 0 {
		fmt.Println("✅ Nothing to generate.")
		return nil
	}
	color.Green("✅ Generated %d file(s).", len(artifacts))
	return nil
}

func withoutMigrations(kinds generator.KindSet) generator.KindSet {
	out := generator.KindSet{}
	for k, on := range kinds {
		if on && k != generator.Migrations {
			out[k] = true
		}
	}
	return out
}

// watchSchema regenerates kinds whenever the schema or operations file is
// saved, until interrupted.
func watchSchema(cfg config.Config, kinds generator.KindSet) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	watched := map[string]bool{}
	for _, f := range []string{schemaPath(cfg), operationsPath(cfg)} {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		watched[abs] = true
		// editors often replace the file on save, so watch its directory
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watching %s: %w", f, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("\n👀 Watching %s for changes (Ctrl+C to stop)\n", schemaPath(cfg))

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\n👋 Stopped watching")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			abs, _ := filepath.Abs(event.Name)
			if watched[abs] && event.Has(fsnotify.Write|fsnotify.Create) {
				settle = time.After(200 * time.Millisecond)
			}

		case <-settle:
			settle = nil
			fmt.Printf("\n🔄 Change detected, regenerating...\n")
			if err := generateOnce(cfg, kinds); err != nil {
				color.Red("❌ %v", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				settle = time.After(200 * time.Millisecond)
				continue
			}
			color.Yellow("⚠️  Watch error: %v", err)
		}
	}
}

func printArtifacts(artifacts []generator.Artifact) {
	title := cases.Title(language.English)
	var last generator.Kind
	for _, a := range artifacts {
		if a.Kind != last {
			fmt.Printf("\n📁 %s:\n", title.String(string(a.Kind)))
			last = a.Kind
		}
		fmt.Printf("  ➕ %s\n", a.Path)
	}
}
