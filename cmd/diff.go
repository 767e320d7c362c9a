package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/paulobunga/parkman/diff"
	"github.com/paulobunga/parkman/generator"
	"github.com/paulobunga/parkman/loader"
	"github.com/spf13/cobra"
)

var (
	diffSchemaFile string
	diffVisual     bool
	diffPHP        bool
	diffSave       string
	diffTimeout    time.Duration
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show differences between schema and database",
	Long: `Show the column and foreign key changes needed to bring existing tables
in line with schema.prisma. Tables that do not exist yet are not listed;
generate migrations creates them.

Examples:
  parkman diff                       # Show differences in text format
  parkman diff --visual              # Show differences in tree format with colors
  parkman diff --php                 # Show the Schema builder statements
  parkman diff --save operations.yaml  # Write the changes as an operations file
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		schemaFile := diffSchemaFile
		if schemaFile == "" {
			schemaFile = cfg.Schema
		}
		s, err := loader.LoadSchema(schemaFile)
		if err != nil {
			fmt.Printf("❌ Failed to load schema: %v\n", err)
			os.Exit(1)
		}

		if cfg.DatabaseURL == "" {
			fmt.Println("❌ DATABASE_URL is not set")
			os.Exit(1)
		}
		existing, err := existingTables(cfg, diffTimeout)
		if err != nil {
			fmt.Printf("❌ Failed to introspect database: %v\n", err)
			os.Exit(1)
		}

		operations := diff.DiffTables(s, existing)
		if len(operations) == 0 {
			color.Green("✅ No changes detected. Database is up to date!")
			return
		}

		switch {
		case diffPHP:
			showPHPDiff(operations)
		case diffVisual:
			showVisualDiff(operations)
		default:
			showTextDiff(operations)
		}

		if diffSave != "" {
			data, err := loader.MarshalOperations(operations)
			if err != nil {
				fmt.Printf("❌ Failed to encode operations: %v\n", err)
				os.Exit(1)
			}
			if err := os.WriteFile(diffSave, data, 0o644); err != nil {
				fmt.Printf("❌ Failed to write %s: %v\n", diffSave, err)
				os.Exit(1)
			}
			fmt.Printf("\n💾 Operations written to %s\n", diffSave)
		}
	},
}

func showVisualDiff(operations []diff.Operation) {
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	blue := color.New(color.FgBlue, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)

	fmt.Println("🔍 Schema Changes")
	fmt.Println(strings.Repeat("=", 50))

	for _, op := range operations {
		switch op.Type {
		case diff.AlterTable:
			yellow.Printf("  ⚡ MODIFY %s\n", op.Table)
			for _, alt := range op.Alterations {
				switch alt.Type {
				case diff.AddColumn:
					green.Printf("    ➕ ADD %s\n", describeColumn(alt.Column))
				case diff.DropColumn:
					red.Printf("    ❌ DROP %s\n", alt.Name)
				case diff.RenameColumn:
					blue.Printf("    🔄 RENAME %s → %s\n", alt.From, alt.To)
				}
			}
		case diff.RenameTable:
			blue.Printf("  🔄 RENAME %s → %s\n", op.From, op.To)
		case diff.AddForeignKey:
			green.Printf("  🔗 ADD FK %s.%s → %s.%s\n",
				op.Table, op.ForeignKey.Column, op.ForeignKey.On, op.ForeignKey.References)
		case diff.DropForeignKey:
			red.Printf("  🔗 DROP FK %s on %s\n", op.Name, op.Table)
		}
	}
}

func showTextDiff(operations []diff.Operation) {
	fmt.Println("📋 Schema Changes (Text Format)")
	fmt.Println(strings.Repeat("=", 40))

	n := 0
	for _, op := range operations {
		switch op.Type {
		case diff.AlterTable:
			for _, alt := range op.Alterations {
				n++
				switch alt.Type {
				case diff.AddColumn:
					fmt.Printf("%d. ADD COLUMN %s.%s\n", n, op.Table, describeColumn(alt.Column))
				case diff.DropColumn:
					fmt.Printf("%d. DROP COLUMN %s.%s\n", n, op.Table, alt.Name)
				case diff.RenameColumn:
					fmt.Printf("%d. RENAME COLUMN %s.%s TO %s\n", n, op.Table, alt.From, alt.To)
				}
			}
		case diff.RenameTable:
			n++
			fmt.Printf("%d. RENAME TABLE %s TO %s\n", n, op.From, op.To)
		case diff.AddForeignKey:
			n++
			fmt.Printf("%d. ADD FOREIGN KEY %s.%s → %s.%s\n", n,
				op.Table, op.ForeignKey.Column, op.ForeignKey.On, op.ForeignKey.References)
		case diff.DropForeignKey:
			n++
			fmt.Printf("%d. DROP FOREIGN KEY %s\n", n, op.Name)
		}
	}
}

func showPHPDiff(operations []diff.Operation) {
	fmt.Println("⬆️  up():")
	for _, stmt := range generator.Forward(operations) {
		fmt.Println(stmt)
	}
	fmt.Println("\n⬇️  down():")
	for _, stmt := range generator.Reverse(operations) {
		if strings.HasPrefix(stmt, generator.ManualStepPrefix) {
			color.Yellow(stmt)
			continue
		}
		fmt.Println(stmt)
	}
}

func describeColumn(c *diff.Column) string {
	if c == nil {
		return "?"
	}
	desc := c.Name + " (" + c.Type
	if c.List {
		desc += "[]"
	}
	desc += ")"
	if !c.Nullable {
		desc += " NOT NULL"
	}
	if c.Default != nil {
		desc += " DEFAULT " + *c.Default
	}
	return desc
}

func init() {
	diffCmd.Flags().StringVarP(&diffSchemaFile, "schema", "s", "", "Schema file to use (default from config)")
	diffCmd.Flags().BoolVarP(&diffVisual, "visual", "v", false, "Show changes in visual tree format")
	diffCmd.Flags().BoolVar(&diffPHP, "php", false, "Show the Schema builder statements for up() and down()")
	diffCmd.Flags().StringVar(&diffSave, "save", "", "Write the changes to an operations YAML file")
	diffCmd.Flags().DurationVarP(&diffTimeout, "timeout", "t", 10*time.Second, "Database introspection timeout")
}
