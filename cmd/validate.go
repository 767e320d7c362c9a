package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/paulobunga/parkman/loader"
	"github.com/paulobunga/parkman/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Report schema problems that generation would silently work around",
	Long: `Validate the schema and, optionally, an operations file.

Generation never fails on these; it skips unparsable lines, falls back to
String for unknown types and infers hasOne for unmarked relations. This
command lists each of those cases:
- Lines that were not understood
- Duplicate names and tables, invalid identifiers
- Relations to undeclared models, bad @relation fields/references
- Models without a primary key, composite attributes naming unknown fields
- Enum defaults that are not enum members
- Operations that are unknown or cannot be rolled back
- Tables that already exist (when DATABASE_URL is set)

Examples:
  parkman validate                        # Validate schema.prisma (offline)
  parkman validate --schema app.prisma    # Validate another schema file
  parkman validate --operations ops.yaml  # Also check an operations file
  parkman validate --format json          # Output validation results as JSON
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := validateSchema(); err != nil {
			fmt.Printf("❌ Schema validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

var (
	validateSchemaFile     string
	validateOperationsFile string
	validateFormat         string
)

func init() {
	validateCmd.Flags().StringVarP(&validateSchemaFile, "schema", "s", "", "Schema file to validate (default from config)")
	validateCmd.Flags().StringVarP(&validateOperationsFile, "operations", "o", "", "Operations file to validate")
	validateCmd.Flags().StringVarP(&validateFormat, "format", "f", "text", "Output format (text, json)")
}

func validateSchema() error {
	cfg := loadConfig()

	schemaFile := validateSchemaFile
	if schemaFile == "" {
		schemaFile = cfg.Schema
	}
	s, err := loader.LoadSchema(schemaFile)
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}

	var result *validator.ValidationResult
	if cfg.DatabaseURL == "" {
		result = validator.Validate(s)
	} else {
		existing, err := existingTables(cfg, 10*time.Second)
		if err != nil {
			return fmt.Errorf("failed to introspect database: %w", err)
		}
		result = validator.ValidateWithTables(s, existing)
	}

	operationsFile := validateOperationsFile
	if operationsFile == "" {
		operationsFile = cfg.Operations
	}
	if operationsFile != "" {
		ops, err := loader.LoadOperations(operationsFile)
		if err != nil {
			return fmt.Errorf("failed to load operations: %w", err)
		}
		opsResult := validator.ValidateOperations(ops)
		result.Errors = append(result.Errors, opsResult.Errors...)
		result.Warnings = append(result.Warnings, opsResult.Warnings...)
		result.Info = append(result.Info, opsResult.Info...)
		result.Valid = len(result.Errors) == 0
	}

	if validateFormat == "json" {
		return outputJSON(result)
	}
	outputText(result)
	if !result.Valid {
		os.Exit(1)
	}
	return nil
}

func outputJSON(result *validator.ValidationResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputText(result *validator.ValidationResult) {
	// Print summary
	if result.Valid {
		color.Green("✅ Schema validation passed!")
	} else {
		color.Red("❌ Schema validation failed!")
	}

	printFindings("🔴 Errors", result.Errors)
	printFindings("🟡 Warnings", result.Warnings)
	printFindings("🔵 Info", result.Info)

	fmt.Printf("\n📊 Summary:\n")
	fmt.Printf("  • Errors: %d\n", len(result.Errors))
	fmt.Printf("  • Warnings: %d\n", len(result.Warnings))
	fmt.Printf("  • Info: %d\n", len(result.Info))

	if result.Valid {
		fmt.Printf("\n🎉 Your schema is valid and ready for generation!\n")
	} else {
		fmt.Printf("\n💡 Fix the errors above before generating.\n")
	}
}

func printFindings(heading string, findings []validator.ValidationError) {
	if len(findings) == 0 {
		return
	}
	fmt.Printf("\n%s (%d):\n", heading, len(findings))
	for i, f := range findings {
		fmt.Printf("  %d. ", i+1)
		if f.Model != "" {
			fmt.Printf("[%s]", f.Model)
		}
		if f.Field != "" {
			fmt.Printf(".%s", f.Field)
		}
		if f.Line > 0 {
			fmt.Printf(" (line %d)", f.Line)
		}
		fmt.Printf(": %s\n", f.Message)
	}
}
