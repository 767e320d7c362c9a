package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/paulobunga/parkman/config"
	"github.com/paulobunga/parkman/database"
	"github.com/paulobunga/parkman/introspect"
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "parkman",
	Short: "Generate Laravel migrations, models and scaffolding from a Prisma-style schema",
	Long: `parkman reads a schema.prisma file and writes Laravel artifacts from it.

Examples:

  parkman init
  parkman validate
  parkman generate all
  parkman generate models migrations --dry-run
`,
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

// Register subcommands
func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultFile, "Configuration file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(healthCmd)
}

func loadConfig() config.Config {
	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Println("❌ Loading configuration:", err)
		os.Exit(1)
	}
	return cfg
}

// existingTables introspects the configured database.
func existingTables(cfg config.Config, timeout time.Duration) ([]introspect.ExistingTable, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, dialect, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return introspect.Tables(ctx, db, dialect)
}
