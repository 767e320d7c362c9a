package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/paulobunga/parkman/database"
	"github.com/paulobunga/parkman/introspect"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database connectivity",
	Long: `Check that DATABASE_URL is reachable, as used by 'generate --database'
and 'diff'. Postgres, MySQL and SQLite URLs are accepted.

Examples:
  parkman health                    # Check default database connection
  parkman health --timeout 10s      # Set custom timeout
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := checkDatabaseHealth(); err != nil {
			fmt.Printf("❌ Database health check failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("✅ Database is healthy and accessible")
	},
}

var healthTimeout time.Duration

func init() {
	healthCmd.Flags().DurationVarP(&healthTimeout, "timeout", "t", 5*time.Second, "Timeout for health check")
}

func checkDatabaseHealth() error {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()

	db, dialect, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer database.ClosePool()
	defer db.Close()

	tables, err := introspect.TableNames(ctx, db, dialect)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	fmt.Printf("🔌 Dialect: %s\n", dialect)
	fmt.Printf("📊 Found %d tables\n", len(tables))
	return nil
}
