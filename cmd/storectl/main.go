// Command storectl administers a cleat store deployment: schema
// migrations, demo data, catalog inspection and account roles.
package main

import (
	"fmt"
	"os"

	"cleat-store/internal/config"
	"cleat-store/internal/database"
	"cleat-store/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "storectl",
	Short: "Administer the cleat store",
	Long: `storectl talks directly to the store database using the same
configuration as the API (.env and environment variables).

Available commands:
  migrate  - Apply, roll back or inspect schema migrations
  seed     - Load the demo catalog
  products - Inspect the catalog
  users    - Manage account roles and purge stale sessions`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		var err error
		log, err = logger.New(logger.Options{Env: cfg.Server.Env, Level: cfg.Server.LogLevel, Service: "storectl"})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd, productsCmd, usersCmd)
}

// openDatabase connects using the loaded configuration
func openDatabase() (database.Service, error) {
	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
