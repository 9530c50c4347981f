package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/killallgit/parable-studio/internal/database"
	"github.com/killallgit/parable-studio/internal/models"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Manage the Parable Studio database schema.

The schema is derived from the pipeline models, so migrations only ever add
tables, columns and indexes. serve applies them on startup as well.

Available subcommands:
  up      - Create or extend every pipeline table
  status  - Show which pipeline tables exist`,
}

// migrateUpCmd applies the schema
var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply the current schema",
	Long: `Apply the current schema to the configured database.

Missing tables are created and existing tables gain any new columns and
indexes. Existing data is never dropped.`,
	RunE: runMigrateUp,
}

// migrateStatusCmd shows migration status
var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Long: `Display the current status of the database schema.

Each pipeline table is listed as present or missing.`,
	RunE: runMigrateStatus,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)

	migrateCmd.PersistentFlags().Bool("dry-run", false, "show what would be done without making changes")
}

// tableStatus reports whether one model's table exists
type tableStatus struct {
	Table   string
	Present bool
}

func schemaStatus(db *gorm.DB) ([]tableStatus, error) {
	var out []tableStatus
	for _, model := range models.All() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("failed to parse model %T: %w", model, err)
		}
		out = append(out, tableStatus{
			Table:   stmt.Schema.Table,
			Present: db.Migrator().HasTable(model),
		})
	}
	return out, nil
}

func printStatus(out io.Writer, statuses []tableStatus) {
	fmt.Fprintln(out, "Database Schema Status")
	fmt.Fprintln(out, strings.Repeat("=", 50))
	missing := 0
	for _, s := range statuses {
		state := "present"
		if !s.Present {
			state = "missing"
			missing++
		}
		fmt.Fprintf(out, "  %-30s %s\n", s.Table, state)
	}
	fmt.Fprintln(out, strings.Repeat("-", 50))
	fmt.Fprintf(out, "%d of %d tables missing\n", missing, len(statuses))
}

func openDatabase() (*database.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return database.Initialize(cfg.Database)
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	if dryRun {
		fmt.Fprintln(out, "Dry run mode - no changes will be made")
		statuses, err := schemaStatus(db.DB)
		if err != nil {
			return err
		}
		printStatus(out, statuses)
		return nil
	}

	if err := db.Migrate(); err != nil {
		return err
	}
	fmt.Fprintln(out, "Schema is up to date")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	statuses, err := schemaStatus(db.DB)
	if err != nil {
		return err
	}
	printStatus(cmd.OutOrStdout(), statuses)
	return nil
}
