package cmd

import (
	"fmt"
	"log"

	"abyss-screener/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

func getDSN(dbConfig config.Database) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.DBName,
		dbConfig.SSLMode)
}

func newMigrator() *migrate.Migrate {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	m, err := migrate.New("file://migrations", getDSN(cfg.DB))
	if err != nil {
		log.Fatalf("Failed to create migration instance: %v", err)
	}
	return m
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		log.Printf("Migration source error on close: %v\n", srcErr)
	}
	if dbErr != nil {
		log.Printf("Migration database error on close: %v\n", dbErr)
	}
}

func runMigrations(direction string) {
	m := newMigrator()

	var migrationErr error
	var doneMsg string
	switch direction {
	case "up":
		migrationErr = m.Up()
		doneMsg = "Applied migrations successfully."
	case "down":
		migrationErr = m.Steps(-1)
		doneMsg = "Reverted last migration successfully."
	}

	if migrationErr == migrate.ErrNoChange {
		doneMsg = "No pending migrations."
	} else if migrationErr != nil {
		log.Fatalf("Migration failed: %v", migrationErr)
	}
	fmt.Println(doneMsg)

	closeMigrator(m)
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all available database migrations",
	Run: func(cmd *cobra.Command, args []string) {
		runMigrations("up")
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert the last database migration",
	Run: func(cmd *cobra.Command, args []string) {
		runMigrations("down")
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the current schema version",
	Run: func(cmd *cobra.Command, args []string) {
		m := newMigrator()

		version, dirty, err := m.Version()
		switch {
		case err == migrate.ErrNilVersion:
			fmt.Println("No migrations applied yet.")
		case err != nil:
			log.Fatalf("Failed to read schema version: %v", err)
		case dirty:
			fmt.Printf("Schema version %d (dirty, resolve before migrating further)\n", version)
		default:
			fmt.Printf("Schema version %d\n", version)
		}

		closeMigrator(m)
	},
}

var migrateCmd = &cobra.Command{
	Use: "migrate",
}

func init() {
	migrateCmd.AddCommand(upCmd)
	migrateCmd.AddCommand(downCmd)
	migrateCmd.AddCommand(versionCmd)
}
