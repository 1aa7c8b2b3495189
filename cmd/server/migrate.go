package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gorm.io/gorm/logger"

	"github.com/battle-arena/internal/config"
	"github.com/battle-arena/internal/migrations"
	"github.com/battle-arena/internal/repository"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Apply pending schema migrations. PostgreSQL uses the embedded
versioned migrations; sqlite falls back to model auto-migration.`,
		RunE: runMigrate,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied migrations",
		RunE:  runMigrateStatus,
	})
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("path", configFile).Wrap(err)
	}

	cmd.Println("Connecting to database...")
	db, err := repository.Open(cfg.Database, logger.Default.LogMode(logger.Warn))
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	cmd.Println("Running migrations...")
	if cfg.Database.Driver == "sqlite" {
		err = repository.AutoMigrate(db)
	} else {
		err = migrations.Up(cmd.Context(), sqlDB)
	}
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("path", configFile).Wrap(err)
	}
	if cfg.Database.Driver == "sqlite" {
		return oops.Code("UNSUPPORTED").Errorf("migration status is only tracked for postgres")
	}

	db, err := repository.Open(cfg.Database, logger.Default.LogMode(logger.Warn))
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return migrations.Status(cmd.Context(), sqlDB)
}
