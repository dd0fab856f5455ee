package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/db"
	"github.com/zulandar/switchboard/internal/roster"
	"gorm.io/gorm"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the Switchboard database",
		Long:  "Migrates the operator and archive tables and seeds operators from config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "switchboard.yaml", "path to Switchboard config file")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to %s database\n", cfg.Database.Driver)

	if _, err := migrateAndSeed(gormDB, cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))
	fmt.Fprintf(out, "Seeded %d operators:", len(cfg.Operators))
	for _, op := range cfg.Operators {
		fmt.Fprintf(out, " %s", op.ID)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "\nSwitchboard database initialized successfully.")
	return nil
}

// connectFromConfig loads the config file and opens its database.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gormDB, nil
}

// migrateAndSeed brings the schema up to date and upserts configured
// operators, returning the roster store over gormDB.
func migrateAndSeed(gormDB *gorm.DB, cfg *config.Config) (*roster.Store, error) {
	if err := db.AutoMigrate(gormDB); err != nil {
		return nil, err
	}
	store, err := roster.NewStore(gormDB)
	if err != nil {
		return nil, err
	}
	if err := db.SeedOperators(store, cfg.Operators); err != nil {
		return nil, err
	}
	return store, nil
}
