package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/liveagent/internal/config"
	"github.com/zulandar/liveagent/internal/db"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBResetCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the liveagent database",
		Long:  "Creates the database (server drivers only) and applies every pending migration.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to liveagent config file")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fmt.Fprintf(out, "Loaded %s config from %s\n", cfg.Database.Driver, configPath)

	if cfg.Database.Driver != config.DriverSQLite {
		adminDB, err := db.ConnectAdmin(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close(adminDB)
		if err := db.CreateDatabase(adminDB, cfg.Database.Name); err != nil {
			return err
		}
		fmt.Fprintf(out, "Database %s ready\n", cfg.Database.Name)
	}

	return migrateAll(cmd, cfg, "\nLiveagent database initialized successfully.")
}

func newDBResetCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and re-initialize the liveagent database",
		Long: `Drops the liveagent database and re-creates it from config.

Server drivers drop and re-create the database itself. SQLite reverts every
applied migration instead. All pending migrations are then applied.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBReset(cmd, configPath, yes)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to liveagent config file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func runDBReset(cmd *cobra.Command, configPath string, skipConfirm bool) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	target := cfg.Database.Name
	if cfg.Database.Driver == config.DriverSQLite {
		target = cfg.Database.Path
	}

	ok, err := confirmDestructive(cmd, fmt.Sprintf("This will permanently delete all data in database %q.", target), skipConfirm)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}

	if cfg.Database.Driver == config.DriverSQLite {
		gormDB, err := db.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close(gormDB)
		runner, err := newRunner(cmd, cfg, gormDB)
		if err != nil {
			return err
		}
		reverted, err := runner.Reset(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Reverted %d migrations\n", len(reverted))
	} else {
		adminDB, err := db.ConnectAdmin(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close(adminDB)
		if err := db.DropDatabase(adminDB, target); err != nil {
			return err
		}
		fmt.Fprintf(out, "Dropped database %s\n", target)
		if err := db.CreateDatabase(adminDB, target); err != nil {
			return err
		}
		fmt.Fprintf(out, "Database %s re-created\n", target)
	}

	return migrateAll(cmd, cfg, "\nLiveagent database reset and re-initialized successfully.")
}

// migrateAll connects to the application database and applies every
// pending migration.
func migrateAll(cmd *cobra.Command, cfg *config.Config, done string) error {
	out := cmd.OutOrStdout()

	gormDB, err := db.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	runner, err := newRunner(cmd, cfg, gormDB)
	if err != nil {
		return err
	}
	applied, err := runner.Up(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Applied %d migrations\n", len(applied))
	for _, id := range applied {
		fmt.Fprintf(out, "  %s\n", id)
	}

	fmt.Fprintln(out, done)
	return nil
}
