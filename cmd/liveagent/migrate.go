package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/liveagent/internal/db"
	"github.com/zulandar/liveagent/internal/migrate"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Schema migration commands",
		Long: `Applies and reverts the versioned schema migrations.

Migrations form a chain: 002_create_messages requires 001_create_sessions.
Applied versions are recorded in the schema_migrations table.`,
	}

	cmd.AddCommand(newMigrateUpCmd())
	cmd.AddCommand(newMigrateDownCmd())
	cmd.AddCommand(newMigrateApplyCmd())
	cmd.AddCommand(newMigrateStatusCmd())
	return cmd
}

// withRunner loads config, connects and hands fn a migration runner.
func withRunner(cmd *cobra.Command, configPath string, fn func(*migrate.Runner) error) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	runner, err := newRunner(cmd, cfg, gormDB)
	if err != nil {
		return err
	}
	return fn(runner)
}

func newMigrateUpCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(cmd, configPath, func(r *migrate.Runner) error {
				applied, err := r.Up(cmd.Context())
				printIDs(cmd, "Applied", applied)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to liveagent config file")
	return cmd
}

func newMigrateDownCmd() *cobra.Command {
	var (
		configPath string
		steps      int
		to         string
		all        bool
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Revert applied migrations",
		Long: `Reverts applied migrations, newest first.

By default reverts the latest migration. --steps reverts that many, --to
reverts everything applied after the given migration, and --all reverts
every migration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all && to != "" {
				return fmt.Errorf("--all and --to are mutually exclusive")
			}
			if (all || to != "") && cmd.Flags().Changed("steps") {
				return fmt.Errorf("--steps cannot be combined with --all or --to")
			}
			return withRunner(cmd, configPath, func(r *migrate.Runner) error {
				ok, err := confirmDestructive(cmd, "Reverting migrations drops their tables and all rows in them.", yes)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}

				var reverted []string
				switch {
				case all:
					reverted, err = r.Reset(cmd.Context())
				case to != "":
					reverted, err = r.DownTo(cmd.Context(), to)
				default:
					reverted, err = r.Down(cmd.Context(), steps)
				}
				printIDs(cmd, "Reverted", reverted)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to liveagent config file")
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to revert")
	cmd.Flags().StringVar(&to, "to", "", "revert every migration applied after this one")
	cmd.Flags().BoolVar(&all, "all", false, "revert every applied migration")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func newMigrateApplyCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "apply <migration>",
		Short: "Apply a single migration",
		Long:  "Applies one migration by full ID or number (e.g. 002). Its required migration must already be applied.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(cmd, configPath, func(r *migrate.Runner) error {
				if err := r.Apply(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to liveagent config file")
	return cmd
}

func newMigrateStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which migrations are applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(cmd, configPath, func(r *migrate.Runner) error {
				states, err := r.Status(cmd.Context())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "MIGRATION\tSTATUS\tAPPLIED AT\tDESCRIPTION")
				for _, st := range states {
					status, at := "pending", "-"
					if st.Applied {
						status = "applied"
						at = st.AppliedAt.Local().Format(time.DateTime)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", st.Migration.ID, status, at, st.Migration.Description)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to liveagent config file")
	return cmd
}

func printIDs(cmd *cobra.Command, verb string, ids []string) {
	out := cmd.OutOrStdout()
	if len(ids) == 0 {
		fmt.Fprintf(out, "%s 0 migrations; nothing to do\n", verb)
		return
	}
	fmt.Fprintf(out, "%s %d migrations\n", verb, len(ids))
	for _, id := range ids {
		fmt.Fprintf(out, "  %s\n", id)
	}
}
