package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/zulandar/liveagent/internal/db"
	"github.com/zulandar/liveagent/internal/validate"
)

var errValidationFailed = errors.New("validation failed")

func newValidateCmd() *cobra.Command {
	var (
		configPath string
		database   bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that the models declare every required column",
		Long: `Compares each model's columns with the columns the schema requires and
prints a report. Exits non-zero when any column is missing.

With --database, the migrated tables in the configured database are checked
as well.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			entities := validate.DefaultEntities()
			results := validate.CheckAll(entities)

			if database {
				_, gormDB, err := connectFromConfig(configPath)
				if err != nil {
					return err
				}
				defer db.Close(gormDB)
				for _, e := range entities {
					results = append(results, validate.CheckDatabase(gormDB, e))
				}
			}

			if !validate.Report(cmd.OutOrStdout(), results) {
				return errValidationFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to liveagent config file (used with --database)")
	cmd.Flags().BoolVar(&database, "database", false, "also check the migrated tables")
	return cmd
}
