package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/zulandar/liveagent/internal/config"
	"github.com/zulandar/liveagent/internal/db"
	"github.com/zulandar/liveagent/internal/migrate"
	"golang.org/x/term"
	"gorm.io/gorm"
)

func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gormDB, nil
}

// newLogger writes human-readable logs to the command's stderr. The
// --log-level flag wins over the configured level.
func newLogger(cmd *cobra.Command, cfg *config.Config) zerolog.Logger {
	level := cfg.Log.Level
	if f := cmd.Flag("log-level"); f != nil && f.Value.String() != "" {
		level = f.Value.String()
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	w := zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen, NoColor: !isTerminal(cmd.ErrOrStderr())}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func newRunner(cmd *cobra.Command, cfg *config.Config, gormDB *gorm.DB) (*migrate.Runner, error) {
	return migrate.NewRunner(gormDB, migrate.WithLogger(newLogger(cmd, cfg)))
}

// isTerminal reports whether f is an interactive terminal. Tests replace it.
var isTerminal = func(f interface{}) bool {
	file, ok := f.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// confirmDestructive asks for a typed "yes" before a destructive action.
// Without a terminal on stdin the action requires --yes.
func confirmDestructive(cmd *cobra.Command, warning string, skip bool) (bool, error) {
	if skip {
		return true, nil
	}
	if !isTerminal(cmd.InOrStdin()) {
		return false, fmt.Errorf("refusing to continue without confirmation: stdin is not a terminal, pass --yes")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "WARNING: %s\n", warning)
	fmt.Fprintln(out, "This action cannot be undone.")
	fmt.Fprintln(out)
	fmt.Fprint(out, "Type \"yes\" to confirm: ")
	return readYes(cmd.InOrStdin()), nil
}

func readYes(in io.Reader) bool {
	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()) == "yes"
	}
	return false
}
