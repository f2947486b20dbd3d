package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/zulandar/liveagent/internal/migrate"
)

func TestMigrateCmd_Help(t *testing.T) {
	out := mustRun(t, "migrate", "--help")
	for _, sub := range []string{"up", "down", "apply", "status"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help to list %q subcommand, got: %s", sub, out)
		}
	}
}

func TestMigrateStatus_Pending(t *testing.T) {
	cfg := writeSQLiteConfig(t)
	out := mustRun(t, "migrate", "status", "-c", cfg)
	if !strings.Contains(out, "MIGRATION") || !strings.Contains(out, "DESCRIPTION") {
		t.Errorf("expected table header, got: %s", out)
	}
	if n := strings.Count(out, "pending"); n != 2 {
		t.Errorf("expected 2 pending migrations, got %d:\n%s", n, out)
	}
}

func TestMigrateUpAndDown(t *testing.T) {
	cfg := writeSQLiteConfig(t)

	out := mustRun(t, "migrate", "up", "-c", cfg)
	if !strings.Contains(out, "Applied 2 migrations") {
		t.Errorf("up output: %s", out)
	}
	out = mustRun(t, "migrate", "status", "-c", cfg)
	if n := strings.Count(out, "applied"); n != 2 {
		t.Errorf("expected 2 applied migrations, got %d:\n%s", n, out)
	}

	out = mustRun(t, "migrate", "down", "-c", cfg, "--yes")
	if !strings.Contains(out, "Reverted 1 migrations") || !strings.Contains(out, "002_create_messages") {
		t.Errorf("down output: %s", out)
	}

	out = mustRun(t, "migrate", "status", "-c", cfg)
	if !strings.Contains(out, "001_create_sessions  applied") {
		t.Errorf("001 should still be applied:\n%s", out)
	}

	out = mustRun(t, "migrate", "down", "-c", cfg, "--all", "--yes")
	if !strings.Contains(out, "Reverted 1 migrations") || !strings.Contains(out, "001_create_sessions") {
		t.Errorf("down --all output: %s", out)
	}

	out = mustRun(t, "migrate", "down", "-c", cfg, "--yes")
	if !strings.Contains(out, "nothing to do") {
		t.Errorf("down on empty schema should do nothing: %s", out)
	}
}

func TestMigrateDown_To(t *testing.T) {
	cfg := writeSQLiteConfig(t)
	mustRun(t, "migrate", "up", "-c", cfg)

	out := mustRun(t, "migrate", "down", "-c", cfg, "--to", "001", "--yes")
	if !strings.Contains(out, "Reverted 1 migrations") {
		t.Errorf("down --to output: %s", out)
	}
}

func TestMigrateDown_FlagConflicts(t *testing.T) {
	cfg := writeSQLiteConfig(t)
	tests := [][]string{
		{"migrate", "down", "-c", cfg, "--all", "--to", "001", "--yes"},
		{"migrate", "down", "-c", cfg, "--all", "--steps", "2", "--yes"},
	}
	for _, args := range tests {
		if _, err := runCmd(t, args...); err == nil {
			t.Errorf("%v: expected flag conflict error", args)
		}
	}
}

func TestMigrateDown_RequiresYesWithoutTerminal(t *testing.T) {
	cfg := writeSQLiteConfig(t)
	mustRun(t, "migrate", "up", "-c", cfg)

	if _, err := runCmd(t, "migrate", "down", "-c", cfg); err == nil {
		t.Fatal("expected down without --yes to fail on a non-terminal stdin")
	}
	out := mustRun(t, "migrate", "status", "-c", cfg)
	if n := strings.Count(out, "applied"); n != 2 {
		t.Errorf("refused down must not revert anything:\n%s", out)
	}
}

func TestMigrateApply_RequiresDependency(t *testing.T) {
	cfg := writeSQLiteConfig(t)

	_, err := runCmd(t, "migrate", "apply", "-c", cfg, "002")
	if !errors.Is(err, migrate.ErrDependencyNotApplied) {
		t.Fatalf("apply 002 first: err = %v, want ErrDependencyNotApplied", err)
	}

	out := mustRun(t, "migrate", "apply", "-c", cfg, "001")
	if !strings.Contains(out, "Applied 001") {
		t.Errorf("apply output: %s", out)
	}
	mustRun(t, "migrate", "apply", "-c", cfg, "002_create_messages")

	_, err = runCmd(t, "migrate", "apply", "-c", cfg, "002")
	if !errors.Is(err, migrate.ErrAlreadyApplied) {
		t.Errorf("re-apply: err = %v, want ErrAlreadyApplied", err)
	}
}

func TestMigrateApply_Unknown(t *testing.T) {
	cfg := writeSQLiteConfig(t)
	_, err := runCmd(t, "migrate", "apply", "-c", cfg, "999")
	if !errors.Is(err, migrate.ErrUnknownMigration) {
		t.Errorf("err = %v, want ErrUnknownMigration", err)
	}
}
