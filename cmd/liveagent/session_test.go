package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/zulandar/liveagent/internal/chat"
	"github.com/zulandar/liveagent/internal/models"
)

// migratedConfig returns a config path for a sqlite database with every
// migration applied.
func migratedConfig(t *testing.T) string {
	t.Helper()
	cfg := writeSQLiteConfig(t)
	mustRun(t, "migrate", "up", "-c", cfg)
	return cfg
}

func createSession(t *testing.T, cfg string, extra ...string) string {
	t.Helper()
	args := append([]string{"session", "create", "-c", cfg, "--tenant", "acme.example", "--account", "user-42"}, extra...)
	out := mustRun(t, args...)
	if !strings.HasPrefix(out, "Created session ") {
		t.Fatalf("unexpected create output: %s", out)
	}
	return strings.TrimSpace(strings.TrimPrefix(out, "Created session "))
}

func TestSessionCmd_Help(t *testing.T) {
	out := mustRun(t, "session", "--help")
	for _, sub := range []string{"create", "list", "show", "assign", "status", "delete"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help to list %q subcommand, got: %s", sub, out)
		}
	}
}

func TestSessionCreate_RequiredFlags(t *testing.T) {
	cfg := migratedConfig(t)
	_, err := runCmd(t, "session", "create", "-c", cfg, "--tenant", "acme.example")
	if err == nil {
		t.Fatal("expected error when --account is missing")
	}
	if !strings.Contains(err.Error(), "account") {
		t.Errorf("error = %q, want to mention account", err)
	}
}

func TestSessionCreateAndShow(t *testing.T) {
	cfg := migratedConfig(t)
	id := createSession(t, cfg, "--name", "Ada", "--meta", "channel=web")
	if len(id) != 36 {
		t.Fatalf("session ID %q is not a UUID", id)
	}

	out := mustRun(t, "session", "show", "-c", cfg, id)
	for _, want := range []string{id, "acme.example", "user-42", "Ada", "pending", `"channel"`, "Agent:         -"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected show output to contain %q, got: %s", want, out)
		}
	}
}

func TestSessionShow_NotFound(t *testing.T) {
	cfg := migratedConfig(t)
	_, err := runCmd(t, "session", "show", "-c", cfg, "missing")
	if !errors.Is(err, chat.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionAssignAndList(t *testing.T) {
	cfg := migratedConfig(t)
	a := createSession(t, cfg)
	b := createSession(t, cfg)

	out := mustRun(t, "session", "assign", "-c", cfg, a, "--agent-id", "17", "--agent-name", "Grace")
	if !strings.Contains(out, "Assigned session "+a+" to agent 17") {
		t.Errorf("assign output: %s", out)
	}

	out = mustRun(t, "session", "list", "-c", cfg)
	if !strings.Contains(out, a) || !strings.Contains(out, b) {
		t.Errorf("list should show both sessions, got: %s", out)
	}
	if !strings.Contains(out, "17 (Grace)") {
		t.Errorf("list should show the assigned agent, got: %s", out)
	}

	out = mustRun(t, "session", "list", "-c", cfg, "--agent-id", "17")
	if !strings.Contains(out, a) || strings.Contains(out, b) {
		t.Errorf("--agent-id filter: %s", out)
	}

	out = mustRun(t, "session", "list", "-c", cfg, "--status", models.SessionStatusPending)
	if strings.Contains(out, a) || !strings.Contains(out, b) {
		t.Errorf("--status filter: %s", out)
	}

	out = mustRun(t, "session", "list", "-c", cfg, "--tenant", "nobody.example")
	if !strings.Contains(out, "No sessions found.") {
		t.Errorf("expected empty list, got: %s", out)
	}
}

func TestSessionStatus(t *testing.T) {
	cfg := migratedConfig(t)
	id := createSession(t, cfg)

	out := mustRun(t, "session", "status", "-c", cfg, id, "closed")
	if !strings.Contains(out, "is now closed") {
		t.Errorf("status output: %s", out)
	}

	_, err := runCmd(t, "session", "status", "-c", cfg, id, "archived")
	if !errors.Is(err, chat.ErrInvalidStatus) {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}
}

func TestSessionDelete(t *testing.T) {
	cfg := migratedConfig(t)
	id := createSession(t, cfg)
	mustRun(t, "message", "send", "-c", cfg, id, "--sender", "user", "--text", "hello")

	out := mustRun(t, "session", "delete", "-c", cfg, id)
	if !strings.Contains(out, "Deleted session "+id) {
		t.Errorf("delete output: %s", out)
	}
	out = mustRun(t, "message", "history", "-c", cfg, id)
	if !strings.Contains(out, "No messages.") {
		t.Errorf("messages should be deleted with the session, got: %s", out)
	}

	_, err := runCmd(t, "session", "delete", "-c", cfg, id)
	if !errors.Is(err, chat.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestAgentLabel(t *testing.T) {
	id := 5
	tests := []struct {
		s    models.Session
		want string
	}{
		{models.Session{}, "-"},
		{models.Session{AssignedAgentID: &id}, "5"},
		{models.Session{AssignedAgentID: &id, AssignedAgentName: models.Optional("Grace")}, "5 (Grace)"},
	}
	for _, tt := range tests {
		if got := agentLabel(tt.s); got != tt.want {
			t.Errorf("agentLabel = %q, want %q", got, tt.want)
		}
	}
}
