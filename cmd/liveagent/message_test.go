package main

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/liveagent/internal/chat"
)

func TestMessageCmd_Help(t *testing.T) {
	out := mustRun(t, "message", "--help")
	for _, sub := range []string{"send", "history", "delivered", "read"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help to list %q subcommand, got: %s", sub, out)
		}
	}
}

func TestMessageSendAndHistory(t *testing.T) {
	cfg := migratedConfig(t)
	id := createSession(t, cfg)

	out := mustRun(t, "message", "send", "-c", cfg, id, "--sender", "user", "--text", "I need help", "--sender-name", "Ada")
	if !strings.Contains(out, "Sent message 1 to session "+id) {
		t.Errorf("send output: %s", out)
	}
	mustRun(t, "message", "send", "-c", cfg, id, "--sender", "agent", "--text", "Hi Ada", "--sender-id", "17")

	out = mustRun(t, "message", "history", "-c", cfg, id)
	first := strings.Index(out, "I need help")
	second := strings.Index(out, "Hi Ada")
	if first < 0 || second < 0 || first > second {
		t.Errorf("history out of order:\n%s", out)
	}
	if !strings.Contains(out, "user (Ada)") {
		t.Errorf("history should label the sender, got: %s", out)
	}

	out = mustRun(t, "session", "show", "-c", cfg, id)
	if !strings.Contains(out, "Unread:        user 1, agent 1") {
		t.Errorf("counters not bumped: %s", out)
	}
	if !strings.Contains(out, "Last message:") {
		t.Errorf("last message time missing: %s", out)
	}
}

func TestMessageSend_Errors(t *testing.T) {
	cfg := migratedConfig(t)
	id := createSession(t, cfg)

	_, err := runCmd(t, "message", "send", "-c", cfg, "missing", "--sender", "user", "--text", "hi")
	if !errors.Is(err, chat.ErrSessionNotFound) {
		t.Errorf("unknown session: err = %v, want ErrSessionNotFound", err)
	}

	_, err = runCmd(t, "message", "send", "-c", cfg, id, "--sender", "bot", "--text", "hi")
	if !errors.Is(err, chat.ErrInvalidSender) {
		t.Errorf("bad sender: err = %v, want ErrInvalidSender", err)
	}

	if _, err := runCmd(t, "message", "send", "-c", cfg, id, "--sender", "user"); err == nil {
		t.Error("expected error when --text is missing")
	}
}

func TestMessageDelivered(t *testing.T) {
	cfg := migratedConfig(t)
	id := createSession(t, cfg)
	mustRun(t, "message", "send", "-c", cfg, id, "--sender", "agent", "--text", "Hi")

	at := time.Now().Add(time.Minute).Format(time.RFC3339)
	out := mustRun(t, "message", "delivered", "-c", cfg, "1", "--at", at)
	if !strings.Contains(out, "Message 1 delivered at") {
		t.Errorf("delivered output: %s", out)
	}

	_, err := runCmd(t, "message", "delivered", "-c", cfg, "1")
	if !errors.Is(err, chat.ErrAlreadyDelivered) {
		t.Errorf("second delivery: err = %v, want ErrAlreadyDelivered", err)
	}

	if _, err := runCmd(t, "message", "delivered", "-c", cfg, "abc"); err == nil {
		t.Error("expected error for non-numeric message ID")
	}
	if _, err := runCmd(t, "message", "delivered", "-c", cfg, "1", "--at", "yesterday"); err == nil {
		t.Error("expected error for invalid --at")
	}
}

func TestMessageRead(t *testing.T) {
	cfg := migratedConfig(t)
	id := createSession(t, cfg)
	mustRun(t, "message", "send", "-c", cfg, id, "--sender", "agent", "--text", "one")
	mustRun(t, "message", "send", "-c", cfg, id, "--sender", "agent", "--text", "two")

	out := mustRun(t, "message", "read", "-c", cfg, id, "--reader", "user")
	if !strings.Contains(out, "Marked 2 messages read by user") {
		t.Errorf("read output: %s", out)
	}

	out = mustRun(t, "session", "show", "-c", cfg, id)
	if !strings.Contains(out, "Unread:        user 0, agent 0") {
		t.Errorf("reader counter not cleared: %s", out)
	}

	out = mustRun(t, "message", "history", "-c", cfg, id)
	if strings.Count(out, "user") < 2 {
		t.Errorf("history should show messages read by user:\n%s", out)
	}
}

func TestParseAt(t *testing.T) {
	before := time.Now()
	got, err := parseAt("")
	if err != nil || got.Before(before) {
		t.Errorf("parseAt(\"\") = %v, %v; want now", got, err)
	}

	got, err = parseAt("2026-03-01T10:00:00Z")
	if err != nil {
		t.Fatalf("parseAt: %v", err)
	}
	if !got.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("parseAt = %v", got)
	}

	if _, err := parseAt("not a time"); err == nil {
		t.Error("expected error for invalid time")
	}
}
