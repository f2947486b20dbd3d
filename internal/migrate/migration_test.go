package migrate

import (
	"strings"
	"testing"

	"gorm.io/gorm"
)

func noop(*gorm.DB) error { return nil }

func TestAll_Chain(t *testing.T) {
	ms := All()
	if len(ms) != 2 {
		t.Fatalf("All() returned %d migrations, want 2", len(ms))
	}
	if ms[0].ID != "001_create_sessions" || ms[0].Requires != "" {
		t.Errorf("ms[0] = %s requires %q", ms[0].ID, ms[0].Requires)
	}
	if ms[1].ID != "002_create_messages" || ms[1].Requires != "001_create_sessions" {
		t.Errorf("ms[1] = %s requires %q", ms[1].ID, ms[1].Requires)
	}
	if err := validateChain(ms); err != nil {
		t.Errorf("validateChain(All()) = %v", err)
	}
}

func TestMigration_Number(t *testing.T) {
	tests := []struct{ id, want string }{
		{"001_create_sessions", "001"},
		{"002_create_messages", "002"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := (Migration{ID: tt.id}).Number(); got != tt.want {
			t.Errorf("Number(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestValidateChain(t *testing.T) {
	tests := []struct {
		name string
		ms   []Migration
		want string
	}{
		{"empty id", []Migration{{Up: noop, Down: noop}}, "has no ID"},
		{"duplicate", []Migration{
			{ID: "a", Up: noop, Down: noop},
			{ID: "a", Requires: "a", Up: noop, Down: noop},
		}, "duplicate migration a"},
		{"missing down", []Migration{{ID: "a", Up: noop}}, "must define both Up and Down"},
		{"root with requires", []Migration{{ID: "a", Requires: "z", Up: noop, Down: noop}}, `a requires "z"`},
		{"branch", []Migration{
			{ID: "a", Up: noop, Down: noop},
			{ID: "b", Requires: "a", Up: noop, Down: noop},
			{ID: "c", Requires: "a", Up: noop, Down: noop},
		}, `c requires "a", want "b"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateChain(tt.ms)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want to contain %q", err, tt.want)
			}
		})
	}
}

func TestFind(t *testing.T) {
	ms := All()
	for _, id := range []string{"002", "002_create_messages"} {
		i, err := find(ms, id)
		if err != nil || i != 1 {
			t.Errorf("find(%q) = %d, %v", id, i, err)
		}
	}
	if _, err := find(ms, "003"); err == nil {
		t.Error("find(003) should fail")
	}
}

func TestIndexOrder(t *testing.T) {
	want := []string{"idx_tenant_domain", "idx_user_account", "idx_status", "idx_assigned_agent"}
	for i, idx := range sessionIndexes {
		if idx.Name != want[i] {
			t.Errorf("sessionIndexes[%d] = %s, want %s", i, idx.Name, want[i])
		}
	}
	if messageIndexes[0].Name != "idx_session_id" || messageIndexes[1].Name != "idx_created_at" {
		t.Errorf("messageIndexes = %+v", messageIndexes)
	}
}
