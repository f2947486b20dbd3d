// Package migrate holds the ordered, reversible schema migrations for the
// live-agent tables and the runner that applies them.
package migrate

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrUnknownMigration     = errors.New("unknown migration")
	ErrDependencyNotApplied = errors.New("required migration not applied")
	ErrDependentApplied     = errors.New("dependent migration still applied")
	ErrAlreadyApplied       = errors.New("migration already applied")
	ErrNotApplied           = errors.New("migration not applied")
	ErrMissingTable         = errors.New("required table does not exist")
)

// Migration is one versioned schema change. Up and Down receive the
// transaction the runner uses for bookkeeping.
type Migration struct {
	ID          string
	Requires    string // ID of the migration that must be applied first; empty for the root
	Description string
	Up          func(tx *gorm.DB) error
	Down        func(tx *gorm.DB) error
}

// Number returns the numeric prefix of the ID ("002" for "002_create_messages").
func (m Migration) Number() string {
	if i := strings.IndexByte(m.ID, '_'); i > 0 {
		return m.ID[:i]
	}
	return m.ID
}

// All returns the live-agent migrations in application order.
func All() []Migration {
	return []Migration{
		createSessions(),
		createMessages(),
	}
}

// validateChain checks that ms forms a single linear chain: unique IDs, the
// first has no predecessor and each later one requires the one before it.
func validateChain(ms []Migration) error {
	seen := make(map[string]bool, len(ms))
	for i, m := range ms {
		if m.ID == "" {
			return fmt.Errorf("migrate: migration %d has no ID", i)
		}
		if seen[m.ID] {
			return fmt.Errorf("migrate: duplicate migration %s", m.ID)
		}
		seen[m.ID] = true
		if m.Up == nil || m.Down == nil {
			return fmt.Errorf("migrate: %s must define both Up and Down", m.ID)
		}
		want := ""
		if i > 0 {
			want = ms[i-1].ID
		}
		if m.Requires != want {
			return fmt.Errorf("migrate: %s requires %q, want %q for a linear chain", m.ID, m.Requires, want)
		}
	}
	return nil
}

// find looks a migration up by full ID or by its numeric prefix.
func find(ms []Migration, id string) (int, error) {
	for i, m := range ms {
		if m.ID == id || m.Number() == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("migrate: %q: %w", id, ErrUnknownMigration)
}
