package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/zulandar/liveagent/internal/models"
	"gorm.io/gorm"
)

// Runner applies and reverts migrations, recording each applied migration
// in the schema_migrations table.
type Runner struct {
	db         *gorm.DB
	migrations []Migration
	log        zerolog.Logger
	now        func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger used for per-step progress.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithMigrations replaces the default migration set.
func WithMigrations(ms []Migration) Option {
	return func(r *Runner) { r.migrations = ms }
}

// NewRunner returns a Runner over db. The migration set must form a linear chain.
func NewRunner(db *gorm.DB, opts ...Option) (*Runner, error) {
	if db == nil {
		return nil, fmt.Errorf("migrate: db is required")
	}
	r := &Runner{
		db:         db,
		migrations: All(),
		log:        zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := validateChain(r.migrations); err != nil {
		return nil, err
	}
	return r, nil
}

// Migrations returns the registered migrations in application order.
func (r *Runner) Migrations() []Migration {
	out := make([]Migration, len(r.migrations))
	copy(out, r.migrations)
	return out
}

// State pairs a migration with its bookkeeping record.
type State struct {
	Migration Migration
	Applied   bool
	AppliedAt *time.Time
}

// Status reports every registered migration and whether it is applied.
func (r *Runner) Status(ctx context.Context) ([]State, error) {
	applied, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}
	states := make([]State, 0, len(r.migrations))
	for _, m := range r.migrations {
		st := State{Migration: m}
		if rec, ok := applied[m.ID]; ok {
			at := rec.AppliedAt
			st.Applied = true
			st.AppliedAt = &at
		}
		states = append(states, st)
	}
	return states, nil
}

// Up applies every pending migration in order and returns the IDs applied.
func (r *Runner) Up(ctx context.Context) ([]string, error) {
	applied, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}
	var done []string
	for _, m := range r.migrations {
		if _, ok := applied[m.ID]; ok {
			continue
		}
		if err := r.apply(ctx, m); err != nil {
			return done, err
		}
		applied[m.ID] = models.SchemaMigration{Version: m.ID}
		done = append(done, m.ID)
	}
	return done, nil
}

// Apply applies the single migration id. It refuses when the migration it
// requires has not been applied.
func (r *Runner) Apply(ctx context.Context, id string) error {
	i, err := find(r.migrations, id)
	if err != nil {
		return err
	}
	m := r.migrations[i]
	applied, err := r.applied(ctx)
	if err != nil {
		return err
	}
	if _, ok := applied[m.ID]; ok {
		return fmt.Errorf("migrate: apply %s: %w", m.ID, ErrAlreadyApplied)
	}
	if m.Requires != "" {
		if _, ok := applied[m.Requires]; !ok {
			return fmt.Errorf("migrate: apply %s: %s: %w", m.ID, m.Requires, ErrDependencyNotApplied)
		}
	}
	return r.apply(ctx, m)
}

// Revert reverts the single migration id. It refuses while a migration that
// requires it is still applied.
func (r *Runner) Revert(ctx context.Context, id string) error {
	i, err := find(r.migrations, id)
	if err != nil {
		return err
	}
	m := r.migrations[i]
	applied, err := r.applied(ctx)
	if err != nil {
		return err
	}
	if _, ok := applied[m.ID]; !ok {
		return fmt.Errorf("migrate: revert %s: %w", m.ID, ErrNotApplied)
	}
	return r.revert(ctx, m, applied)
}

// Down reverts the latest steps applied migrations, newest first, and
// returns the IDs reverted.
func (r *Runner) Down(ctx context.Context, steps int) ([]string, error) {
	if steps < 1 {
		return nil, fmt.Errorf("migrate: down: steps must be at least 1, got %d", steps)
	}
	applied, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}
	var done []string
	for i := len(r.migrations) - 1; i >= 0 && len(done) < steps; i-- {
		m := r.migrations[i]
		if _, ok := applied[m.ID]; !ok {
			continue
		}
		if err := r.revert(ctx, m, applied); err != nil {
			return done, err
		}
		delete(applied, m.ID)
		done = append(done, m.ID)
	}
	return done, nil
}

// DownTo reverts every applied migration that comes after id, leaving id
// itself applied.
func (r *Runner) DownTo(ctx context.Context, id string) ([]string, error) {
	target, err := find(r.migrations, id)
	if err != nil {
		return nil, err
	}
	return r.revertAfter(ctx, target)
}

// Reset reverts every applied migration, newest first.
func (r *Runner) Reset(ctx context.Context) ([]string, error) {
	return r.revertAfter(ctx, -1)
}

func (r *Runner) revertAfter(ctx context.Context, target int) ([]string, error) {
	applied, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}
	var done []string
	for i := len(r.migrations) - 1; i > target; i-- {
		m := r.migrations[i]
		if _, ok := applied[m.ID]; !ok {
			continue
		}
		if err := r.revert(ctx, m, applied); err != nil {
			return done, err
		}
		delete(applied, m.ID)
		done = append(done, m.ID)
	}
	return done, nil
}

// apply runs m.Up and records it in one transaction, so a failed step
// leaves no bookkeeping row behind.
func (r *Runner) apply(ctx context.Context, m Migration) error {
	start := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := m.Up(tx); err != nil {
			return err
		}
		rec := models.SchemaMigration{
			Version:     m.ID,
			Description: m.Description,
			AppliedAt:   r.now(),
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		r.log.Error().Err(err).Str("migration", m.ID).Str("direction", "up").Msg("migration failed")
		return fmt.Errorf("migrate: apply %s: %w", m.ID, err)
	}
	r.log.Info().Str("migration", m.ID).Str("direction", "up").Dur("elapsed", time.Since(start)).Msg("applied")
	return nil
}

func (r *Runner) revert(ctx context.Context, m Migration, applied map[string]models.SchemaMigration) error {
	for _, other := range r.migrations {
		if other.Requires != m.ID {
			continue
		}
		if _, ok := applied[other.ID]; ok {
			return fmt.Errorf("migrate: revert %s: %s: %w", m.ID, other.ID, ErrDependentApplied)
		}
	}

	start := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := m.Down(tx); err != nil {
			return err
		}
		return tx.Where("version = ?", m.ID).Delete(&models.SchemaMigration{}).Error
	})
	if err != nil {
		r.log.Error().Err(err).Str("migration", m.ID).Str("direction", "down").Msg("migration failed")
		return fmt.Errorf("migrate: revert %s: %w", m.ID, err)
	}
	r.log.Info().Str("migration", m.ID).Str("direction", "down").Dur("elapsed", time.Since(start)).Msg("reverted")
	return nil
}

// applied bootstraps the bookkeeping table and returns its rows keyed by version.
func (r *Runner) applied(ctx context.Context) (map[string]models.SchemaMigration, error) {
	tx := r.db.WithContext(ctx)
	if err := tx.AutoMigrate(&models.SchemaMigration{}); err != nil {
		return nil, fmt.Errorf("migrate: bookkeeping table: %w", err)
	}
	var rows []models.SchemaMigration
	if err := tx.Order("version ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("migrate: read bookkeeping: %w", err)
	}
	out := make(map[string]models.SchemaMigration, len(rows))
	for _, row := range rows {
		out[row.Version] = row
	}
	return out, nil
}
