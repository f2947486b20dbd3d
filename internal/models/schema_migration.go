package models

import "time"

// SchemaMigration records one applied migration. A row exists only for
// migrations whose upgrade completed; reverting deletes the row.
type SchemaMigration struct {
	Version     string    `gorm:"primaryKey;size:64"`
	Description string    `gorm:"size:255"`
	AppliedAt   time.Time `gorm:"not null"`
}

// TableName returns the bookkeeping table name.
func (SchemaMigration) TableName() string { return "schema_migrations" }
