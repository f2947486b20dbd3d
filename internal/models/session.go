package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Session status values.
const (
	SessionStatusPending = "pending"
	SessionStatusActive  = "active"
	SessionStatusClosed  = "closed"
)

// Session is a single support conversation between an end user of a tenant
// and an assigned agent. Deleting a session cascades to its messages.
type Session struct {
	ID                string    `gorm:"primaryKey;size:36;<-:create"` // UUID
	TenantDomain      string    `gorm:"size:255;not null;index:idx_tenant_domain"`
	UserAccount       string    `gorm:"size:255;not null;index:idx_user_account"`
	UserName          *string   `gorm:"size:255"`
	AssignedAgentID   *int      `gorm:"index:idx_assigned_agent"`
	AssignedAgentName *string   `gorm:"size:255"`
	Status            string    `gorm:"size:20;default:pending;index:idx_status"`
	CreatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;<-:create"`
	UpdatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	LastMessageAt     *time.Time
	UnreadCountUser   int            `gorm:"default:0"`
	UnreadCountAgent  int            `gorm:"default:0"`
	Metadata          datatypes.JSON `gorm:"column:metadata"`

	Messages []Message `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

// TableName pins the table name used by the migrations.
func (Session) TableName() string { return "live_agent_sessions" }

// BeforeCreate assigns a UUID, the pending status and both timestamps when
// unset. Columns with a database default are skipped by GORM's own
// autoCreateTime, so the timestamps are filled here.
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = tx.NowFunc()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
	if s.Status == "" {
		s.Status = SessionStatusPending
	}
	if !ValidSessionStatus(s.Status) {
		return fmt.Errorf("models: invalid session status %q", s.Status)
	}
	return nil
}

// ValidSessionStatus reports whether status is one of the known values.
func ValidSessionStatus(status string) bool {
	switch status {
	case SessionStatusPending, SessionStatusActive, SessionStatusClosed:
		return true
	}
	return false
}
