package migrate

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const sessionsTable = "live_agent_sessions"

// sessionsV1 is the live_agent_sessions shape as of this migration. It is
// frozen here so later model changes cannot alter what the migration creates.
type sessionsV1 struct {
	ID                string    `gorm:"primaryKey;size:36"`
	TenantDomain      string    `gorm:"size:255;not null"`
	UserAccount       string    `gorm:"size:255;not null"`
	UserName          *string   `gorm:"size:255"`
	AssignedAgentID   *int      `gorm:"type:integer"`
	AssignedAgentName *string   `gorm:"size:255"`
	Status            string    `gorm:"size:20;default:pending"`
	CreatedAt         stampTime `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         stampTime `gorm:"not null;default:CURRENT_TIMESTAMP"`
	LastMessageAt     *time.Time
	UnreadCountUser   int            `gorm:"type:integer;default:0"`
	UnreadCountAgent  int            `gorm:"type:integer;default:0"`
	Metadata          datatypes.JSON `gorm:"column:metadata"`
}

func (sessionsV1) TableName() string { return sessionsTable }

var sessionIndexes = []index{
	{Name: "idx_tenant_domain", Table: sessionsTable, Column: "tenant_domain"},
	{Name: "idx_user_account", Table: sessionsTable, Column: "user_account"},
	{Name: "idx_status", Table: sessionsTable, Column: "status"},
	{Name: "idx_assigned_agent", Table: sessionsTable, Column: "assigned_agent_id"},
}

func createSessions() Migration {
	return Migration{
		ID:          "001_create_sessions",
		Description: "Create live_agent_sessions table",
		Up: func(tx *gorm.DB) error {
			if err := tx.Migrator().CreateTable(&sessionsV1{}); err != nil {
				return err
			}
			return createIndexes(tx, sessionIndexes)
		},
		Down: func(tx *gorm.DB) error {
			if err := dropIndexes(tx, sessionIndexes); err != nil {
				return err
			}
			return dropTable(tx, sessionsTable)
		},
	}
}
