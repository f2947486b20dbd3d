package migrate

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const messagesTable = "live_agent_messages"

// messagesV1 is the live_agent_messages shape as of this migration,
// including delivered_at and read_at.
type messagesV1 struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"`
	SessionID       string    `gorm:"size:36;not null"`
	SenderType      string    `gorm:"size:10;not null;check:chk_live_agent_messages_sender_type,sender_type IN ('user','agent')"`
	SenderID        *string   `gorm:"size:255"`
	SenderName      *string   `gorm:"size:255"`
	MessageText     string    `gorm:"type:text;not null"`
	CreatedAt       stampTime `gorm:"not null;default:CURRENT_TIMESTAMP"`
	ReadByUser      bool      `gorm:"default:false"`
	ReadByAgent     bool      `gorm:"default:false"`
	DeliveredAt     *time.Time
	ReadAt          *time.Time
	MessageMetadata datatypes.JSON

	Session sessionsV1 `gorm:"foreignKey:SessionID;references:ID;constraint:OnDelete:CASCADE"`
}

func (messagesV1) TableName() string { return messagesTable }

var messageIndexes = []index{
	{Name: "idx_session_id", Table: messagesTable, Column: "session_id"},
	{Name: "idx_created_at", Table: messagesTable, Column: "created_at"},
}

func createMessages() Migration {
	return Migration{
		ID:          "002_create_messages",
		Requires:    "001_create_sessions",
		Description: "Create live_agent_messages table with delivered_at and read_at columns",
		Up: func(tx *gorm.DB) error {
			if !tx.Migrator().HasTable(sessionsTable) {
				return fmt.Errorf("%s: %w", sessionsTable, ErrMissingTable)
			}
			if err := tx.Migrator().CreateTable(&messagesV1{}); err != nil {
				return err
			}
			return createIndexes(tx, messageIndexes)
		},
		Down: func(tx *gorm.DB) error {
			// MySQL refuses to drop idx_session_id while the foreign key
			// still relies on it.
			if tx.Dialector.Name() == "mysql" && tx.Migrator().HasConstraint(&messagesV1{}, "Session") {
				if err := tx.Migrator().DropConstraint(&messagesV1{}, "Session"); err != nil {
					return err
				}
			}
			if err := dropIndexes(tx, messageIndexes); err != nil {
				return err
			}
			return dropTable(tx, messagesTable)
		},
	}
}
