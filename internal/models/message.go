package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Sender types for Message.SenderType.
const (
	SenderUser  = "user"
	SenderAgent = "agent"
)

// Message is one chat turn within a session, authored by the user or the agent.
type Message struct {
	ID              uint       `gorm:"primaryKey;autoIncrement"`
	SessionID       string     `gorm:"size:36;not null;index:idx_session_id"`
	SenderType      string     `gorm:"size:10;not null;check:chk_live_agent_messages_sender_type,sender_type IN ('user','agent')"`
	SenderID        *string    `gorm:"size:255"`
	SenderName      *string    `gorm:"size:255"`
	MessageText     string     `gorm:"type:text;not null"`
	CreatedAt       time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_created_at;<-:create"`
	ReadByUser      bool       `gorm:"default:false"`
	ReadByAgent     bool       `gorm:"default:false"`
	DeliveredAt     *time.Time // when the message was delivered
	ReadAt          *time.Time // when the message was read
	MessageMetadata datatypes.JSON
}

// TableName pins the table name used by the migrations.
func (Message) TableName() string { return "live_agent_messages" }

// BeforeCreate rejects unknown sender types before they reach the CHECK
// constraint and stamps created_at when unset.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if !ValidSender(m.SenderType) {
		return fmt.Errorf("models: invalid sender type %q", m.SenderType)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = tx.NowFunc()
	}
	return nil
}

// Optional returns nil for an empty string so optional columns store NULL.
func Optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the value of an optional column, or "" when it is NULL.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ValidSender reports whether senderType is "user" or "agent".
func ValidSender(senderType string) bool {
	return senderType == SenderUser || senderType == SenderAgent
}
