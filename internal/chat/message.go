package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/liveagent/internal/models"
	"gorm.io/gorm"
)

// MessageOpts holds optional parameters for appending a message.
type MessageOpts struct {
	SenderID   string
	SenderName string
	Metadata   map[string]interface{}
}

// unreadColumn is the counter bumped when senderType writes, i.e. the
// other party's.
func unreadColumn(senderType string) string {
	if senderType == models.SenderAgent {
		return "unread_count_user"
	}
	return "unread_count_agent"
}

// AppendMessage adds a message to a session, stamps the session's
// last_message_at and bumps the recipient's unread counter.
func AppendMessage(db *gorm.DB, sessionID, senderType, text string, opts MessageOpts) (*models.Message, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("chat: session ID is required")
	}
	if !models.ValidSender(senderType) {
		return nil, fmt.Errorf("chat: %q: %w", senderType, ErrInvalidSender)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("chat: message text is required")
	}
	meta, err := marshalJSON(opts.Metadata)
	if err != nil {
		return nil, fmt.Errorf("chat: marshal message metadata: %w", err)
	}

	msg := models.Message{
		SessionID:       sessionID,
		SenderType:      senderType,
		SenderID:        models.Optional(opts.SenderID),
		SenderName:      models.Optional(opts.SenderName),
		MessageText:     text,
		MessageMetadata: meta,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Session{}).Where("id = ?", sessionID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrSessionNotFound
		}
		if err := tx.Create(&msg).Error; err != nil {
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				return ErrSessionNotFound
			}
			return err
		}
		col := unreadColumn(senderType)
		return tx.Model(&models.Session{}).Where("id = ?", sessionID).Updates(map[string]interface{}{
			"last_message_at": msg.CreatedAt,
			col:               gorm.Expr(col + " + 1"),
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("chat: append message to %s: %w", sessionID, err)
	}
	return &msg, nil
}

// MarkDelivered records when a message was delivered. The timestamp is set
// once and may not precede the message's creation.
func MarkDelivered(db *gorm.DB, messageID uint, at time.Time) error {
	var msg models.Message
	if err := db.First(&msg, messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("chat: %d: %w", messageID, ErrMessageNotFound)
		}
		return fmt.Errorf("chat: mark delivered %d: %w", messageID, err)
	}
	if msg.DeliveredAt != nil {
		return fmt.Errorf("chat: %d: %w", messageID, ErrAlreadyDelivered)
	}
	if at.Before(msg.CreatedAt) {
		return fmt.Errorf("chat: %d: %w", messageID, ErrTimestampBeforeCreate)
	}

	result := db.Model(&models.Message{}).
		Where("id = ? AND delivered_at IS NULL", messageID).
		Update("delivered_at", at)
	if result.Error != nil {
		return fmt.Errorf("chat: mark delivered %d: %w", messageID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("chat: %d: %w", messageID, ErrAlreadyDelivered)
	}
	return nil
}

// MarkRead flags every message the other party sent up to at as read by
// reader and stamps read_at where it is still empty. Reader's unread counter
// is reset to the number of the other party's messages still unread, so
// messages newer than at keep counting. It returns the number newly marked.
func MarkRead(db *gorm.DB, sessionID, reader string, at time.Time) (int64, error) {
	if !models.ValidSender(reader) {
		return 0, fmt.Errorf("chat: %q: %w", reader, ErrInvalidSender)
	}
	author, flag := models.SenderAgent, "read_by_user"
	if reader == models.SenderAgent {
		author, flag = models.SenderUser, "read_by_agent"
	}

	var marked int64
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := GetSession(tx, sessionID); err != nil {
			return err
		}
		result := tx.Model(&models.Message{}).
			Where("session_id = ? AND sender_type = ? AND "+flag+" = ? AND created_at <= ?", sessionID, author, false, at).
			Updates(map[string]interface{}{
				flag:      true,
				"read_at": gorm.Expr("COALESCE(read_at, ?)", at),
			})
		if result.Error != nil {
			return result.Error
		}
		marked = result.RowsAffected

		var remaining int64
		if err := tx.Model(&models.Message{}).
			Where("session_id = ? AND sender_type = ? AND "+flag+" = ?", sessionID, author, false).
			Count(&remaining).Error; err != nil {
			return err
		}
		return updateSession(tx, sessionID, map[string]interface{}{unreadColumn(author): remaining})
	})
	if err != nil {
		return 0, fmt.Errorf("chat: mark read in %s: %w", sessionID, err)
	}
	return marked, nil
}

// History returns a session's messages in conversation order. A positive
// limit keeps only the first limit messages.
func History(db *gorm.DB, sessionID string, limit int) ([]models.Message, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("chat: session ID is required")
	}
	q := db.Where("session_id = ?", sessionID).Order("created_at ASC").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var msgs []models.Message
	if err := q.Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("chat: history %s: %w", sessionID, err)
	}
	return msgs, nil
}
