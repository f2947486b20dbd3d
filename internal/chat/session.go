package chat

import (
	"errors"
	"fmt"

	"github.com/zulandar/liveagent/internal/models"
	"gorm.io/gorm"
)

// SessionOpts holds optional parameters for creating a session.
type SessionOpts struct {
	UserName string
	Metadata map[string]interface{}
}

// CreateSession opens a pending session for a tenant's end user.
func CreateSession(db *gorm.DB, tenantDomain, userAccount string, opts SessionOpts) (*models.Session, error) {
	if tenantDomain == "" {
		return nil, fmt.Errorf("chat: tenant domain is required")
	}
	if userAccount == "" {
		return nil, fmt.Errorf("chat: user account is required")
	}
	meta, err := marshalJSON(opts.Metadata)
	if err != nil {
		return nil, fmt.Errorf("chat: marshal session metadata: %w", err)
	}

	s := models.Session{
		TenantDomain: tenantDomain,
		UserAccount:  userAccount,
		UserName:     models.Optional(opts.UserName),
		Status:       models.SessionStatusPending,
		Metadata:     meta,
	}
	if err := db.Create(&s).Error; err != nil {
		return nil, fmt.Errorf("chat: create session: %w", err)
	}
	return &s, nil
}

// GetSession loads a session by ID.
func GetSession(db *gorm.DB, id string) (*models.Session, error) {
	var s models.Session
	if err := db.First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("chat: %s: %w", id, ErrSessionNotFound)
		}
		return nil, fmt.Errorf("chat: get session %s: %w", id, err)
	}
	return &s, nil
}

// SessionFilter narrows ListSessions. Zero fields match everything.
type SessionFilter struct {
	TenantDomain    string
	UserAccount     string
	Status          string
	AssignedAgentID *int
	Limit           int
}

// ListSessions returns matching sessions, newest first.
func ListSessions(db *gorm.DB, f SessionFilter) ([]models.Session, error) {
	q := db.Model(&models.Session{})
	if f.TenantDomain != "" {
		q = q.Where("tenant_domain = ?", f.TenantDomain)
	}
	if f.UserAccount != "" {
		q = q.Where("user_account = ?", f.UserAccount)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.AssignedAgentID != nil {
		q = q.Where("assigned_agent_id = ?", *f.AssignedAgentID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var sessions []models.Session
	if err := q.Order("created_at DESC").Order("id ASC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("chat: list sessions: %w", err)
	}
	return sessions, nil
}

// UpdateStatus sets a session's status.
func UpdateStatus(db *gorm.DB, id, status string) error {
	if !models.ValidSessionStatus(status) {
		return fmt.Errorf("chat: %q: %w", status, ErrInvalidStatus)
	}
	return updateSession(db, id, map[string]interface{}{"status": status})
}

// AssignAgent records which agent holds the session and marks a pending
// session active. It does not decide who that agent should be.
func AssignAgent(db *gorm.DB, id string, agentID int, agentName string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		s, err := GetSession(tx, id)
		if err != nil {
			return err
		}
		updates := map[string]interface{}{
			"assigned_agent_id":   agentID,
			"assigned_agent_name": models.Optional(agentName),
		}
		if s.Status == models.SessionStatusPending {
			updates["status"] = models.SessionStatusActive
		}
		return updateSession(tx, id, updates)
	})
}

// DeleteSession removes a session. The foreign key cascade removes its messages.
func DeleteSession(db *gorm.DB, id string) error {
	result := db.Where("id = ?", id).Delete(&models.Session{})
	if result.Error != nil {
		return fmt.Errorf("chat: delete session %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("chat: %s: %w", id, ErrSessionNotFound)
	}
	return nil
}

// updateSession applies updates through the model so updated_at is refreshed.
func updateSession(db *gorm.DB, id string, updates map[string]interface{}) error {
	result := db.Model(&models.Session{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("chat: update session %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("chat: %s: %w", id, ErrSessionNotFound)
	}
	return nil
}
