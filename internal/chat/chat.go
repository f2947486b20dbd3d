// Package chat provides storage-level operations on live-agent sessions and
// messages. It records what happened; delivery and agent selection belong to
// the application layer.
package chat

import (
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
)

var (
	ErrSessionNotFound       = errors.New("session not found")
	ErrMessageNotFound       = errors.New("message not found")
	ErrAlreadyDelivered      = errors.New("message already delivered")
	ErrTimestampBeforeCreate = errors.New("timestamp precedes message creation")
	ErrInvalidSender         = errors.New("sender type must be \"user\" or \"agent\"")
	ErrInvalidStatus         = errors.New("status must be pending, active or closed")
)

// marshalJSON encodes v for a JSON column, returning nil for an empty value.
func marshalJSON(v map[string]interface{}) (datatypes.JSON, error) {
	if len(v) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}
