package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// User account events, published by the account service
	EventUserLogin             = "user.login"
	EventUserUpdated           = "user.updated"
	EventUserDepartmentChanged = "user.department_changed"
	EventUserDeactivated       = "user.deactivated"

	// Hierarchy events
	EventHierarchyPathSynced = "hierarchy.path_synced"
)

// Exchange names
const (
	ExchangeUserEvents      = "lumigente.users"
	ExchangeHierarchyEvents = "lumigente.hierarchy"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// UserEvent is the payload of every user.* event
type UserEvent struct {
	UserID             int64  `json:"user_id"`
	RegistrationNumber string `json:"registration_number,omitempty"`
	DepartmentCode     string `json:"department_code,omitempty"`
}

// PathSyncedEvent is published after a user's cached hierarchy path was rewritten
type PathSyncedEvent struct {
	UserID  int64  `json:"user_id"`
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
	Level   int    `json:"level"`
}
