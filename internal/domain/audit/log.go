package audit

import (
	"time"

	"github.com/bizmob/backend/internal/domain/shared"
)

// EventType classifies what happened.
type EventType string

const (
	EventCreate EventType = "create"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
	EventView   EventType = "view"
	EventExport EventType = "export"
	EventImport EventType = "import"
	EventLogin  EventType = "login"
	EventError  EventType = "error"
)

// EntityType names the record kind an event concerns.
type EntityType string

const (
	EntityProduct  EntityType = "product"
	EntitySale     EntityType = "sale"
	EntityPurchase EntityType = "purchase"
	EntityClient   EntityType = "client"
	EntityDebt     EntityType = "debt"
	EntityPayment  EntityType = "payment"
	EntityConfig   EntityType = "config"
	EntityBackup   EntityType = "backup"
	EntityData     EntityType = "data"
)

// Status is the outcome of the logged operation. Warning marks a
// cascade step that was silently skipped because its referenced entity
// was missing.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusWarning Status = "warning"
)

// Log is one immutable entry in the audit trail. Entries are only ever
// appended, and removed only on full application reset.
type Log struct {
	shared.Record
	EventType    EventType      `json:"eventType"`
	EntityType   EntityType     `json:"entityType"`
	EntityID     *string        `json:"entityId"`
	UserName     string         `json:"userName"`
	Description  string         `json:"description"`
	Changes      shared.Changes `json:"changes,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	Status       Status         `json:"status"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
}

// New creates a successful audit entry.
func New(event EventType, entity EntityType, entityID *string, userName, description string) Log {
	return Log{
		Record:      shared.NewRecord(),
		EventType:   event,
		EntityType:  entity,
		EntityID:    entityID,
		UserName:    userName,
		Description: description,
		Timestamp:   time.Now(),
		Status:      StatusSuccess,
	}
}

// NewFailure creates a failed audit entry carrying the error message.
func NewFailure(event EventType, entity EntityType, entityID *string, userName, description, errorMessage string) Log {
	entry := New(event, entity, entityID, userName, description)
	entry.Status = StatusFailure
	entry.ErrorMessage = errorMessage
	return entry
}

// NewWarning creates a warning entry for an observable skipped step.
func NewWarning(event EventType, entity EntityType, entityID *string, userName, description string) Log {
	entry := New(event, entity, entityID, userName, description)
	entry.Status = StatusWarning
	return entry
}

// WithChanges attaches a field-level change set to the entry.
func (l Log) WithChanges(changes shared.Changes) Log {
	l.Changes = changes
	return l
}

// ModifiedAt returns the timestamp used for merge tie-breaking.
func (l *Log) ModifiedAt() time.Time { return l.Timestamp }
