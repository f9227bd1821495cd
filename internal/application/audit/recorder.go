// Package audit appends entries to the audit trail. Every mutating
// operation records exactly one entry per logical sub-step; cascades
// therefore produce multiple entries, one per affected entity.
package audit

import (
	"github.com/bizmob/backend/internal/domain/audit"
	"github.com/bizmob/backend/internal/domain/shared"
	"github.com/bizmob/backend/internal/store"
	"go.uber.org/zap"
)

// Recorder writes audit entries into the store's append-only log
// collection. It must be called from within the same Mutate closure as
// the mutation it describes.
type Recorder struct {
	log *zap.Logger
}

// NewRecorder creates a recorder that mirrors entries to the logger.
func NewRecorder(log *zap.Logger) *Recorder {
	return &Recorder{log: log}
}

// Success appends a successful entry.
func (r *Recorder) Success(st *store.State, event audit.EventType, entity audit.EntityType, entityID, description string) {
	r.append(st, audit.New(event, entity, idPtr(entityID), st.UserName(), description))
}

// Changed appends a successful entry carrying field-level changes.
func (r *Recorder) Changed(st *store.State, event audit.EventType, entity audit.EntityType, entityID, description string, changes shared.Changes) {
	r.append(st, audit.New(event, entity, idPtr(entityID), st.UserName(), description).WithChanges(changes))
}

// Failure appends a failed entry with the error message.
func (r *Recorder) Failure(st *store.State, event audit.EventType, entity audit.EntityType, entityID, description, errorMessage string) {
	r.append(st, audit.NewFailure(event, entity, idPtr(entityID), st.UserName(), description, errorMessage))
}

// Warning appends an entry for a cascade step that was skipped because
// its referenced entity was missing, keeping the silent no-op
// observable.
func (r *Recorder) Warning(st *store.State, event audit.EventType, entity audit.EntityType, entityID, description string) {
	r.append(st, audit.NewWarning(event, entity, idPtr(entityID), st.UserName(), description))
}

func (r *Recorder) append(st *store.State, entry audit.Log) {
	st.AuditLogs.Add(entry)
	r.log.Debug("audit",
		zap.String("event", string(entry.EventType)),
		zap.String("entity", string(entry.EntityType)),
		zap.String("status", string(entry.Status)),
		zap.String("description", entry.Description),
	)
}

func idPtr(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
