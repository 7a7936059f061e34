package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditKind string

const (
	AuditCreate AuditKind = "CREATE"
	AuditEdit   AuditKind = "EDIT"
	AuditDelete AuditKind = "DELETE"
	AuditLogin  AuditKind = "LOGIN"
	AuditAccess AuditKind = "ACCESS"
)

// AuditEvent is an immutable append-only record of a state-changing action.
// Rows are never updated or deleted; display order is timestamp descending.
type AuditEvent struct {
	BaseModel
	ActorID    *uuid.UUID `gorm:"type:uuid;index:idx_audit_events_actor" json:"actorId,omitempty"`
	Kind       AuditKind  `gorm:"type:text;not null"                     json:"kind"`
	EntityType string     `gorm:"type:text"                              json:"entityType"`
	EntityID   string     `gorm:"type:text"                              json:"entityId"`
	Description string    `gorm:"type:text;not null"                     json:"description"`
	OccurredAt time.Time  `gorm:"type:timestamp;not null;index:idx_audit_events_occurred" json:"occurredAt"`

	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}

func (e *AuditEvent) BeforeCreate(tx *gorm.DB) error {
	if e.Kind == "" || e.Description == "" {
		return gorm.ErrInvalidValue
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	return nil
}
