package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Observation tags. Rejections and gate notes share the observation table and
// are distinguished by a text prefix, which reporting matches on.
const (
	ObservationTagRejection = "SUPERVISOR REJECTION: "
	ObservationTagArrival   = "GUARD NOTE (ARRIVAL): "
)

type Observation struct {
	BaseUUIDModel
	CaseID   uuid.UUID `gorm:"type:uuid;not null;index:idx_observations_case" json:"caseId"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null"                             json:"authorId"`
	Text     string    `gorm:"type:text;not null"                             json:"text"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (o *Observation) BeforeCreate(tx *gorm.DB) error {
	if o.CaseID == uuid.Nil || o.AuthorID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if strings.TrimSpace(o.Text) == "" {
		return gorm.ErrInvalidValue
	}
	return nil
}

// IsRejection reports whether this observation records a supervisor rejection.
func (o *Observation) IsRejection() bool {
	return strings.HasPrefix(o.Text, ObservationTagRejection)
}

// RejectionNote strips the rejection tag for display.
func (o *Observation) RejectionNote() string {
	return strings.TrimPrefix(o.Text, ObservationTagRejection)
}

// Pause is an informational work interruption; it never changes case status.
// At most one pause per case may be open (EndedAt null) at a time.
type Pause struct {
	BaseUUIDModel
	CaseID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_pauses_case" json:"caseId"`
	MechanicID uuid.UUID  `gorm:"type:uuid;not null"                       json:"mechanicId"`
	StartedAt  time.Time  `gorm:"type:timestamp;not null"                  json:"startedAt"`
	EndedAt    *time.Time `gorm:"type:timestamp"                           json:"endedAt,omitempty"`
	Reason     string     `gorm:"type:text"                                json:"reason"`

	Mechanic *User `gorm:"foreignKey:MechanicID" json:"mechanic,omitempty"`
}

func (p *Pause) BeforeCreate(tx *gorm.DB) error {
	if p.CaseID == uuid.Nil || p.MechanicID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if p.StartedAt.IsZero() {
		p.StartedAt = time.Now()
	}
	return nil
}
