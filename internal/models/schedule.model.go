package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ServiceType string

const (
	ServiceRoutine       ServiceType = "ROUTINE"
	ServiceMechanical    ServiceType = "MECHANICAL"
	ServiceElectrical    ServiceType = "ELECTRICAL"
	ServiceDocumentation ServiceType = "DOCUMENTATION"
)

// ScheduleSlot is a reservable time window at a workshop. CaseID null means
// free; a non-null CaseID marks the slot reserved and it may never be deleted
// or rebound.
type ScheduleSlot struct {
	BaseUUIDModel
	WorkshopID  uuid.UUID   `gorm:"type:uuid;not null;index:idx_slots_workshop" json:"workshopId"`
	CaseID      *uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_slots_case"        json:"caseId,omitempty"`
	ServiceType ServiceType `gorm:"type:text;not null"                          json:"serviceType"`
	StartsAt    time.Time   `gorm:"type:timestamp;not null;index:idx_slots_starts" json:"startsAt"`
	EndsAt      time.Time   `gorm:"type:timestamp;not null"                     json:"endsAt"`

	Workshop *Workshop        `gorm:"foreignKey:WorkshopID" json:"workshop,omitempty"`
	Case     *MaintenanceCase `gorm:"foreignKey:CaseID"     json:"case,omitempty"`
}

func (s *ScheduleSlot) BeforeCreate(tx *gorm.DB) error {
	if s.WorkshopID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if !s.EndsAt.After(s.StartsAt) {
		return gorm.ErrInvalidValue
	}
	return nil
}

func (s *ScheduleSlot) IsFree() bool {
	return s.CaseID == nil
}
