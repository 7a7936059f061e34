package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CaseStatus string

const (
	CaseRequested CaseStatus = "REQUESTED"
	CaseScheduled CaseStatus = "SCHEDULED"
	CaseCheckedIn CaseStatus = "CHECKED_IN"
	CaseDiagnosing CaseStatus = "DIAGNOSING"
	CaseRepairing CaseStatus = "REPAIRING"
	CaseRepaired  CaseStatus = "REPAIRED"
	CaseValidated CaseStatus = "VALIDATED"
	CaseFinalized CaseStatus = "FINALIZED"
)

// caseTransitions is the allowed edge set of the maintenance lifecycle.
// REPAIRED -> DIAGNOSING is the supervisor-rejection recovery edge.
var caseTransitions = map[CaseStatus][]CaseStatus{
	CaseRequested:  {CaseScheduled},
	CaseScheduled:  {CaseCheckedIn},
	CaseCheckedIn:  {CaseDiagnosing},
	CaseDiagnosing: {CaseRepairing},
	CaseRepairing:  {CaseRepaired},
	CaseRepaired:   {CaseValidated, CaseDiagnosing},
	CaseValidated:  {CaseFinalized},
	CaseFinalized:  {},
}

func CanTransitionCase(from, to CaseStatus) bool {
	for _, allowed := range caseTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ApplyCaseTransition moves the case to the target status and stamps the
// timestamp owned by that edge. It never writes; callers persist inside their
// own transaction.
func ApplyCaseTransition(mc *MaintenanceCase, to CaseStatus, now time.Time) error {
	if mc == nil {
		return fmt.Errorf("maintenance case is nil")
	}
	if !CanTransitionCase(mc.Status, to) {
		return fmt.Errorf("invalid case transition: %s -> %s", mc.Status, to)
	}

	mc.Status = to

	switch to {
	case CaseCheckedIn:
		if mc.ArrivedAt == nil {
			t := now
			mc.ArrivedAt = &t
		}
	case CaseValidated:
		if mc.ValidatedAt == nil {
			t := now
			mc.ValidatedAt = &t
		}
	case CaseFinalized:
		if mc.DepartedAt == nil {
			t := now
			mc.DepartedAt = &t
		}
	}
	return nil
}

// MaintenanceCase is one service episode for one vehicle. The vehicle binding
// is immutable once set; the schedule slot binding is made at creation through
// ScheduleSlot.CaseID and is never rebound.
type MaintenanceCase struct {
	BaseUUIDModel
	VehicleID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_cases_vehicle"  json:"vehicleId"`
	RequesterID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_cases_requester" json:"requesterId"`
	MechanicID   *uuid.UUID `gorm:"type:uuid;index:idx_cases_mechanic"          json:"mechanicId,omitempty"`
	SupervisorID *uuid.UUID `gorm:"type:uuid"                                   json:"supervisorId,omitempty"`
	WorkshopID   *uuid.UUID `gorm:"type:uuid"                                   json:"workshopId,omitempty"`

	Status CaseStatus `gorm:"type:text;not null;default:'REQUESTED';index:idx_cases_status" json:"status"`

	RequestedAt          time.Time  `gorm:"type:timestamp;not null" json:"requestedAt"`
	ArrivedAt            *time.Time `gorm:"type:timestamp"          json:"arrivedAt,omitempty"`
	EstimatedDepartureAt *time.Time `gorm:"type:timestamp"          json:"estimatedDepartureAt,omitempty"`
	DepartedAt           *time.Time `gorm:"type:timestamp"          json:"departedAt,omitempty"`
	ValidatedAt          *time.Time `gorm:"type:timestamp"          json:"validatedAt,omitempty"`

	Problem       string `gorm:"type:text;not null" json:"problem"`
	Diagnosis     string `gorm:"type:text"          json:"diagnosis"`
	WorkPerformed string `gorm:"type:text"          json:"workPerformed"`

	Vehicle    *Vehicle  `gorm:"foreignKey:VehicleID"    json:"vehicle,omitempty"`
	Requester  *User     `gorm:"foreignKey:RequesterID"  json:"requester,omitempty"`
	Mechanic   *User     `gorm:"foreignKey:MechanicID"   json:"mechanic,omitempty"`
	Supervisor *User     `gorm:"foreignKey:SupervisorID" json:"supervisor,omitempty"`
	Workshop   *Workshop `gorm:"foreignKey:WorkshopID"   json:"workshop,omitempty"`

	// Owned sub-records, cascade-deleted with the case.
	Supplies     []Supply      `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"supplies,omitempty"`
	Pauses       []Pause       `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"pauses,omitempty"`
	Observations []Observation `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"observations,omitempty"`
	Photos       []CasePhoto   `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"photos,omitempty"`
}

func (mc *MaintenanceCase) BeforeCreate(tx *gorm.DB) error {
	if mc.VehicleID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if mc.RequesterID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if mc.RequestedAt.IsZero() {
		mc.RequestedAt = time.Now()
	}
	if mc.Status == "" {
		mc.Status = CaseRequested
	}
	return nil
}

// MechanicEditable reports whether the assigned mechanic may still change
// diagnosis, work notes, supplies or photos.
func (mc *MaintenanceCase) MechanicEditable() bool {
	switch mc.Status {
	case CaseRepaired, CaseValidated, CaseFinalized:
		return false
	}
	return true
}

// ActiveCaseStatuses are the statuses of a case that is still in flight.
var ActiveCaseStatuses = []CaseStatus{
	CaseScheduled,
	CaseCheckedIn,
	CaseDiagnosing,
	CaseRepairing,
	CaseRepaired,
	CaseValidated,
}
