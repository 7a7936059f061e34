package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrSupplyNotPending = errors.New("supply request is no longer pending")

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// Supply is a parts/materials line item requested against a case.
type Supply struct {
	BaseUUIDModel
	CaseID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_supplies_case"   json:"caseId"`
	Name        string          `gorm:"type:text;not null"                           json:"name"`
	Quantity    decimal.Decimal `gorm:"type:decimal(10,2);not null"                  json:"quantity"`
	RequesterID uuid.UUID       `gorm:"type:uuid;not null"                           json:"requesterId"`
	RequestedAt time.Time       `gorm:"type:timestamp;not null"                      json:"requestedAt"`
	Status      ApprovalStatus  `gorm:"type:text;not null;default:'PENDING';index:idx_supplies_status" json:"status"`
	ApproverID  *uuid.UUID      `gorm:"type:uuid"                                    json:"approverId,omitempty"`
	ApprovedAt  *time.Time      `gorm:"type:timestamp"                               json:"approvedAt,omitempty"`

	Requester *User `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Approver  *User `gorm:"foreignKey:ApproverID"  json:"approver,omitempty"`
}

// ApplyDecision records the verdict on a pending request. A supply is decided
// exactly once; the conditional database write enforces the same rule against
// concurrent approvers.
func (s *Supply) ApplyDecision(approverID uuid.UUID, status ApprovalStatus, at time.Time) error {
	if s.Status != ApprovalPending {
		return ErrSupplyNotPending
	}
	if status != ApprovalApproved && status != ApprovalRejected {
		return gorm.ErrInvalidValue
	}

	s.Status = status
	s.ApproverID = &approverID
	s.ApprovedAt = &at
	return nil
}

func (s *Supply) BeforeCreate(tx *gorm.DB) error {
	if s.CaseID == uuid.Nil || s.RequesterID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if s.Name == "" {
		return gorm.ErrInvalidValue
	}
	if s.Quantity.LessThanOrEqual(decimal.Zero) {
		return gorm.ErrInvalidValue
	}
	if s.RequestedAt.IsZero() {
		s.RequestedAt = time.Now()
	}
	if s.Status == "" {
		s.Status = ApprovalPending
	}
	return nil
}
