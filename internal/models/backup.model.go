package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BackupRequestStatus string

const (
	BackupPending   BackupRequestStatus = "PENDING"
	BackupFulfilled BackupRequestStatus = "FULFILLED"
	BackupCancelled BackupRequestStatus = "CANCELLED"
)

// BackupRequest is a driver's ask for a loaner vehicle while their primary is
// in the workshop. A driver may hold at most one PENDING request.
type BackupRequest struct {
	BaseUUIDModel
	DriverID    uuid.UUID           `gorm:"type:uuid;not null;index:idx_backup_requests_driver" json:"driverId"`
	Reason      string              `gorm:"type:text"                                           json:"reason"`
	RequestedAt time.Time           `gorm:"type:timestamp;not null"                             json:"requestedAt"`
	Status      BackupRequestStatus `gorm:"type:text;not null;default:'PENDING';index:idx_backup_requests_status" json:"status"`
	FulfillerID *uuid.UUID          `gorm:"type:uuid"                                           json:"fulfillerId,omitempty"`
	FulfilledAt *time.Time          `gorm:"type:timestamp"                                      json:"fulfilledAt,omitempty"`
	VehicleID   *uuid.UUID          `gorm:"type:uuid"                                           json:"vehicleId,omitempty"`

	Driver    *User    `gorm:"foreignKey:DriverID"    json:"driver,omitempty"`
	Fulfiller *User    `gorm:"foreignKey:FulfillerID" json:"fulfiller,omitempty"`
	Vehicle   *Vehicle `gorm:"foreignKey:VehicleID"   json:"vehicle,omitempty"`
}

func (b *BackupRequest) BeforeCreate(tx *gorm.DB) error {
	if b.DriverID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if b.RequestedAt.IsZero() {
		b.RequestedAt = time.Now()
	}
	if b.Status == "" {
		b.Status = BackupPending
	}
	return nil
}
