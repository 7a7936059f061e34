package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VehicleDocument is a legal document (insurance, registration) tied to a
// vehicle. Expiry dates feed the daily expiry check.
type VehicleDocument struct {
	BaseUUIDModel
	VehicleID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_vehicle_documents_vehicle" json:"vehicleId"`
	UploaderID uuid.UUID  `gorm:"type:uuid;not null"                                     json:"uploaderId"`
	Name       string     `gorm:"type:text;not null"                                     json:"name"`
	StorageKey string     `gorm:"type:text;not null"                                     json:"storageKey"`
	ExpiresAt  *time.Time `gorm:"type:timestamp;index:idx_vehicle_documents_expires"     json:"expiresAt,omitempty"`

	Vehicle  *Vehicle `gorm:"foreignKey:VehicleID"  json:"vehicle,omitempty"`
	Uploader *User    `gorm:"foreignKey:UploaderID" json:"uploader,omitempty"`
}

func (d *VehicleDocument) BeforeCreate(tx *gorm.DB) error {
	if d.VehicleID == uuid.Nil || d.UploaderID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if d.Name == "" || d.StorageKey == "" {
		return gorm.ErrInvalidValue
	}
	return nil
}
