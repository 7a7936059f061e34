package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VehicleStatus string

const (
	VehicleAvailable      VehicleStatus = "AVAILABLE"
	VehicleAssigned       VehicleStatus = "ASSIGNED" // handed to a driver on paper, not yet driven out
	VehicleInService      VehicleStatus = "IN_SERVICE"
	VehicleEnRoute        VehicleStatus = "EN_ROUTE"
	VehicleDecommissioned VehicleStatus = "DECOMMISSIONED"
)

// Vehicle rows are never deleted; decommissioning is a status transition so
// maintenance history stays referentially intact.
type Vehicle struct {
	BaseUUIDModel
	Plate    string        `gorm:"type:text;uniqueIndex;not null"          json:"plate"`
	Make     string        `gorm:"type:text;not null"                      json:"make"`
	Model    string        `gorm:"type:text;not null"                      json:"model"`
	Year     int           `gorm:"type:int"                                json:"year"`
	DriverID *uuid.UUID    `gorm:"type:uuid;index:idx_vehicles_driver"     json:"driverId,omitempty"`
	SiteID   *uuid.UUID    `gorm:"type:uuid;index:idx_vehicles_site"       json:"siteId,omitempty"`
	IsBackup bool          `gorm:"type:bool;default:false"                 json:"isBackup"`
	Status   VehicleStatus `gorm:"type:text;not null;default:'AVAILABLE';index:idx_vehicles_status" json:"status"`

	Driver *User `gorm:"foreignKey:DriverID" json:"driver,omitempty"`
	Site   *Site `gorm:"foreignKey:SiteID"   json:"site,omitempty"`
}

func (v *Vehicle) BeforeCreate(tx *gorm.DB) error {
	v.Plate = NormalizePlate(v.Plate)
	if v.Plate == "" {
		return gorm.ErrInvalidValue
	}
	if v.Status == "" {
		v.Status = VehicleAvailable
	}
	return nil
}

func (v *Vehicle) BeforeUpdate(tx *gorm.DB) error {
	// A decommissioned vehicle never keeps a driver assignment.
	if v.Status == VehicleDecommissioned && v.DriverID != nil {
		return gorm.ErrInvalidValue
	}
	return nil
}

func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}
