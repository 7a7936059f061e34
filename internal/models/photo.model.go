package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CasePhoto records evidence attached to a case. The bytes live in an external
// object store; only the storage key and metadata are kept here.
type CasePhoto struct {
	BaseUUIDModel
	CaseID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_case_photos_case" json:"caseId"`
	UploaderID  uuid.UUID      `gorm:"type:uuid;not null"                            json:"uploaderId"`
	StorageKey  string         `gorm:"type:text;not null"                            json:"storageKey"`
	Description string         `gorm:"type:text"                                     json:"description"`
	Metadata    datatypes.JSON `gorm:"type:jsonb"                                    json:"metadata,omitempty"`

	Uploader *User `gorm:"foreignKey:UploaderID" json:"uploader,omitempty"`
}

func (p *CasePhoto) BeforeCreate(tx *gorm.DB) error {
	if p.CaseID == uuid.Nil || p.UploaderID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if p.StorageKey == "" {
		return gorm.ErrInvalidValue
	}
	return nil
}
