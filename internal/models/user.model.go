package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleCoordinator   Role = "COORDINATOR"
	RoleSupervisor    Role = "SUPERVISOR"
	RoleMechanic      Role = "MECHANIC"
	RoleDriver        Role = "DRIVER"
	RoleGuard         Role = "GUARD"
	RoleWorkshopChief Role = "WORKSHOP_CHIEF"
)

// Specialty applies to mechanics only and is advisory for work assignment.
type Specialty string

const (
	SpecialtyGeneral     Specialty = "GENERAL"
	SpecialtyEngine      Specialty = "ENGINE"
	SpecialtyElectrical  Specialty = "ELECTRICAL"
	SpecialtyBrakes      Specialty = "BRAKES"
	SpecialtyHVAC        Specialty = "HVAC"
	SpecialtyBodywork    Specialty = "BODYWORK"
	SpecialtyTires       Specialty = "TIRES"
	SpecialtyDiagnostics Specialty = "DIAGNOSTICS"
)

type User struct {
	BaseUUIDModel
	Username     string     `gorm:"type:text;uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"type:text;not null"             json:"-"`
	FirstName    string     `gorm:"type:text"                      json:"firstName"`
	LastName     string     `gorm:"type:text"                      json:"lastName"`
	FullName     string     `gorm:"type:text"                      json:"fullName"`
	Email        *string    `gorm:"type:text;uniqueIndex"          json:"email"`
	Role         Role       `gorm:"type:text;not null;index"       json:"role"`
	Specialty    *Specialty `gorm:"type:text"                      json:"specialty,omitempty"`
	IsActive     bool       `gorm:"type:bool;default:true"         json:"isActive"`
	LastLoginAt  *time.Time `gorm:"type:timestamp"                 json:"lastLoginAt,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Username == "" {
		return gorm.ErrInvalidValue
	}
	if u.Role == "" {
		return gorm.ErrInvalidValue
	}
	u.FullName = strings.TrimSpace(u.FirstName + " " + u.LastName)
	return nil
}

// DisplayName prefers the full name, falling back to the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// EffectiveSpecialty returns GENERAL for mechanics with no recorded specialty.
func (u *User) EffectiveSpecialty() Specialty {
	if u.Specialty == nil || *u.Specialty == "" {
		return SpecialtyGeneral
	}
	return *u.Specialty
}

// UserProfile is the public projection returned by the API.
type UserProfile struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	FullName  string     `json:"fullName"`
	Role      Role       `json:"role"`
	Specialty *Specialty `json:"specialty,omitempty"`
	IsActive  bool       `json:"isActive"`
}

func (u *User) ToProfile() UserProfile {
	return UserProfile{
		ID:        u.ID.String(),
		Username:  u.Username,
		FullName:  u.FullName,
		Role:      u.Role,
		Specialty: u.Specialty,
		IsActive:  u.IsActive,
	}
}
