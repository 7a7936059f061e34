package models

type Site struct {
	BaseUUIDModel
	Name string `gorm:"type:text;uniqueIndex;not null" json:"name"`
}

type Workshop struct {
	BaseUUIDModel
	Name     string `gorm:"type:text;not null" json:"name"`
	Location string `gorm:"type:text"          json:"location"`
}
