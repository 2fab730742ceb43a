package models

import (
	"gorm.io/gorm"
)

// School 表示一所學校，是多租戶架構中的最上層單位
type School struct {
	gorm.Model
	Name string `gorm:"size:255;not null" json:"name"`
}

// Team 表示一支球隊，隸屬於一所學校
type Team struct {
	gorm.Model
	SchoolID uint   `gorm:"not null;index" json:"school_id"`
	Name     string `gorm:"size:255;not null" json:"name"`

	School School `gorm:"foreignKey:SchoolID" json:"-"`
}
