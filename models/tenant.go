package models

import "gorm.io/gorm"

type Tenant struct {
	gorm.Model
	Slug     string `gorm:"size:64;uniqueIndex;not null"`
	Name     string `gorm:"not null"`
	Currency string `gorm:"size:3;not null"`
}
