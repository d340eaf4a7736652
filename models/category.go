package models

import "gorm.io/gorm"

type Category struct {
	gorm.Model
	TenantID uint      `gorm:"index;not null"`
	Name     string    `gorm:"size:64;not null"`
	Products []Product `gorm:"many2many:category_products;" json:",omitempty"`
}
