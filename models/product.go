package models

import "gorm.io/gorm"

// Price以最小貨幣單位儲存(例如美分)
type Product struct {
	gorm.Model
	TenantID    uint   `gorm:"index;not null"`
	Name        string `gorm:"not null"`
	Price       int64  `gorm:"not null"`
	Stock       uint   `gorm:"not null"`
	Description string
	ImageURL    string
	Categories  []Category `gorm:"many2many:category_products;"`
}
