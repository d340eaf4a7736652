package models

import "gorm.io/gorm"

type Address struct {
	gorm.Model
	TenantID   uint   `gorm:"index:idx_address_owner;not null"`
	UserID     uint   `gorm:"index:idx_address_owner;not null"`
	Recipient  string `gorm:"not null"`
	Phone      string `gorm:"not null"`
	Line1      string `gorm:"not null"`
	Line2      string
	City       string `gorm:"not null"`
	PostalCode string
	Country    string `gorm:"size:2;not null"`
	IsDefault  bool   `gorm:"default:false"`
}
