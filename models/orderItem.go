package models

import "gorm.io/gorm"

// ProductName與UnitPrice為下單當下的快照
type OrderItem struct {
	gorm.Model
	OrderID     uint    `gorm:"index;not null"`
	ProductID   uint    `gorm:"index;not null"`
	Product     Product `json:"-"`
	ProductName string
	UnitPrice   int64 `gorm:"not null"`
	Quantity    uint  `gorm:"not null"`
}

func (i OrderItem) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}
