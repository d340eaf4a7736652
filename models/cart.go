package models

import "gorm.io/gorm"

// 會員購物車以UserID識別，匿名購物車以AnonymousCartUUID識別
type Cart struct {
	gorm.Model
	TenantID          uint       `gorm:"index;not null"`
	UserID            uint       `gorm:"index"`
	AnonymousCartUUID *string    `gorm:"size:36;unique"`
	CartItems         []CartItem `gorm:"foreignKey:CartID"`
}
