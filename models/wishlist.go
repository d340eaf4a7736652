package models

import "gorm.io/gorm"

type WishlistItem struct {
	gorm.Model
	TenantID  uint `gorm:"uniqueIndex:idx_wishlist_owner_product;not null"`
	UserID    uint `gorm:"uniqueIndex:idx_wishlist_owner_product;not null"`
	ProductID uint `gorm:"uniqueIndex:idx_wishlist_owner_product;not null"`
	Product   Product
}
