package services

import (
	"context"

	"storefront/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type WishlistService struct {
	db *gorm.DB
}

func NewWishlistService(db *gorm.DB) *WishlistService {
	return &WishlistService{db: db}
}

func (s *WishlistService) List(ctx context.Context, tenantID, userID uint) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := s.db.WithContext(ctx).
		Preload("Product").
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Order("id DESC").
		Find(&items).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "查詢願望清單失敗")
	}
	return items, nil
}

// 加入願望清單，已存在時不重複新增
func (s *WishlistService) Add(ctx context.Context, tenantID, userID, productID uint) (*models.WishlistItem, error) {
	var item models.WishlistItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := findTenantProduct(tx, tenantID, productID)
		if err != nil {
			return err
		}

		err = tx.
			Where(models.WishlistItem{TenantID: tenantID, UserID: userID, ProductID: productID}).
			FirstOrCreate(&item).
			Error
		if err != nil {
			return errors.Wrap(err, "加入願望清單失敗")
		}
		item.Product = *product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *WishlistService) Remove(ctx context.Context, tenantID, userID, productID uint) error {
	return removeWishlistItem(s.db.WithContext(ctx), tenantID, userID, productID)
}

func removeWishlistItem(tx *gorm.DB, tenantID, userID, productID uint) error {
	result := tx.Unscoped().
		Where("tenant_id = ? AND user_id = ? AND product_id = ?", tenantID, userID, productID).
		Delete(&models.WishlistItem{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "移除願望清單商品失敗")
	}
	if result.RowsAffected == 0 {
		return ErrWishlistItemAbsent
	}
	return nil
}

// 將願望清單的商品加入購物車(數量1)並從清單移除，任一步失敗時兩者都不變
func (s *WishlistService) MoveToCart(ctx context.Context, tenantID, userID, productID uint) (*models.CartItem, error) {
	var item *models.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := removeWishlistItem(tx, tenantID, userID, productID); err != nil {
			return err
		}

		var err error
		item, err = addCartItem(tx, CartOwner{TenantID: tenantID, UserID: userID}, productID, 1)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}
