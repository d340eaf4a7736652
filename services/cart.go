package services

import (
	"context"

	"storefront/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartOwner識別購物車，已登入時以UserID為準，否則使用匿名購物車ID
type CartOwner struct {
	TenantID    uint
	UserID      uint
	AnonymousID string
}

func (o CartOwner) IsAnonymous() bool {
	return o.UserID == 0
}

type CartLine struct {
	ProductID uint   `json:"productID"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	ImageURL  string `json:"imageURL"`
	Stock     uint   `json:"stock"`
	Quantity  uint   `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

type CartView struct {
	CartID uint       `json:"cartID"`
	Items  []CartLine `json:"items"`
	Total  int64      `json:"total"`
}

type CartService struct {
	db *gorm.DB
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

func ownerQuery(tx *gorm.DB, owner CartOwner) *gorm.DB {
	query := tx.Where("tenant_id = ?", owner.TenantID)
	if owner.IsAnonymous() {
		return query.Where("anonymous_cart_uuid = ?", owner.AnonymousID)
	}
	return query.Where("user_id = ? AND anonymous_cart_uuid IS NULL", owner.UserID)
}

func findCart(tx *gorm.DB, owner CartOwner) (*models.Cart, error) {
	if owner.IsAnonymous() && owner.AnonymousID == "" {
		return nil, ErrCartNotFound
	}

	var cart models.Cart
	err := ownerQuery(tx, owner).
		Preload("CartItems", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("CartItems.Product").
		First(&cart).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, errors.Wrap(err, "查詢購物車失敗")
	}
	return &cart, nil
}

func findOrCreateCart(tx *gorm.DB, owner CartOwner) (*models.Cart, error) {
	cart, err := findCart(tx, owner)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ErrCartNotFound) {
		return nil, err
	}
	if owner.IsAnonymous() && owner.AnonymousID == "" {
		return nil, ErrCartNotFound
	}

	cart = &models.Cart{TenantID: owner.TenantID, UserID: owner.UserID}
	if owner.IsAnonymous() {
		anonymousID := owner.AnonymousID
		cart.AnonymousCartUUID = &anonymousID
	}
	if err := tx.Create(cart).Error; err != nil {
		return nil, errors.Wrap(err, "新增購物車失敗")
	}
	return cart, nil
}

func findCartItem(cart *models.Cart, productID uint) *models.CartItem {
	for i := range cart.CartItems {
		if cart.CartItems[i].ProductID == productID {
			return &cart.CartItems[i]
		}
	}
	return nil
}

func findTenantProduct(tx *gorm.DB, tenantID, productID uint) (*models.Product, error) {
	var product models.Product
	err := tx.Where("id = ? AND tenant_id = ?", productID, tenantID).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, errors.Wrap(err, "查詢商品庫存錯誤")
	}
	return &product, nil
}

// 商品數量不可超過庫存
func clampQuantity(quantity, stock uint) uint {
	if quantity > stock {
		return stock
	}
	return quantity
}

// 新增商品至購物車，購物車已有相同商品時增加數量
func (s *CartService) AddItem(ctx context.Context, owner CartOwner, productID, quantity uint) (*models.CartItem, error) {
	if quantity == 0 {
		return nil, ErrInvalidQuantity
	}

	var item *models.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = addCartItem(tx, owner, productID, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func addCartItem(tx *gorm.DB, owner CartOwner, productID, quantity uint) (*models.CartItem, error) {
	product, err := findTenantProduct(tx, owner.TenantID, productID)
	if err != nil {
		return nil, err
	}
	if product.Stock == 0 {
		return nil, ErrOutOfStock
	}

	cart, err := findOrCreateCart(tx, owner)
	if err != nil {
		return nil, err
	}

	var item models.CartItem
	if existing := findCartItem(cart, productID); existing != nil {
		item = *existing
		item.Quantity += quantity
	} else {
		item = models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}
	}
	item.Quantity = clampQuantity(item.Quantity, product.Stock)

	if err := tx.Omit(clause.Associations).Save(&item).Error; err != nil {
		return nil, errors.Wrap(err, "新增物品至購物車失敗")
	}
	item.Product = *product
	return &item, nil
}

// 修改購物車商品數量
func (s *CartService) UpdateItemQuantity(ctx context.Context, owner CartOwner, productID, quantity uint) (*models.CartItem, error) {
	if quantity == 0 {
		return nil, ErrInvalidQuantity
	}

	var item models.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := findCart(tx, owner)
		if err != nil {
			return err
		}
		existing := findCartItem(cart, productID)
		if existing == nil {
			return ErrCartItemNotFound
		}

		product, err := findTenantProduct(tx, owner.TenantID, productID)
		if err != nil {
			return err
		}

		item = *existing
		item.Quantity = clampQuantity(quantity, product.Stock)
		if item.Quantity == 0 {
			return ErrOutOfStock
		}
		err = tx.Model(&models.CartItem{}).
			Where("id = ?", item.ID).
			Update("quantity", item.Quantity).
			Error
		if err != nil {
			return errors.Wrap(err, "修改購物車商品數量失敗")
		}
		item.Product = *product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// 刪除購物車商品
func (s *CartService) RemoveItem(ctx context.Context, owner CartOwner, productID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := findCart(tx, owner)
		if err != nil {
			return err
		}

		result := tx.Unscoped().
			Where("cart_id = ? AND product_id = ?", cart.ID, productID).
			Delete(&models.CartItem{})
		if result.Error != nil {
			return errors.Wrap(result.Error, "刪除購物車商品失敗")
		}
		if result.RowsAffected == 0 {
			return ErrCartItemNotFound
		}
		return nil
	})
}

// 清空購物車
func (s *CartService) Clear(ctx context.Context, owner CartOwner) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := findCart(tx, owner)
		if err != nil {
			return err
		}
		err = tx.Unscoped().Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error
		if err != nil {
			return errors.Wrap(err, "清空購物車失敗")
		}
		return nil
	})
}

// 查詢購物車，沒有購物車時回傳空的購物車
func (s *CartService) GetCart(ctx context.Context, owner CartOwner) (*CartView, error) {
	cart, err := findCart(s.db.WithContext(ctx), owner)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return &CartView{Items: []CartLine{}}, nil
		}
		return nil, err
	}

	view := &CartView{CartID: cart.ID, Items: make([]CartLine, 0, len(cart.CartItems))}
	for _, item := range cart.CartItems {
		//商品已被刪除
		if item.Product.ID == 0 {
			continue
		}
		line := CartLine{
			ProductID: item.ProductID,
			Name:      item.Product.Name,
			Price:     item.Product.Price,
			ImageURL:  item.Product.ImageURL,
			Stock:     item.Product.Stock,
			Quantity:  item.Quantity,
			Subtotal:  item.Product.Price * int64(item.Quantity),
		}
		view.Items = append(view.Items, line)
		view.Total += line.Subtotal
	}
	return view, nil
}

// Merge將匿名購物車併入會員購物車並刪除匿名購物車，回傳合併的商品數
func (s *CartService) Merge(ctx context.Context, tenantID, userID uint, anonymousID string) (int, error) {
	if anonymousID == "" {
		return 0, nil
	}

	merged := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		anonymousCart, err := findCart(tx, CartOwner{TenantID: tenantID, AnonymousID: anonymousID})
		if err != nil {
			if errors.Is(err, ErrCartNotFound) {
				return nil
			}
			return err
		}

		userCart, err := findOrCreateCart(tx, CartOwner{TenantID: tenantID, UserID: userID})
		if err != nil {
			return err
		}

		for _, anonymousItem := range anonymousCart.CartItems {
			product := anonymousItem.Product
			if product.ID == 0 || product.Stock == 0 {
				continue
			}

			var item models.CartItem
			if existing := findCartItem(userCart, anonymousItem.ProductID); existing != nil {
				item = *existing
				item.Quantity += anonymousItem.Quantity
			} else {
				item = models.CartItem{
					CartID:    userCart.ID,
					ProductID: anonymousItem.ProductID,
					Quantity:  anonymousItem.Quantity,
				}
			}
			item.Quantity = clampQuantity(item.Quantity, product.Stock)

			if err := tx.Omit(clause.Associations).Save(&item).Error; err != nil {
				return errors.Wrap(err, "合併購物車商品失敗")
			}
			userCart.CartItems = append(userCart.CartItems, item)
			merged++
		}

		err = tx.Unscoped().Where("cart_id = ?", anonymousCart.ID).Delete(&models.CartItem{}).Error
		if err != nil {
			return errors.Wrap(err, "刪除匿名購物車商品失敗")
		}
		if err := tx.Unscoped().Delete(&models.Cart{}, anonymousCart.ID).Error; err != nil {
			return errors.Wrap(err, "刪除匿名購物車失敗")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return merged, nil
}

// 從會員購物車移除已下單的商品
func (s *CartService) RemoveProducts(ctx context.Context, tenantID, userID uint, productIDs []uint) error {
	if len(productIDs) == 0 {
		return nil
	}

	db := s.db.WithContext(ctx)
	cart, err := findCart(db, CartOwner{TenantID: tenantID, UserID: userID})
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return nil
		}
		return err
	}

	err = db.Unscoped().
		Where("cart_id = ? AND product_id IN ?", cart.ID, productIDs).
		Delete(&models.CartItem{}).
		Error
	if err != nil {
		return errors.Wrap(err, "移除購物車商品失敗")
	}
	return nil
}
