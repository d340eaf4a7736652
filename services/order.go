package services

import (
	"context"
	"sort"
	"time"

	"storefront/models"
	"storefront/payment"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type OrderItemInput struct {
	ProductID uint `json:"productID" binding:"required"`
	Quantity  uint `json:"quantity" binding:"required,gt=0"`
}

// Items為空時以購物車內的商品下單，AddressID不為0時使用已儲存的地址
type PlaceOrderInput struct {
	Items          []OrderItemInput `json:"items"`
	ShippingMethod string           `json:"shippingMethod" binding:"required"`
	AddressID      uint             `json:"addressID"`
	Name           string           `json:"name"`
	Address        string           `json:"address"`
	Phone          string           `json:"phone"`
}

// 允許的訂單狀態變更
var orderTransitions = map[string][]string{
	models.OrderStatusPending: {models.OrderStatusPaid, models.OrderStatusCancelled},
	models.OrderStatusPaid:    {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped: {models.OrderStatusCompleted},
	// 退款完成後由管理員更新
	models.OrderStatusRefundRequired: {models.OrderStatusRefunded},
}

func canTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// pendingTimeout為未付款訂單的保留時間，付款頁面不會晚於此時間失效
type OrderService struct {
	db             *gorm.DB
	catalog        *CatalogService
	carts          *CartService
	gateway        payment.Gateway
	pendingTimeout time.Duration
	log            *logrus.Logger
}

func NewOrderService(db *gorm.DB, catalog *CatalogService, carts *CartService, gateway payment.Gateway, pendingTimeout time.Duration, log *logrus.Logger) *OrderService {
	return &OrderService{
		db:             db,
		catalog:        catalog,
		carts:          carts,
		gateway:        gateway,
		pendingTimeout: pendingTimeout,
		log:            log,
	}
}

// 合併相同商品並依ID排序，固定上鎖順序
func normalizeItems(items []OrderItemInput) ([]OrderItemInput, error) {
	quantities := make(map[uint]uint, len(items))
	for _, item := range items {
		if item.Quantity == 0 {
			return nil, ErrInvalidQuantity
		}
		quantities[item.ProductID] += item.Quantity
	}

	normalized := make([]OrderItemInput, 0, len(quantities))
	for productID, quantity := range quantities {
		normalized = append(normalized, OrderItemInput{ProductID: productID, Quantity: quantity})
	}
	sort.Slice(normalized, func(i, j int) bool {
		return normalized[i].ProductID < normalized[j].ProductID
	})
	return normalized, nil
}

func (s *OrderService) itemsFromCart(ctx context.Context, tenantID, userID uint) ([]OrderItemInput, error) {
	view, err := s.carts.GetCart(ctx, CartOwner{TenantID: tenantID, UserID: userID})
	if err != nil {
		return nil, err
	}
	items := make([]OrderItemInput, 0, len(view.Items))
	for _, line := range view.Items {
		items = append(items, OrderItemInput{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return items, nil
}

func shippingFromAddress(tx *gorm.DB, tenantID, userID uint, in *PlaceOrderInput) error {
	if in.AddressID != 0 {
		var address models.Address
		err := tx.Where("id = ? AND tenant_id = ? AND user_id = ?", in.AddressID, tenantID, userID).First(&address).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAddressNotFound
			}
			return errors.Wrap(err, "查詢地址失敗")
		}
		in.Name = address.Recipient
		in.Phone = address.Phone
		in.Address = FormatAddress(address)
	}
	if in.Name == "" || in.Address == "" || in.Phone == "" {
		return ErrShippingRequired
	}
	return nil
}

// 建立訂單，扣除庫存並記錄下單當下的商品名稱與價格
func (s *OrderService) PlaceOrder(ctx context.Context, tenantID, userID uint, in PlaceOrderInput) (*models.Order, error) {
	items := in.Items
	if len(items) == 0 {
		var err error
		items, err = s.itemsFromCart(ctx, tenantID, userID)
		if err != nil {
			return nil, err
		}
	}
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	items, err := normalizeItems(items)
	if err != nil {
		return nil, err
	}

	order := models.Order{
		TenantID:       tenantID,
		OrderNumber:    "ORD-" + uuid.NewString(),
		UserID:         userID,
		ShippingMethod: in.ShippingMethod,
		Status:         models.OrderStatusPending,
	}
	productIDs := make([]uint, 0, len(items))

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := shippingFromAddress(tx, tenantID, userID, &in); err != nil {
			return err
		}
		order.Name = in.Name
		order.Address = in.Address
		order.Phone = in.Phone

		var tenant models.Tenant
		if err := tx.First(&tenant, tenantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTenantNotFound
			}
			return errors.Wrap(err, "查詢商店失敗")
		}
		order.Currency = tenant.Currency

		for _, item := range items {
			var product models.Product
			err := lockForUpdate(tx).
				Where("id = ? AND tenant_id = ?", item.ProductID, tenantID).
				First(&product).
				Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrProductNotFound
				}
				return errors.Wrap(err, "查詢庫存失敗")
			}

			if product.Stock < item.Quantity {
				return errors.Wrapf(ErrInsufficientStock, "%s", product.Name)
			}

			result := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", product.ID, item.Quantity).
				Update("stock", gorm.Expr("stock - ?", item.Quantity))
			if result.Error != nil {
				return errors.Wrap(result.Error, "更新庫存失敗")
			}
			if result.RowsAffected == 0 {
				return errors.Wrapf(ErrInsufficientStock, "%s", product.Name)
			}

			orderItem := models.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				UnitPrice:   product.Price,
				Quantity:    item.Quantity,
			}
			order.OrderItems = append(order.OrderItems, orderItem)
			order.Total += orderItem.Subtotal()
			productIDs = append(productIDs, product.ID)
		}

		if err := tx.Create(&order).Error; err != nil {
			return errors.Wrap(err, "提交訂單失敗")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.carts.RemoveProducts(ctx, tenantID, userID, productIDs); err != nil {
		s.log.WithError(err).WithField("order", order.OrderNumber).Warn("訂單已送出，但清除購物車對應商品失敗")
	}
	s.catalog.RefreshProducts(ctx, tenantID, productIDs...)

	return &order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, tenantID, userID uint, limit, offset int) ([]models.Order, int64, error) {
	limit, offset = paginate(limit, offset)

	query := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "查詢訂單數量失敗")
	}

	var orders []models.Order
	err := query.
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).
		Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "查詢訂單列表失敗")
	}
	return orders, total, nil
}

// 查詢訂單詳細資料，userID為0時不限制使用者
func (s *OrderService) GetOrder(ctx context.Context, tenantID, userID, orderID uint) (*models.Order, error) {
	query := s.db.WithContext(ctx).
		Preload("OrderItems").
		Where("id = ? AND tenant_id = ?", orderID, tenantID)
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}

	var order models.Order
	if err := query.First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "查詢訂單資料失敗")
	}
	return &order, nil
}

// 查詢商店所有訂單，status為空時不篩選
func (s *OrderService) ListAllOrders(ctx context.Context, tenantID uint, status string, limit, offset int) ([]models.Order, int64, error) {
	limit, offset = paginate(limit, offset)

	query := s.db.WithContext(ctx).Model(&models.Order{}).Where("tenant_id = ?", tenantID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "查詢訂單數量失敗")
	}

	var orders []models.Order
	err := query.
		Preload("OrderItems").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).
		Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "查詢訂單列表失敗")
	}
	return orders, total, nil
}

// 建立付款頁面並記錄付款session
func (s *OrderService) Checkout(ctx context.Context, tenantID, userID, orderID uint) (*models.Order, *payment.CheckoutSession, error) {
	order, err := s.GetOrder(ctx, tenantID, userID, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.Status != models.OrderStatusPending {
		return nil, nil, ErrInvalidOrderStatus
	}
	var deadline time.Time
	if s.pendingTimeout > 0 {
		deadline = order.CreatedAt.Add(s.pendingTimeout)
		if time.Now().After(deadline) {
			return nil, nil, ErrOrderExpired
		}
	}

	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "email").First(&user, userID).Error; err != nil {
		return nil, nil, errors.Wrap(err, "查詢使用者失敗")
	}

	req := payment.CheckoutRequest{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Currency:      order.Currency,
		CustomerEmail: user.Email,
		ExpiresAt:     deadline,
	}
	for _, item := range order.OrderItems {
		req.Items = append(req.Items, payment.LineItem{
			Name:       item.ProductName,
			UnitAmount: item.UnitPrice,
			Quantity:   int64(item.Quantity),
		})
	}

	session, err := s.gateway.CreateCheckout(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	err = s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("payment_session_id", session.ID).
		Error
	if err != nil {
		return nil, nil, errors.Wrap(err, "儲存付款資料失敗")
	}
	order.PaymentSessionID = session.ID
	return order, session, nil
}

func findOrderForUpdate(tx *gorm.DB, query interface{}, args ...interface{}) (*models.Order, error) {
	var order models.Order
	err := lockForUpdate(tx).
		Preload("OrderItems").
		Where(query, args...).
		First(&order).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "查詢訂單失敗")
	}
	return &order, nil
}

func markPaid(tx *gorm.DB, order *models.Order) error {
	now := time.Now()
	err := tx.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{"status": models.OrderStatusPaid, "paid_at": now}).
		Error
	if err != nil {
		return errors.Wrap(err, "更新訂單狀態失敗")
	}
	order.Status = models.OrderStatusPaid
	order.PaidAt = &now
	return nil
}

// 重新保留已取消訂單的庫存，任一商品不足或已下架時不做任何變更並回傳false
func reserveStock(tx *gorm.DB, order *models.Order) (bool, error) {
	items := append([]models.OrderItem(nil), order.OrderItems...)
	sort.Slice(items, func(i, j int) bool {
		return items[i].ProductID < items[j].ProductID
	})

	for _, item := range items {
		var product models.Product
		err := lockForUpdate(tx).
			Where("id = ? AND tenant_id = ?", item.ProductID, order.TenantID).
			First(&product).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, errors.Wrap(err, "查詢庫存失敗")
		}
		if product.Stock < item.Quantity {
			return false, nil
		}
	}

	for _, item := range items {
		result := tx.Model(&models.Product{}).
			Where("id = ? AND stock >= ?", item.ProductID, item.Quantity).
			Update("stock", gorm.Expr("stock - ?", item.Quantity))
		if result.Error != nil {
			return false, errors.Wrap(result.Error, "更新庫存失敗")
		}
		if result.RowsAffected == 0 {
			return false, errors.Wrapf(ErrInsufficientStock, "%s", item.ProductName)
		}
	}
	return true, nil
}

// 將訂單標記為已付款，重複通知時回傳changed為false
// 已取消的訂單會重新保留庫存，庫存不足時改為等待退款
func (s *OrderService) MarkPaid(ctx context.Context, orderNumber, sessionID string) (order *models.Order, changed bool, err error) {
	var productIDs []uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err = findOrderForUpdate(tx, "order_number = ?", orderNumber)
		if err != nil {
			return err
		}

		switch order.Status {
		case models.OrderStatusPaid, models.OrderStatusShipped, models.OrderStatusCompleted,
			models.OrderStatusRefundRequired, models.OrderStatusRefunded:
			return nil
		case models.OrderStatusCancelled:
			reserved, err := reserveStock(tx, order)
			if err != nil {
				return err
			}
			if !reserved {
				err := tx.Model(&models.Order{}).
					Where("id = ?", order.ID).
					Update("status", models.OrderStatusRefundRequired).
					Error
				if err != nil {
					return errors.Wrap(err, "更新訂單狀態失敗")
				}
				order.Status = models.OrderStatusRefundRequired
				changed = true
				return savePaymentSession(tx, order, sessionID)
			}
			for _, item := range order.OrderItems {
				productIDs = append(productIDs, item.ProductID)
			}
		}

		if err := markPaid(tx, order); err != nil {
			return err
		}
		changed = true
		return savePaymentSession(tx, order, sessionID)
	})
	if err != nil {
		return nil, false, err
	}

	s.catalog.RefreshProducts(ctx, order.TenantID, productIDs...)
	return order, changed, nil
}

func savePaymentSession(tx *gorm.DB, order *models.Order, sessionID string) error {
	if sessionID == "" || order.PaymentSessionID == sessionID {
		return nil
	}
	err := tx.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("payment_session_id", sessionID).
		Error
	if err != nil {
		return errors.Wrap(err, "儲存付款資料失敗")
	}
	order.PaymentSessionID = sessionID
	return nil
}

// 處理付款通知，非付款完成的事件直接忽略
func (s *OrderService) HandlePaymentEvent(ctx context.Context, event *payment.WebhookEvent) error {
	if event.Type != payment.EventCheckoutCompleted || !event.Paid {
		s.log.WithField("type", event.Type).Debug("忽略付款通知")
		return nil
	}

	order, changed, err := s.MarkPaid(ctx, event.OrderNumber, event.SessionID)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if order.Status == models.OrderStatusRefundRequired {
		s.log.WithField("order", order.OrderNumber).Error("訂單已取消且庫存不足，需要退款")
		return nil
	}
	s.log.WithField("order", order.OrderNumber).Info("訂單已付款")
	return nil
}

// 取消訂單並歸還庫存，回傳受影響的商品ID
func cancelOrder(tx *gorm.DB, order *models.Order) ([]uint, error) {
	productIDs := make([]uint, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		err := tx.Model(&models.Product{}).
			Where("id = ?", item.ProductID).
			Update("stock", gorm.Expr("stock + ?", item.Quantity)).
			Error
		if err != nil {
			return nil, errors.Wrap(err, "歸還庫存失敗")
		}
		productIDs = append(productIDs, item.ProductID)
	}

	err := tx.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("status", models.OrderStatusCancelled).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "取消訂單失敗")
	}
	order.Status = models.OrderStatusCancelled
	return productIDs, nil
}

// 使用者取消尚未付款的訂單
func (s *OrderService) Cancel(ctx context.Context, tenantID, userID, orderID uint) (*models.Order, error) {
	var (
		order      *models.Order
		productIDs []uint
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = findOrderForUpdate(tx, "id = ? AND tenant_id = ? AND user_id = ?", orderID, tenantID, userID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusPending {
			return ErrInvalidOrderStatus
		}
		productIDs, err = cancelOrder(tx, order)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.catalog.RefreshProducts(ctx, tenantID, productIDs...)
	return order, nil
}

// 管理員變更訂單狀態
func (s *OrderService) UpdateStatus(ctx context.Context, tenantID, orderID uint, status string) (*models.Order, error) {
	var (
		order      *models.Order
		productIDs []uint
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = findOrderForUpdate(tx, "id = ? AND tenant_id = ?", orderID, tenantID)
		if err != nil {
			return err
		}
		if !canTransition(order.Status, status) {
			return ErrInvalidOrderStatus
		}

		switch status {
		case models.OrderStatusCancelled:
			productIDs, err = cancelOrder(tx, order)
			return err
		case models.OrderStatusPaid:
			return markPaid(tx, order)
		default:
			err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", status).Error
			if err != nil {
				return errors.Wrap(err, "更新訂單狀態失敗")
			}
			order.Status = status
			return nil
		}
	})
	if err != nil {
		return nil, err
	}

	s.catalog.RefreshProducts(ctx, tenantID, productIDs...)
	return order, nil
}

// 以錢包餘額支付訂單
func (s *OrderService) PayWithWallet(ctx context.Context, tenantID, userID, orderID uint) (*models.Order, *models.WalletBalance, error) {
	var (
		order   *models.Order
		balance *models.WalletBalance
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = findOrderForUpdate(tx, "id = ? AND tenant_id = ? AND user_id = ?", orderID, tenantID, userID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusPending {
			return ErrInvalidOrderStatus
		}

		balance, err = debitBalance(tx, userID, normalizeCurrency(order.Currency), order.Total, models.WalletTxPayment, order.OrderNumber)
		if err != nil {
			return err
		}
		return markPaid(tx, order)
	})
	if err != nil {
		return nil, nil, err
	}
	return order, balance, nil
}

var errPaymentProcessing = errors.New("付款處理中")

// 逾期訂單已有付款頁面時先向付款服務確認，已付款回傳true，仍開啟的付款頁面先讓它失效
func (s *OrderService) settleSession(ctx context.Context, order models.Order) (bool, error) {
	state, err := s.gateway.SessionState(ctx, order.PaymentSessionID)
	if err != nil {
		return false, err
	}

	switch state {
	case payment.SessionPaid:
		_, _, err := s.MarkPaid(ctx, order.OrderNumber, order.PaymentSessionID)
		return true, err
	case payment.SessionOpen:
		return false, s.gateway.ExpireCheckout(ctx, order.PaymentSessionID)
	case payment.SessionProcessing:
		return false, errPaymentProcessing
	default:
		return false, nil
	}
}

// 取消建立時間早於olderThan的未付款訂單，回傳取消的數量
// 無法確認付款狀態的訂單留到下一次處理，避免誤取消
func (s *OrderService) CancelExpired(ctx context.Context, olderThan time.Duration) (int, error) {
	deadline := time.Now().Add(-olderThan)

	var candidates []models.Order
	err := s.db.WithContext(ctx).
		Select("id", "tenant_id", "order_number", "payment_session_id").
		Where("status = ? AND created_at < ?", models.OrderStatusPending, deadline).
		Order("id").
		Find(&candidates).
		Error
	if err != nil {
		return 0, errors.Wrap(err, "查詢逾期訂單失敗")
	}

	cancelled := 0
	for _, candidate := range candidates {
		log := s.log.WithField("orderID", candidate.ID)
		if candidate.PaymentSessionID != "" {
			paid, err := s.settleSession(ctx, candidate)
			if err != nil {
				log.WithError(err).Warn("無法確認逾期訂單的付款狀態，暫不取消")
				continue
			}
			if paid {
				log.Info("逾期訂單已完成付款，更新為已付款")
				continue
			}
		}

		var productIDs []uint
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			order, err := findOrderForUpdate(tx, "id = ?", candidate.ID)
			if err != nil {
				return err
			}
			//已被付款或取消
			if order.Status != models.OrderStatusPending {
				return nil
			}
			productIDs, err = cancelOrder(tx, order)
			return err
		})
		if err != nil {
			log.WithError(err).Error("取消逾期訂單失敗")
			continue
		}
		if len(productIDs) > 0 {
			cancelled++
			s.catalog.RefreshProducts(ctx, candidate.TenantID, productIDs...)
		}
	}
	return cancelled, nil
}
