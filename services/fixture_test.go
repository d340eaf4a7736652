package services

import (
	"context"
	"testing"
	"time"

	"storefront/logger"
	"storefront/models"
	"storefront/payment"
	"storefront/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	ctx      context.Context
	db       *gorm.DB
	mr       *miniredis.Miniredis
	tenant   *models.Tenant
	user     *models.User
	gateway  *payment.FakeGateway
	catalog  *CatalogService
	carts    *CartService
	orders   *OrderService
	wallet   *WalletService
	wishlist *WishlistService
	address  *AddressService
	blog     *BlogService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	rdb, mr := testutil.SetupTestRedis(t)
	log := logger.Discard()

	f := &fixture{
		ctx:     context.Background(),
		db:      db,
		mr:      mr,
		tenant:  testutil.CreateTenant(t, db, "acme"),
		user:    testutil.CreateUser(t, db, "alice_test", models.RoleUser),
		gateway: payment.NewFakeGateway("http://shop.test/success", ""),
	}
	f.catalog = NewCatalogService(db, rdb, log)
	f.carts = NewCartService(db)
	f.orders = NewOrderService(db, f.catalog, f.carts, f.gateway, 30*time.Minute, log)
	f.wallet = NewWalletService(db, "usd")
	f.wishlist = NewWishlistService(db)
	f.address = NewAddressService(db)
	f.blog = NewBlogService(db)

	require.NoError(t, f.wallet.SeedRates(f.ctx, map[string]float64{"usd": 1, "twd": 31.5, "eur": 0.9}))
	return f
}

func (f *fixture) userCart() CartOwner {
	return CartOwner{TenantID: f.tenant.ID, UserID: f.user.ID}
}

func (f *fixture) reloadProduct(t *testing.T, id uint) models.Product {
	t.Helper()

	var product models.Product
	require.NoError(t, f.db.Unscoped().First(&product, id).Error)
	return product
}

func shipping(items ...OrderItemInput) PlaceOrderInput {
	return PlaceOrderInput{
		Items:          items,
		ShippingMethod: "home",
		Name:           "Alice",
		Address:        "1 Main St, 10001 New York, US",
		Phone:          "0912345678",
	}
}
