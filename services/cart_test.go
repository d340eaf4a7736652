package services

import (
	"testing"

	"storefront/models"
	"storefront/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService_AddItem_MergesAndClampsToStock(t *testing.T) {
	f := newFixture(t)
	product := testutil.CreateProduct(t, f.db, f.tenant.ID, "mug", 1250, 5)

	item, err := f.carts.AddItem(f.ctx, f.userCart(), product.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(2), item.Quantity)

	item, err = f.carts.AddItem(f.ctx, f.userCart(), product.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, uint(5), item.Quantity)

	view, err := f.carts.GetCart(f.ctx, f.userCart())
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, uint(5), view.Items[0].Quantity)
	assert.Equal(t, int64(6250), view.Total)
}

func TestCartService_AddItem_Rejections(t *testing.T) {
	f := newFixture(t)
	soldOut := testutil.CreateProduct(t, f.db, f.tenant.ID, "poster", 500, 0)
	other := testutil.CreateTenant(t, f.db, "other")
	foreign := testutil.CreateProduct(t, f.db, other.ID, "hat", 900, 3)

	_, err := f.carts.AddItem(f.ctx, f.userCart(), soldOut.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = f.carts.AddItem(f.ctx, f.userCart(), soldOut.ID, 1)
	assert.ErrorIs(t, err, ErrOutOfStock)

	_, err = f.carts.AddItem(f.ctx, f.userCart(), foreign.ID, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	stocked := testutil.CreateProduct(t, f.db, f.tenant.ID, "mug", 1000, 3)
	_, err = f.carts.AddItem(f.ctx, CartOwner{TenantID: f.tenant.ID}, stocked.ID, 1)
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestCartService_UpdateAndRemove(t *testing.T) {
	f := newFixture(t)
	product := testutil.CreateProduct(t, f.db, f.tenant.ID, "mug", 1000, 4)
	owner := f.userCart()

	_, err := f.carts.UpdateItemQuantity(f.ctx, owner, product.ID, 1)
	assert.ErrorIs(t, err, ErrCartNotFound)

	_, err = f.carts.AddItem(f.ctx, owner, product.ID, 1)
	require.NoError(t, err)

	item, err := f.carts.UpdateItemQuantity(f.ctx, owner, product.ID, 9)
	require.NoError(t, err)
	assert.Equal(t, uint(4), item.Quantity)

	_, err = f.carts.UpdateItemQuantity(f.ctx, owner, product.ID+100, 1)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	require.NoError(t, f.carts.RemoveItem(f.ctx, owner, product.ID))
	assert.ErrorIs(t, f.carts.RemoveItem(f.ctx, owner, product.ID), ErrCartItemNotFound)

	view, err := f.carts.GetCart(f.ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCartService_GetCart_SkipsDeletedProducts(t *testing.T) {
	f := newFixture(t)
	kept := testutil.CreateProduct(t, f.db, f.tenant.ID, "mug", 1000, 4)
	removed := testutil.CreateProduct(t, f.db, f.tenant.ID, "cap", 700, 4)
	owner := f.userCart()

	_, err := f.carts.AddItem(f.ctx, owner, kept.ID, 1)
	require.NoError(t, err)
	_, err = f.carts.AddItem(f.ctx, owner, removed.ID, 2)
	require.NoError(t, err)
	require.NoError(t, f.db.Delete(&models.Product{}, removed.ID).Error)

	view, err := f.carts.GetCart(f.ctx, owner)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, kept.ID, view.Items[0].ProductID)
	assert.Equal(t, int64(1000), view.Total)
}

func TestCartService_GetCart_EmptyWithoutCart(t *testing.T) {
	f := newFixture(t)

	view, err := f.carts.GetCart(f.ctx, CartOwner{TenantID: f.tenant.ID, AnonymousID: uuid.NewString()})
	require.NoError(t, err)
	assert.Equal(t, uint(0), view.CartID)
	assert.NotNil(t, view.Items)
	assert.Empty(t, view.Items)
}

func TestCartService_Merge(t *testing.T) {
	f := newFixture(t)
	mug := testutil.CreateProduct(t, f.db, f.tenant.ID, "mug", 1000, 5)
	hat := testutil.CreateProduct(t, f.db, f.tenant.ID, "cap", 700, 3)
	anonymousID := uuid.NewString()
	guest := CartOwner{TenantID: f.tenant.ID, AnonymousID: anonymousID}

	_, err := f.carts.AddItem(f.ctx, f.userCart(), mug.ID, 3)
	require.NoError(t, err)
	_, err = f.carts.AddItem(f.ctx, guest, mug.ID, 4)
	require.NoError(t, err)
	_, err = f.carts.AddItem(f.ctx, guest, hat.ID, 2)
	require.NoError(t, err)

	merged, err := f.carts.Merge(f.ctx, f.tenant.ID, f.user.ID, anonymousID)
	require.NoError(t, err)
	assert.Equal(t, 2, merged)

	view, err := f.carts.GetCart(f.ctx, f.userCart())
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	quantities := map[uint]uint{}
	for _, line := range view.Items {
		quantities[line.ProductID] = line.Quantity
	}
	assert.Equal(t, uint(5), quantities[mug.ID])
	assert.Equal(t, uint(2), quantities[hat.ID])

	var anonymousCarts int64
	require.NoError(t, f.db.Unscoped().Model(&models.Cart{}).Where("anonymous_cart_uuid = ?", anonymousID).Count(&anonymousCarts).Error)
	assert.Zero(t, anonymousCarts)

	merged, err = f.carts.Merge(f.ctx, f.tenant.ID, f.user.ID, anonymousID)
	require.NoError(t, err)
	assert.Zero(t, merged)
}

func TestCartService_Merge_SkipsSoldOutProducts(t *testing.T) {
	f := newFixture(t)
	product := testutil.CreateProduct(t, f.db, f.tenant.ID, "mug", 1000, 2)
	anonymousID := uuid.NewString()

	_, err := f.carts.AddItem(f.ctx, CartOwner{TenantID: f.tenant.ID, AnonymousID: anonymousID}, product.ID, 2)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", product.ID).Update("stock", 0).Error)

	merged, err := f.carts.Merge(f.ctx, f.tenant.ID, f.user.ID, anonymousID)
	require.NoError(t, err)
	assert.Zero(t, merged)

	view, err := f.carts.GetCart(f.ctx, f.userCart())
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCartService_CartsAreTenantScoped(t *testing.T) {
	f := newFixture(t)
	other := testutil.CreateTenant(t, f.db, "other")
	mine := testutil.CreateProduct(t, f.db, f.tenant.ID, "mug", 1000, 2)
	theirs := testutil.CreateProduct(t, f.db, other.ID, "mug", 1100, 2)

	_, err := f.carts.AddItem(f.ctx, f.userCart(), mine.ID, 1)
	require.NoError(t, err)
	_, err = f.carts.AddItem(f.ctx, CartOwner{TenantID: other.ID, UserID: f.user.ID}, theirs.ID, 2)
	require.NoError(t, err)

	view, err := f.carts.GetCart(f.ctx, f.userCart())
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, mine.ID, view.Items[0].ProductID)
}
