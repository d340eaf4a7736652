package services

import (
	"testing"

	"storefront/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWishlistService(t *testing.T) {
	f := newFixture(t)
	mug := testutil.CreateProduct(t, f.db, f.tenant.ID, "mug", 1250, 5)

	_, err := f.wishlist.Add(f.ctx, f.tenant.ID, f.user.ID, mug.ID)
	require.NoError(t, err)
	_, err = f.wishlist.Add(f.ctx, f.tenant.ID, f.user.ID, mug.ID)
	require.NoError(t, err)

	items, err := f.wishlist.List(f.ctx, f.tenant.ID, f.user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "mug", items[0].Product.Name)

	_, err = f.wishlist.Add(f.ctx, f.tenant.ID, f.user.ID, mug.ID+10)
	assert.ErrorIs(t, err, ErrProductNotFound)

	item, err := f.wishlist.MoveToCart(f.ctx, f.tenant.ID, f.user.ID, mug.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(1), item.Quantity)

	items, err = f.wishlist.List(f.ctx, f.tenant.ID, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	view, err := f.carts.GetCart(f.ctx, f.userCart())
	require.NoError(t, err)
	require.Len(t, view.Items, 1)

	_, err = f.wishlist.MoveToCart(f.ctx, f.tenant.ID, f.user.ID, mug.ID)
	assert.ErrorIs(t, err, ErrWishlistItemAbsent)
	assert.ErrorIs(t, f.wishlist.Remove(f.ctx, f.tenant.ID, f.user.ID, mug.ID), ErrWishlistItemAbsent)
}

func TestWishlistService_MoveToCartOutOfStockKeepsItem(t *testing.T) {
	f := newFixture(t)
	mug := testutil.CreateProduct(t, f.db, f.tenant.ID, "mug", 1250, 5)

	_, err := f.wishlist.Add(f.ctx, f.tenant.ID, f.user.ID, mug.ID)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(mug).Update("stock", 0).Error)

	_, err = f.wishlist.MoveToCart(f.ctx, f.tenant.ID, f.user.ID, mug.ID)
	assert.ErrorIs(t, err, ErrOutOfStock)

	items, err := f.wishlist.List(f.ctx, f.tenant.ID, f.user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, mug.ID, items[0].ProductID)

	view, err := f.carts.GetCart(f.ctx, f.userCart())
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}
