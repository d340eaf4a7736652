package services

import (
	"testing"

	"storefront/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_ListProducts_BuildsCache(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"mug", "hat", "pen"} {
		testutil.CreateProduct(t, f.db, f.tenant.ID, name, 100, 1)
	}

	products, total, err := f.catalog.ListProducts(f.ctx, f.tenant.ID, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, products, 2)
	assert.Equal(t, "hat", products[0].Name)
	assert.Equal(t, "pen", products[1].Name)

	members, err := f.mr.ZMembers(productsKey(f.tenant.ID))
	require.NoError(t, err)
	assert.Len(t, members, 3)
}

func TestCatalogService_ListProducts_FallsBackToDatabase(t *testing.T) {
	f := newFixture(t)
	testutil.CreateProduct(t, f.db, f.tenant.ID, "mug", 100, 1)
	f.mr.Close()

	products, total, err := f.catalog.ListProducts(f.ctx, f.tenant.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, products, 1)
	assert.Equal(t, "mug", products[0].Name)
}

func TestCatalogService_ProductsAreTenantScoped(t *testing.T) {
	f := newFixture(t)
	other := testutil.CreateTenant(t, f.db, "other")
	testutil.CreateProduct(t, f.db, f.tenant.ID, "mug", 100, 1)
	foreign := testutil.CreateProduct(t, f.db, other.ID, "hat", 100, 1)

	products, total, err := f.catalog.ListProducts(f.ctx, f.tenant.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "mug", products[0].Name)

	_, err = f.catalog.GetProduct(f.ctx, f.tenant.ID, foreign.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCatalogService_CreateUpdateDelete(t *testing.T) {
	f := newFixture(t)

	product, err := f.catalog.CreateProduct(f.ctx, f.tenant.ID, ProductInput{
		Name:       "mug",
		Price:      1250,
		Stock:      3,
		ImageURL:   "/uploads/mug.png",
		Categories: []string{"kitchen", "gift", "kitchen", " "},
	})
	require.NoError(t, err)
	assert.Len(t, product.Categories, 2)

	products, _, err := f.catalog.ListProducts(f.ctx, f.tenant.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, products, 1)

	name := "big mug"
	updated, err := f.catalog.UpdateProduct(f.ctx, f.tenant.ID, product.ID, ProductPatch{
		Name:       &name,
		Categories: []string{"gift"},
	})
	require.NoError(t, err)
	assert.Equal(t, "big mug", updated.Name)
	require.Len(t, updated.Categories, 1)
	assert.Equal(t, "gift", updated.Categories[0].Name)

	products, _, err = f.catalog.ListProducts(f.ctx, f.tenant.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "big mug", products[0].Name)

	price := int64(0)
	_, err = f.catalog.UpdateProduct(f.ctx, f.tenant.ID, product.ID, ProductPatch{Price: &price})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	require.NoError(t, f.catalog.DeleteProduct(f.ctx, f.tenant.ID, product.ID))
	assert.ErrorIs(t, f.catalog.DeleteProduct(f.ctx, f.tenant.ID, product.ID), ErrProductNotFound)

	products, total, err := f.catalog.ListProducts(f.ctx, f.tenant.ID, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, products)
}

func TestCatalogService_ProductsWithAllCategories(t *testing.T) {
	f := newFixture(t)
	both, err := f.catalog.CreateProduct(f.ctx, f.tenant.ID, ProductInput{
		Name: "mug", Price: 100, ImageURL: "/uploads/mug.png", Categories: []string{"kitchen", "gift"},
	})
	require.NoError(t, err)
	_, err = f.catalog.CreateProduct(f.ctx, f.tenant.ID, ProductInput{
		Name: "pan", Price: 100, ImageURL: "/uploads/pan.png", Categories: []string{"kitchen"},
	})
	require.NoError(t, err)

	categoryIDs := make([]uint, 0, len(both.Categories))
	for _, category := range both.Categories {
		categoryIDs = append(categoryIDs, category.ID)
	}

	products, total, err := f.catalog.ProductsWithAllCategories(f.ctx, f.tenant.ID, categoryIDs, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, both.ID, products[0].ID)

	products, total, err = f.catalog.ProductsWithAllCategories(f.ctx, f.tenant.ID, categoryIDs[:1], 10, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Empty(t, products)
}

func TestCatalogService_DeleteCategory(t *testing.T) {
	f := newFixture(t)
	product, err := f.catalog.CreateProduct(f.ctx, f.tenant.ID, ProductInput{
		Name: "mug", Price: 100, ImageURL: "/uploads/mug.png", Categories: []string{"kitchen"},
	})
	require.NoError(t, err)

	_, _, err = f.catalog.ListProducts(f.ctx, f.tenant.ID, 10, 0)
	require.NoError(t, err)

	require.NoError(t, f.catalog.DeleteCategory(f.ctx, f.tenant.ID, product.Categories[0].ID))
	assert.False(t, f.mr.Exists(productsKey(f.tenant.ID)))
	assert.ErrorIs(t, f.catalog.DeleteCategory(f.ctx, f.tenant.ID, product.Categories[0].ID), ErrCategoryNotFound)

	reloaded, err := f.catalog.GetProduct(f.ctx, f.tenant.ID, product.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Categories)
}

func TestCatalogService_SearchProducts(t *testing.T) {
	f := newFixture(t)
	testutil.CreateProduct(t, f.db, f.tenant.ID, "Coffee Mug", 100, 1)
	testutil.CreateProduct(t, f.db, f.tenant.ID, "Tea Cup", 100, 1)

	products, total, err := f.catalog.SearchProducts(f.ctx, f.tenant.ID, "Mug", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, products, 1)
	assert.Equal(t, "Coffee Mug", products[0].Name)
}

func TestPaginate(t *testing.T) {
	limit, offset := paginate(0, -3)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 0, offset)

	limit, _ = paginate(500, 0)
	assert.Equal(t, 50, limit)
}

func TestCatalogService_RefreshWithoutCacheKeepsFullList(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"mug", "hat", "pen"} {
		testutil.CreateProduct(t, f.db, f.tenant.ID, name, 100, 1)
	}

	_, err := f.catalog.CreateProduct(f.ctx, f.tenant.ID, ProductInput{
		Name:     "cup",
		Price:    300,
		Stock:    2,
		ImageURL: "/uploads/cup.png",
	})
	require.NoError(t, err)
	assert.False(t, f.mr.Exists(productsKey(f.tenant.ID)))

	products, total, err := f.catalog.ListProducts(f.ctx, f.tenant.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, products, 4)
}

func TestCatalogService_RefreshAfterInvalidate(t *testing.T) {
	f := newFixture(t)
	mug := testutil.CreateProduct(t, f.db, f.tenant.ID, "mug", 100, 1)
	testutil.CreateProduct(t, f.db, f.tenant.ID, "hat", 100, 1)

	_, total, err := f.catalog.ListProducts(f.ctx, f.tenant.ID, 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)

	f.catalog.InvalidateCache(f.ctx, f.tenant.ID)
	f.catalog.RefreshProducts(f.ctx, f.tenant.ID, mug.ID)

	_, total, err = f.catalog.ListProducts(f.ctx, f.tenant.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
