package handlers

import (
	"net/http"
	"strings"

	"storefront/models"
	"storefront/services"

	"github.com/gin-gonic/gin"
)

type productSummary struct {
	ID       uint   `json:"ID"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Stock    uint   `json:"stock"`
	ImageURL string `json:"imageURL"`
}

type categorySummary struct {
	ID   uint   `json:"ID"`
	Name string `json:"name"`
}

func summarizeProducts(products []models.Product) []productSummary {
	productsData := make([]productSummary, 0, len(products))
	for _, product := range products {
		productsData = append(productsData, productSummary{
			ID:       product.ID,
			Name:     product.Name,
			Price:    product.Price,
			Stock:    product.Stock,
			ImageURL: product.ImageURL,
		})
	}
	return productsData
}

func summarizeCategories(categories []models.Category) []categorySummary {
	categoriesData := make([]categorySummary, 0, len(categories))
	for _, category := range categories {
		categoriesData = append(categoriesData, categorySummary{ID: category.ID, Name: category.Name})
	}
	return categoriesData
}

// 查詢商品列表
func GetProductListHandler(c *gin.Context, catalog *services.CatalogService) {
	limit, offset, ok := pagination(c)
	if !ok {
		return
	}

	products, total, err := catalog.ListProducts(c.Request.Context(), currentTenantID(c), limit, offset)
	if err != nil {
		respondError(c, "無法讀取商品列表", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "成功讀取商品列表",
		"products":   summarizeProducts(products),
		"totalCount": total,
	})
}

// 搜尋完整包含標籤的所有商品
func GetProductsFromCategoriesHandler(c *gin.Context, catalog *services.CatalogService) {
	limit, offset, ok := pagination(c)
	if !ok {
		return
	}

	var categoriesReq []struct {
		CategoryID uint `json:"categoryID" binding:"required"`
	}
	if err := c.ShouldBindJSON(&categoriesReq); err != nil {
		badRequest(c, "綁定請求資料錯誤", err)
		return
	}

	categoryIDs := make([]uint, 0, len(categoriesReq))
	for _, categoryReq := range categoriesReq {
		categoryIDs = append(categoryIDs, categoryReq.CategoryID)
	}

	products, total, err := catalog.ProductsWithAllCategories(c.Request.Context(), currentTenantID(c), categoryIDs, limit, offset)
	if err != nil {
		respondError(c, "無法取得商品列表", err)
		return
	}

	productsData := make([]gin.H, 0, len(products))
	for _, product := range products {
		productsData = append(productsData, gin.H{
			"ID":         product.ID,
			"name":       product.Name,
			"price":      product.Price,
			"stock":      product.Stock,
			"imageURL":   product.ImageURL,
			"categories": summarizeCategories(product.Categories),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "成功讀取商品列表",
		"products":   productsData,
		"totalCount": total,
	})
}

// 以關鍵字搜尋商品
func SearchProductsHandler(c *gin.Context, catalog *services.CatalogService) {
	limit, offset, ok := pagination(c)
	if !ok {
		return
	}

	keyword := strings.TrimSpace(c.Query("q"))
	if keyword == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "請輸入搜尋關鍵字",
		})
		return
	}

	products, total, err := catalog.SearchProducts(c.Request.Context(), currentTenantID(c), keyword, limit, offset)
	if err != nil {
		respondError(c, "搜尋商品失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "成功搜尋商品",
		"products":   summarizeProducts(products),
		"totalCount": total,
	})
}

// 查詢商品詳細資料
func GetProductDataHandler(c *gin.Context, catalog *services.CatalogService) {
	productID, ok := paramID(c, "productID")
	if !ok {
		return
	}

	product, err := catalog.GetProduct(c.Request.Context(), currentTenantID(c), productID)
	if err != nil {
		respondError(c, "查詢商品資料失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功查詢商品資料",
		"product": gin.H{
			"ID":          product.ID,
			"name":        product.Name,
			"price":       product.Price,
			"stock":       product.Stock,
			"description": product.Description,
			"imageURL":    product.ImageURL,
			"categories":  summarizeCategories(product.Categories),
		},
	})
}

// 查詢商品標籤列表
func GetCategoryListHandler(c *gin.Context, catalog *services.CatalogService) {
	categories, err := catalog.ListCategories(c.Request.Context(), currentTenantID(c))
	if err != nil {
		respondError(c, "無法讀取商品標籤列表", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "成功讀取商品標籤列表",
		"categories": summarizeCategories(categories),
	})
}
