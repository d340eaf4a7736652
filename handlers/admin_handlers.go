package handlers

import (
	"net/http"

	"storefront/services"
	"storefront/storage"

	"github.com/gin-gonic/gin"
)

// 上傳圖片，回傳圖片網址
func UploadImageHandler(c *gin.Context, store storage.ImageStore) {
	file, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "綁定圖片失敗", err)
		return
	}

	if !storage.IsValidImageExtension(file.Filename) {
		respondError(c, "圖片檔案格式錯誤", storage.ErrUnsupportedImage)
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, "讀取圖片失敗", err)
		return
	}
	defer src.Close()

	imageURL, err := store.Save(c.Request.Context(), file.Filename, src)
	if err != nil {
		respondError(c, "儲存圖片失敗", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "成功上傳圖片",
		"imagePath": imageURL,
	})
}

// 查詢商品完整資料
func GetProductAllDataHandler(c *gin.Context, catalog *services.CatalogService) {
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
		"product": product,
	})
}

// 管理員查詢商品列表，包含描述與標籤
func GetAdminProductListHandler(c *gin.Context, catalog *services.CatalogService) {
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
		"products":   products,
		"totalCount": total,
	})
}

func CreateProductHandler(c *gin.Context, catalog *services.CatalogService) {
	var req services.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "綁定請求資料錯誤", err)
		return
	}

	product, err := catalog.CreateProduct(c.Request.Context(), currentTenantID(c), req)
	if err != nil {
		respondError(c, "新增商品失敗", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "成功新增商品",
		"product": product,
	})
}

// 修改商品，只更新有提供的欄位
func UpdateProductHandler(c *gin.Context, catalog *services.CatalogService) {
	productID, ok := paramID(c, "productID")
	if !ok {
		return
	}

	var req services.ProductPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "綁定請求資料錯誤", err)
		return
	}

	product, err := catalog.UpdateProduct(c.Request.Context(), currentTenantID(c), productID, req)
	if err != nil {
		respondError(c, "修改商品失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功修改商品",
		"product": product,
	})
}

func DeleteProductHandler(c *gin.Context, catalog *services.CatalogService) {
	productID, ok := paramID(c, "productID")
	if !ok {
		return
	}

	if err := catalog.DeleteProduct(c.Request.Context(), currentTenantID(c), productID); err != nil {
		respondError(c, "刪除商品失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功刪除商品",
	})
}

func DeleteCategoryHandler(c *gin.Context, catalog *services.CatalogService) {
	categoryID, ok := paramID(c, "categoryID")
	if !ok {
		return
	}

	if err := catalog.DeleteCategory(c.Request.Context(), currentTenantID(c), categoryID); err != nil {
		respondError(c, "刪除標籤失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功刪除標籤",
	})
}
