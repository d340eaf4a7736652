package handlers

import (
	"net/http"

	"storefront/services"

	"github.com/gin-gonic/gin"
)

func GetWishlistHandler(c *gin.Context, wishlist *services.WishlistService) {
	items, err := wishlist.List(c.Request.Context(), currentTenantID(c), currentUserID(c))
	if err != nil {
		respondError(c, "查詢願望清單失敗", err)
		return
	}

	products := make([]productSummary, 0, len(items))
	for _, item := range items {
		//商品已被刪除
		if item.Product.ID == 0 {
			continue
		}
		products = append(products, productSummary{
			ID:       item.Product.ID,
			Name:     item.Product.Name,
			Price:    item.Product.Price,
			Stock:    item.Product.Stock,
			ImageURL: item.Product.ImageURL,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "成功查詢願望清單",
		"products": products,
	})
}

func AddToWishlistHandler(c *gin.Context, wishlist *services.WishlistService) {
	var req struct {
		ProductID uint `json:"productID" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "綁定請求資料錯誤", err)
		return
	}

	item, err := wishlist.Add(c.Request.Context(), currentTenantID(c), currentUserID(c), req.ProductID)
	if err != nil {
		respondError(c, "加入願望清單失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "成功加入願望清單",
		"productID": item.ProductID,
	})
}

func RemoveFromWishlistHandler(c *gin.Context, wishlist *services.WishlistService) {
	productID, ok := paramID(c, "productID")
	if !ok {
		return
	}

	if err := wishlist.Remove(c.Request.Context(), currentTenantID(c), currentUserID(c), productID); err != nil {
		respondError(c, "移除願望清單商品失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功移除願望清單商品",
	})
}

func MoveWishlistToCartHandler(c *gin.Context, wishlist *services.WishlistService) {
	productID, ok := paramID(c, "productID")
	if !ok {
		return
	}

	item, err := wishlist.MoveToCart(c.Request.Context(), currentTenantID(c), currentUserID(c), productID)
	if err != nil {
		respondError(c, "移至購物車失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "成功移至購物車",
		"productID": item.ProductID,
		"quantity":  item.Quantity,
	})
}
