package handlers

import (
	"net/http"

	"storefront/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const anonymousCartCookie = "anonymous_cart_id"

// 從Cookie讀取匿名購物車ID，格式錯誤時視為沒有
func getAnonymousCartID(c *gin.Context) string {
	anonymousCartID, err := c.Cookie(anonymousCartCookie)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(anonymousCartID); err != nil {
		return ""
	}
	return anonymousCartID
}

// 儲存匿名購物車ID至Cookie
func setAnonymousCartID(c *gin.Context, cartID string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     anonymousCartCookie,
		Value:    cartID,
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAnonymousCartID(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     anonymousCartCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// 已登入時使用會員購物車，否則使用Cookie中的匿名購物車
func cartOwner(c *gin.Context) services.CartOwner {
	return services.CartOwner{
		TenantID:    currentTenantID(c),
		UserID:      currentUserID(c),
		AnonymousID: getAnonymousCartID(c),
	}
}

type cartItemRequest struct {
	ProductID uint `json:"productID" binding:"required"`
	Quantity  uint `json:"quantity" binding:"required"`
}

func AddToCartHandler(c *gin.Context, carts *services.CartService) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "綁定請求資料錯誤", err)
		return
	}

	owner := cartOwner(c)
	//沒有匿名購物車時建立新的ID，成功加入後才寫入Cookie
	newAnonymousCart := owner.IsAnonymous() && owner.AnonymousID == ""
	if newAnonymousCart {
		owner.AnonymousID = uuid.NewString()
	}

	item, err := carts.AddItem(c.Request.Context(), owner, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, "新增物品至購物車失敗", err)
		return
	}
	if newAnonymousCart {
		setAnonymousCartID(c, owner.AnonymousID)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "成功新增物品至購物車",
		"productID": item.ProductID,
		"quantity":  item.Quantity,
	})
}

// 更新購物車商品數量
func UpdateCartItemQuantityHandler(c *gin.Context, carts *services.CartService) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "綁定請求資料錯誤", err)
		return
	}

	item, err := carts.UpdateItemQuantity(c.Request.Context(), cartOwner(c), req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, "更新購物車商品數量失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "成功更新購物車商品數量",
		"productID": item.ProductID,
		"quantity":  item.Quantity,
	})
}

// 刪除購物車商品
func DeleteCartItemHandler(c *gin.Context, carts *services.CartService) {
	productID, ok := paramID(c, "productID")
	if !ok {
		return
	}

	if err := carts.RemoveItem(c.Request.Context(), cartOwner(c), productID); err != nil {
		respondError(c, "刪除購物車商品失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功刪除購物車商品",
	})
}

// 查詢購物車
func GetCartHandler(c *gin.Context, carts *services.CartService) {
	cart, err := carts.GetCart(c.Request.Context(), cartOwner(c))
	if err != nil {
		respondError(c, "查詢購物車失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功查詢購物車",
		"cart":    cart,
	})
}

// 清空購物車
func ClearCartHandler(c *gin.Context, carts *services.CartService) {
	if err := carts.Clear(c.Request.Context(), cartOwner(c)); err != nil {
		respondError(c, "清空購物車失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功清空購物車",
	})
}

// 合併匿名和使用者購物車
func MergeCartHandler(c *gin.Context, carts *services.CartService) {
	anonymousCartID := getAnonymousCartID(c)
	if anonymousCartID == "" {
		c.JSON(http.StatusOK, gin.H{
			"message": "沒有匿名購物車",
			"merged":  0,
		})
		return
	}

	merged, err := carts.Merge(c.Request.Context(), currentTenantID(c), currentUserID(c), anonymousCartID)
	if err != nil {
		respondError(c, "合併購物車失敗", err)
		return
	}
	clearAnonymousCartID(c)

	c.JSON(http.StatusOK, gin.H{
		"message": "成功合併購物車",
		"merged":  merged,
	})
}
