package routers

import (
	"net/http"

	"storefront/config"
	"storefront/handlers"
	"storefront/invoice"
	"storefront/jwt"
	"storefront/middleware"
	"storefront/payment"
	"storefront/services"
	"storefront/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Dependencies struct {
	Config   config.ServerConfig
	Log      *logrus.Logger
	Tokens   *jwt.Manager
	Tenants  *services.TenantService
	Users    *services.UserService
	Catalog  *services.CatalogService
	Carts    *services.CartService
	Orders   *services.OrderService
	Wishlist *services.WishlistService
	Address  *services.AddressService
	Wallet   *services.WalletService
	Blog     *services.BlogService
	Images   storage.ImageStore
	Gateway  payment.Gateway
	Invoices *invoice.Renderer
}

func SetupRouters(d Dependencies) (*gin.Engine, error) {
	//建立Gin路由器
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(d.Log))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.TenantHeader},
		ExposeHeaders:    []string{"Authorization", "Content-Disposition"},
		AllowCredentials: true,
	}
	if len(d.Config.CorsOrigins) == 0 {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	} else {
		corsConfig.AllowOrigins = d.Config.CorsOrigins
	}
	router.Use(cors.New(corsConfig))

	if err := router.SetTrustedProxies(d.Config.TrustedProxies); err != nil {
		return nil, err
	}

	//設定商品圖片靜態資源路徑
	router.Static("/uploads", d.Config.UploadsDir)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	api := router.Group("/api/v1")

	//付款服務通知，不屬於任何商店
	api.POST("/payments/webhook", func(c *gin.Context) {
		handlers.PaymentWebhookHandler(c, d.Gateway, d.Orders)
	})

	////無須權限，使用中間件檢查是否登入
	public := api.Group("")
	public.Use(
		middleware.TenantMiddleware(d.Tenants, d.Config.DefaultTenant, d.Log),
		middleware.AuthMiddleware(d.Tokens, d.Log),
	)
	{
		//查詢商品列表
		public.GET("/products", func(c *gin.Context) {
			handlers.GetProductListHandler(c, d.Catalog)
		})
		//搜尋商品
		public.GET("/products/search", func(c *gin.Context) {
			handlers.SearchProductsHandler(c, d.Catalog)
		})
		//搜尋完整包含標籤的所有商品
		public.POST("/products/categories", func(c *gin.Context) {
			handlers.GetProductsFromCategoriesHandler(c, d.Catalog)
		})
		//查詢商品詳細資料
		public.GET("/products/:productID", func(c *gin.Context) {
			handlers.GetProductDataHandler(c, d.Catalog)
		})
		//查詢商品標籤列表
		public.GET("/categories", func(c *gin.Context) {
			handlers.GetCategoryListHandler(c, d.Catalog)
		})
		//註冊帳號
		public.POST("/register", func(c *gin.Context) {
			handlers.RegisterHandler(c, d.Users)
		})
		//登入帳號
		public.POST("/login", func(c *gin.Context) {
			handlers.LoginHandler(c, d.Users, d.Carts, d.Log)
		})
		//新增商品至購物車
		public.POST("/carts/add", func(c *gin.Context) {
			handlers.AddToCartHandler(c, d.Carts)
		})
		//更新購物車商品數量
		public.POST("/carts/update", func(c *gin.Context) {
			handlers.UpdateCartItemQuantityHandler(c, d.Carts)
		})
		//刪除購物車商品
		public.DELETE("/carts/:productID", func(c *gin.Context) {
			handlers.DeleteCartItemHandler(c, d.Carts)
		})
		//查詢購物車商品
		public.GET("/carts", func(c *gin.Context) {
			handlers.GetCartHandler(c, d.Carts)
		})
		//清除購物車商品
		public.DELETE("/carts", func(c *gin.Context) {
			handlers.ClearCartHandler(c, d.Carts)
		})
		//部落格
		public.GET("/blog", func(c *gin.Context) {
			handlers.GetPostListHandler(c, d.Blog)
		})
		public.GET("/blog/:slug", func(c *gin.Context) {
			handlers.GetPostHandler(c, d.Blog)
		})

		////需要登入，使用中間件檢查是否登入
		loginRequired := public.Group("/user")
		loginRequired.Use(middleware.CheckLoginMiddleware())
		{
			//查詢使用者資料
			loginRequired.GET("/profile", func(c *gin.Context) {
				handlers.GetUserProfileHandler(c, d.Users)
			})
			//修改使用者資料
			loginRequired.PATCH("/profile/edit", func(c *gin.Context) {
				handlers.UpdateUserProfileHandler(c, d.Users)
			})
			//登出
			loginRequired.POST("/logout", func(c *gin.Context) {
				handlers.LogOutHandler(c, d.Users)
			})
			//合併匿名和使用者購物車
			loginRequired.POST("/carts/merge", func(c *gin.Context) {
				handlers.MergeCartHandler(c, d.Carts)
			})
			//送出訂單並清除購物車內對應商品
			loginRequired.POST("/orders", func(c *gin.Context) {
				handlers.SendOrderHandler(c, d.Orders)
			})
			//建立付款頁面
			loginRequired.POST("/orders/checkout", func(c *gin.Context) {
				handlers.CheckoutHandler(c, d.Orders)
			})
			//查詢訂單列表
			loginRequired.GET("/orders", func(c *gin.Context) {
				handlers.GetOrderListHandler(c, d.Orders)
			})
			//查詢訂單詳細資訊
			loginRequired.GET("/orders/:orderID", func(c *gin.Context) {
				handlers.GetOrderDataHandler(c, d.Orders)
			})
			//取消訂單
			loginRequired.POST("/orders/:orderID/cancel", func(c *gin.Context) {
				handlers.CancelOrderHandler(c, d.Orders)
			})
			//以錢包付款
			loginRequired.POST("/orders/:orderID/pay-with-wallet", func(c *gin.Context) {
				handlers.PayWithWalletHandler(c, d.Orders)
			})
			//下載發票
			loginRequired.GET("/orders/:orderID/invoice", func(c *gin.Context) {
				handlers.InvoiceHandler(c, d.Orders, d.Invoices)
			})
			//願望清單
			loginRequired.GET("/wishlist", func(c *gin.Context) {
				handlers.GetWishlistHandler(c, d.Wishlist)
			})
			loginRequired.POST("/wishlist", func(c *gin.Context) {
				handlers.AddToWishlistHandler(c, d.Wishlist)
			})
			loginRequired.DELETE("/wishlist/:productID", func(c *gin.Context) {
				handlers.RemoveFromWishlistHandler(c, d.Wishlist)
			})
			loginRequired.POST("/wishlist/:productID/move-to-cart", func(c *gin.Context) {
				handlers.MoveWishlistToCartHandler(c, d.Wishlist)
			})
			//收件地址
			loginRequired.GET("/addresses", func(c *gin.Context) {
				handlers.GetAddressListHandler(c, d.Address)
			})
			loginRequired.POST("/addresses", func(c *gin.Context) {
				handlers.CreateAddressHandler(c, d.Address)
			})
			loginRequired.PATCH("/addresses/:addressID", func(c *gin.Context) {
				handlers.UpdateAddressHandler(c, d.Address)
			})
			loginRequired.DELETE("/addresses/:addressID", func(c *gin.Context) {
				handlers.DeleteAddressHandler(c, d.Address)
			})
			//錢包
			loginRequired.GET("/wallet", func(c *gin.Context) {
				handlers.GetWalletHandler(c, d.Wallet)
			})
			loginRequired.POST("/wallet/convert", func(c *gin.Context) {
				handlers.ConvertCurrencyHandler(c, d.Wallet)
			})
		}

		////需要admin身分，使用中間件檢查是否登入及admin權限
		adminRequired := public.Group("/admin")
		adminRequired.Use(middleware.CheckLoginMiddleware(), middleware.CheckAdminPermissionMiddleware())
		{
			//查詢使用者列表
			adminRequired.GET("/users", func(c *gin.Context) {
				handlers.GetUserListHandler(c, d.Users)
			})
			//上傳圖片
			adminRequired.POST("/image", func(c *gin.Context) {
				handlers.UploadImageHandler(c, d.Images)
			})
			//查詢商品列表
			adminRequired.GET("/products", func(c *gin.Context) {
				handlers.GetAdminProductListHandler(c, d.Catalog)
			})
			//新增商品
			adminRequired.POST("/products", func(c *gin.Context) {
				handlers.CreateProductHandler(c, d.Catalog)
			})
			//查詢商品完整資料
			adminRequired.GET("/products/:productID", func(c *gin.Context) {
				handlers.GetProductAllDataHandler(c, d.Catalog)
			})
			//修改商品
			adminRequired.PATCH("/products/:productID", func(c *gin.Context) {
				handlers.UpdateProductHandler(c, d.Catalog)
			})
			//刪除商品
			adminRequired.DELETE("/products/:productID", func(c *gin.Context) {
				handlers.DeleteProductHandler(c, d.Catalog)
			})
			//查詢商品標籤列表
			adminRequired.GET("/categories", func(c *gin.Context) {
				handlers.GetCategoryListHandler(c, d.Catalog)
			})
			//刪除商品標籤
			adminRequired.DELETE("/categories/:categoryID", func(c *gin.Context) {
				handlers.DeleteCategoryHandler(c, d.Catalog)
			})
			//訂單管理
			adminRequired.GET("/orders", func(c *gin.Context) {
				handlers.GetAllOrdersHandler(c, d.Orders)
			})
			adminRequired.PATCH("/orders/:orderID/status", func(c *gin.Context) {
				handlers.UpdateOrderStatusHandler(c, d.Orders)
			})
			//部落格管理
			adminRequired.GET("/blog", func(c *gin.Context) {
				handlers.GetAdminPostListHandler(c, d.Blog)
			})
			adminRequired.POST("/blog", func(c *gin.Context) {
				handlers.CreatePostHandler(c, d.Blog)
			})
			adminRequired.PATCH("/blog/:postID", func(c *gin.Context) {
				handlers.UpdatePostHandler(c, d.Blog)
			})
			adminRequired.POST("/blog/:postID/publish", func(c *gin.Context) {
				handlers.PublishPostHandler(c, d.Blog)
			})
			adminRequired.DELETE("/blog/:postID", func(c *gin.Context) {
				handlers.DeletePostHandler(c, d.Blog)
			})
			//匯率與儲值
			adminRequired.PUT("/exchange-rates/:currency", func(c *gin.Context) {
				handlers.SetExchangeRateHandler(c, d.Wallet)
			})
			adminRequired.POST("/wallet/deposit", func(c *gin.Context) {
				handlers.DepositHandler(c, d.Wallet)
			})
		}
	}

	return router, nil
}
