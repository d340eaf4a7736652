package services

import "github.com/pkg/errors"

var (
	ErrTenantNotFound = errors.New("找不到商店")

	ErrInvalidUsername    = errors.New("不合法的使用者名稱")
	ErrInvalidEmail       = errors.New("不合法的信箱")
	ErrInvalidPassword    = errors.New("不合法的密碼")
	ErrUsernameTaken      = errors.New("使用者名稱已被使用")
	ErrEmailTaken         = errors.New("信箱已被使用")
	ErrInvalidCredentials = errors.New("帳號或密碼錯誤")
	ErrWrongPassword      = errors.New("舊密碼錯誤")
	ErrUserNotFound       = errors.New("找不到此使用者")

	ErrProductNotFound  = errors.New("查無此商品")
	ErrCategoryNotFound = errors.New("查無此商品標籤")

	ErrCartNotFound      = errors.New("查無此購物車")
	ErrCartItemNotFound  = errors.New("購物車沒有此商品")
	ErrInvalidQuantity   = errors.New("商品數量不得小於1")
	ErrOutOfStock        = errors.New("商品已無庫存")
	ErrInsufficientStock = errors.New("商品庫存不足")

	ErrEmptyOrder         = errors.New("訂單沒有商品")
	ErrOrderNotFound      = errors.New("查無此訂單")
	ErrInvalidOrderStatus = errors.New("訂單狀態不允許此操作")
	ErrOrderExpired       = errors.New("訂單已逾期，請重新下單")
	ErrShippingRequired   = errors.New("請填寫收件人姓名、地址與電話")

	ErrInvalidAmount      = errors.New("金額必須大於0")
	ErrSameCurrency       = errors.New("來源與目標幣別相同")
	ErrUnknownCurrency    = errors.New("不支援的幣別")
	ErrInsufficientFunds  = errors.New("錢包餘額不足")
	ErrAmountOverflow     = errors.New("金額超出上限")
	ErrWishlistItemAbsent = errors.New("願望清單沒有此商品")

	ErrAddressNotFound = errors.New("查無此地址")
	ErrPostNotFound    = errors.New("查無此文章")
	ErrSlugTaken       = errors.New("文章網址已被使用")
)
