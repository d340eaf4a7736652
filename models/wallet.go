package models

import "gorm.io/gorm"

const (
	WalletTxDeposit    = "deposit"
	WalletTxConvertOut = "convert_out"
	WalletTxConvertIn  = "convert_in"
	WalletTxPayment    = "payment"
)

// Amount以最小貨幣單位儲存
type WalletBalance struct {
	gorm.Model
	UserID   uint   `gorm:"uniqueIndex:idx_balance_user_currency;not null"`
	Currency string `gorm:"size:3;uniqueIndex:idx_balance_user_currency;not null"`
	Amount   int64  `gorm:"not null;default:0"`
}

type WalletTransaction struct {
	gorm.Model
	UserID    uint   `gorm:"index;not null"`
	Currency  string `gorm:"size:3;not null"`
	Amount    int64  `gorm:"not null"`
	Type      string `gorm:"size:16;not null"`
	Reference string `gorm:"size:64;index"`
}

// RateMicros為每1單位基準貨幣可兌換的數量乘以1,000,000
type ExchangeRate struct {
	gorm.Model
	Currency   string `gorm:"size:3;uniqueIndex;not null"`
	RateMicros int64  `gorm:"not null"`
}
