package models

// 需要AutoMigrate的所有資料表
func All() []interface{} {
	return []interface{}{
		&Tenant{},
		&User{},
		&LoginToken{},
		&Address{},
		&Category{},
		&Product{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&WishlistItem{},
		&WalletBalance{},
		&WalletTransaction{},
		&ExchangeRate{},
		&BlogPost{},
	}
}
