package models

import "gorm.io/gorm"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	gorm.Model
	Username    string          `gorm:"size:32;unique;not null"`
	Email       string          `gorm:"size:191;unique;not null"`
	Password    string          `gorm:"not null" json:"-"`
	Name        string
	Phone       string
	Carts       []Cart          `json:"-"`
	Orders      []Order         `json:"-"`
	LoginTokens []LoginToken    `json:"-"`
	Addresses   []Address       `json:"-"`
	Balances    []WalletBalance `json:"-"`
	Role        string          `gorm:"size:16;default:user"`
}
