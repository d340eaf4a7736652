package services

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SELECT ... FOR UPDATE，sqlite不支援此語法且本身即為單一寫入者
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func paginate(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 10
	}
	//限制最高查詢數量為50
	if limit > 50 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
