package services

import (
	"context"
	"strings"

	"storefront/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type AddressInput struct {
	Recipient  string `json:"recipient" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country" binding:"required,len=2"`
	IsDefault  bool   `json:"isDefault"`
}

// nil代表不修改
type AddressPatch struct {
	Recipient  *string `json:"recipient"`
	Phone      *string `json:"phone"`
	Line1      *string `json:"line1"`
	Line2      *string `json:"line2"`
	City       *string `json:"city"`
	PostalCode *string `json:"postalCode"`
	Country    *string `json:"country"`
	IsDefault  *bool   `json:"isDefault"`
}

// 訂單上的單行地址
func FormatAddress(address models.Address) string {
	parts := []string{address.Line1}
	if address.Line2 != "" {
		parts = append(parts, address.Line2)
	}
	city := strings.TrimSpace(address.PostalCode + " " + address.City)
	parts = append(parts, city, strings.ToUpper(address.Country))
	return strings.Join(parts, ", ")
}

type AddressService struct {
	db *gorm.DB
}

func NewAddressService(db *gorm.DB) *AddressService {
	return &AddressService{db: db}
}

// 地址簿依商店分開
func (s *AddressService) List(ctx context.Context, tenantID, userID uint) ([]models.Address, error) {
	var addresses []models.Address
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Order("is_default DESC, id").
		Find(&addresses).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "查詢地址列表失敗")
	}
	return addresses, nil
}

func clearDefault(tx *gorm.DB, tenantID, userID, exceptID uint) error {
	err := tx.Model(&models.Address{}).
		Where("tenant_id = ? AND user_id = ? AND id <> ?", tenantID, userID, exceptID).
		Update("is_default", false).
		Error
	if err != nil {
		return errors.Wrap(err, "更新預設地址失敗")
	}
	return nil
}

// 新增地址，第一個地址自動成為預設地址
func (s *AddressService) Create(ctx context.Context, tenantID, userID uint, in AddressInput) (*models.Address, error) {
	address := models.Address{
		TenantID:   tenantID,
		UserID:     userID,
		Recipient:  in.Recipient,
		Phone:      in.Phone,
		Line1:      in.Line1,
		Line2:      in.Line2,
		City:       in.City,
		PostalCode: in.PostalCode,
		Country:    strings.ToUpper(in.Country),
		IsDefault:  in.IsDefault,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Address{}).Where("tenant_id = ? AND user_id = ?", tenantID, userID).Count(&count).Error; err != nil {
			return errors.Wrap(err, "查詢地址數量失敗")
		}
		if count == 0 {
			address.IsDefault = true
		}

		if err := tx.Create(&address).Error; err != nil {
			return errors.Wrap(err, "新增地址失敗")
		}
		if address.IsDefault {
			return clearDefault(tx, tenantID, userID, address.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &address, nil
}

func (s *AddressService) Update(ctx context.Context, tenantID, userID, addressID uint, patch AddressPatch) (*models.Address, error) {
	var address models.Address
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND tenant_id = ? AND user_id = ?", addressID, tenantID, userID).First(&address).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAddressNotFound
			}
			return errors.Wrap(err, "查詢地址失敗")
		}

		updates := map[string]interface{}{}
		if patch.Recipient != nil {
			updates["recipient"] = *patch.Recipient
		}
		if patch.Phone != nil {
			updates["phone"] = *patch.Phone
		}
		if patch.Line1 != nil {
			updates["line1"] = *patch.Line1
		}
		if patch.Line2 != nil {
			updates["line2"] = *patch.Line2
		}
		if patch.City != nil {
			updates["city"] = *patch.City
		}
		if patch.PostalCode != nil {
			updates["postal_code"] = *patch.PostalCode
		}
		if patch.Country != nil {
			updates["country"] = strings.ToUpper(*patch.Country)
		}
		//只能設定新的預設地址，不能取消唯一的預設地址
		if patch.IsDefault != nil && *patch.IsDefault {
			updates["is_default"] = true
			address.IsDefault = true
		}

		if len(updates) > 0 {
			if err := tx.Model(&address).Updates(updates).Error; err != nil {
				return errors.Wrap(err, "修改地址失敗")
			}
		}
		if address.IsDefault {
			return clearDefault(tx, tenantID, userID, address.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// 刪除地址，刪除預設地址時由最舊的地址遞補
func (s *AddressService) Delete(ctx context.Context, tenantID, userID, addressID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var address models.Address
		err := tx.Where("id = ? AND tenant_id = ? AND user_id = ?", addressID, tenantID, userID).First(&address).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAddressNotFound
			}
			return errors.Wrap(err, "查詢地址失敗")
		}

		if err := tx.Delete(&address).Error; err != nil {
			return errors.Wrap(err, "刪除地址失敗")
		}
		if !address.IsDefault {
			return nil
		}

		var next models.Address
		err = tx.Where("tenant_id = ? AND user_id = ?", tenantID, userID).Order("id").First(&next).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return errors.Wrap(err, "查詢地址失敗")
		}
		if err := tx.Model(&next).Update("is_default", true).Error; err != nil {
			return errors.Wrap(err, "更新預設地址失敗")
		}
		return nil
	})
}
