package services

import (
	"context"
	"strings"

	"storefront/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type TenantService struct {
	db *gorm.DB
}

func NewTenantService(db *gorm.DB) *TenantService {
	return &TenantService{db: db}
}

func (s *TenantService) FindBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.WithContext(ctx).Where("slug = ?", strings.ToLower(slug)).First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, errors.Wrap(err, "查詢商店失敗")
	}
	return &tenant, nil
}

// 建立商店，slug已存在時回傳原有的商店
func (s *TenantService) Create(ctx context.Context, slug, name, currency string) (*models.Tenant, error) {
	tenant := models.Tenant{
		Slug:     strings.ToLower(slug),
		Name:     name,
		Currency: strings.ToLower(currency),
	}
	err := s.db.WithContext(ctx).
		Where(models.Tenant{Slug: tenant.Slug}).
		Attrs(models.Tenant{Name: tenant.Name, Currency: tenant.Currency}).
		FirstOrCreate(&tenant).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "建立商店失敗")
	}
	return &tenant, nil
}
