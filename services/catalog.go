package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront/models"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

type ProductInput struct {
	Name        string   `json:"name" binding:"required"`
	Price       int64    `json:"price" binding:"required,gt=0"`
	Stock       uint     `json:"stock"`
	ImageURL    string   `json:"imageURL" binding:"required"`
	Description string   `json:"description"`
	Categories  []string `json:"categories"`
}

// nil代表不修改
type ProductPatch struct {
	Name        *string  `json:"name"`
	Price       *int64   `json:"price"`
	Stock       *uint    `json:"stock"`
	ImageURL    *string  `json:"imageURL"`
	Description *string  `json:"description"`
	Categories  []string `json:"categories"`
}

// CatalogService讀取商品列表時優先使用Redis的sorted set(score為商品ID)，失敗時回到資料庫
type CatalogService struct {
	db  *gorm.DB
	rdb *redis.Client
	log *logrus.Logger
	sf  singleflight.Group
	cb  *gobreaker.CircuitBreaker
}

func NewCatalogService(db *gorm.DB, rdb *redis.Client, log *logrus.Logger) *CatalogService {
	st := gobreaker.Settings{
		Name:        "CatalogCache",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warnf("熔斷器%s狀態由%s變為%s", name, from, to)
		},
	}

	return &CatalogService{
		db:  db,
		rdb: rdb,
		log: log,
		cb:  gobreaker.NewCircuitBreaker(st),
	}
}

func productsKey(tenantID uint) string {
	return fmt.Sprintf("products:%d", tenantID)
}

func (s *CatalogService) loadProducts(ctx context.Context, tenantID uint) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Preload("Categories").
		Where("tenant_id = ?", tenantID).
		Order("id").
		Find(&products).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "無法讀取商品列表")
	}
	return products, nil
}

// 從資料庫重建整個商品快取，同時間只有一個請求會執行
func (s *CatalogService) rebuildCache(ctx context.Context, tenantID uint) error {
	key := productsKey(tenantID)
	_, err, _ := s.sf.Do(key, func() (interface{}, error) {
		products, err := s.loadProducts(ctx, tenantID)
		if err != nil {
			return nil, err
		}

		members := make([]redis.Z, 0, len(products))
		for _, product := range products {
			productJSON, err := json.Marshal(product)
			if err != nil {
				s.log.Errorf("無法序列化商品資料 %d: %v", product.ID, err)
				continue
			}
			members = append(members, redis.Z{Score: float64(product.ID), Member: productJSON})
		}

		_, err = s.cb.Execute(func() (interface{}, error) {
			_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				if len(members) > 0 {
					pipe.ZAdd(ctx, key, members...)
				}
				return nil
			})
			return nil, err
		})
		return nil, err
	})
	return err
}

// 從Redis讀取區間內的商品，快取為空時重建一次
func (s *CatalogService) cachedRange(ctx context.Context, tenantID uint, start, stop int64) ([]models.Product, int64, error) {
	key := productsKey(tenantID)

	read := func() ([]string, int64, error) {
		res, err := s.cb.Execute(func() (interface{}, error) {
			pipe := s.rdb.Pipeline()
			card := pipe.ZCard(ctx, key)
			members := pipe.ZRange(ctx, key, start, stop)
			if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
				return nil, err
			}
			return [2]interface{}{members.Val(), card.Val()}, nil
		})
		if err != nil {
			return nil, 0, err
		}
		pair := res.([2]interface{})
		return pair[0].([]string), pair[1].(int64), nil
	}

	members, total, err := read()
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		if err := s.rebuildCache(ctx, tenantID); err != nil {
			return nil, 0, err
		}
		members, total, err = read()
		if err != nil {
			return nil, 0, err
		}
	}

	products := make([]models.Product, 0, len(members))
	for _, member := range members {
		var product models.Product
		if err := json.Unmarshal([]byte(member), &product); err != nil {
			s.log.Errorf("無法反序列化商品資料: %v", err)
			continue
		}
		products = append(products, product)
	}
	return products, total, nil
}

// 查詢商品列表
func (s *CatalogService) ListProducts(ctx context.Context, tenantID uint, limit, offset int) ([]models.Product, int64, error) {
	limit, offset = paginate(limit, offset)

	products, total, err := s.cachedRange(ctx, tenantID, int64(offset), int64(offset+limit-1))
	if err == nil {
		return products, total, nil
	}
	s.log.Warnf("無法從Redis讀取商品列表，改由資料庫讀取: %v", err)

	query := s.db.WithContext(ctx).Model(&models.Product{}).Where("tenant_id = ?", tenantID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "無法讀取商品數量")
	}
	products = nil
	err = query.
		Preload("Categories").
		Order("id").
		Limit(limit).
		Offset(offset).
		Find(&products).
		Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "無法讀取商品列表")
	}
	return products, total, nil
}

// 搜尋完整包含所有標籤的商品
func (s *CatalogService) ProductsWithAllCategories(ctx context.Context, tenantID uint, categoryIDs []uint, limit, offset int) ([]models.Product, int, error) {
	limit, offset = paginate(limit, offset)

	products, _, err := s.cachedRange(ctx, tenantID, 0, -1)
	if err != nil {
		s.log.Warnf("無法從Redis讀取商品列表，改由資料庫讀取: %v", err)
		products, err = s.loadProducts(ctx, tenantID)
		if err != nil {
			return nil, 0, err
		}
	}

	matched := make([]models.Product, 0)
	for _, product := range products {
		if hasAllCategories(product, categoryIDs) {
			matched = append(matched, product)
		}
	}

	total := len(matched)
	if offset >= total {
		return []models.Product{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func hasAllCategories(product models.Product, categoryIDs []uint) bool {
	for _, categoryID := range categoryIDs {
		found := false
		for _, category := range product.Categories {
			if category.ID == categoryID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// 以名稱或描述搜尋商品
func (s *CatalogService) SearchProducts(ctx context.Context, tenantID uint, keyword string, limit, offset int) ([]models.Product, int64, error) {
	limit, offset = paginate(limit, offset)

	like := "%" + strings.TrimSpace(keyword) + "%"
	query := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("tenant_id = ?", tenantID).
		Where("name LIKE ? OR description LIKE ?", like, like)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "搜尋商品失敗")
	}

	var products []models.Product
	err := query.Order("id").Limit(limit).Offset(offset).Find(&products).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "搜尋商品失敗")
	}
	return products, total, nil
}

// 查詢商品詳細資料
func (s *CatalogService) GetProduct(ctx context.Context, tenantID, productID uint) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Preload("Categories").
		Where("id = ? AND tenant_id = ?", productID, tenantID).
		First(&product).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, errors.Wrap(err, "查詢商品資料失敗")
	}
	return &product, nil
}

// 查詢商品標籤列表
func (s *CatalogService) ListCategories(ctx context.Context, tenantID uint) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name").
		Find(&categories).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "無法讀取商品標籤列表")
	}
	return categories, nil
}

// 查詢每個標籤，如不存在就創建
func resolveCategories(tx *gorm.DB, tenantID uint, names []string) ([]models.Category, error) {
	categories := make([]models.Category, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		var category models.Category
		err := tx.
			Where(models.Category{TenantID: tenantID, Name: name}).
			FirstOrCreate(&category).
			Error
		if err != nil {
			return nil, errors.Wrapf(err, "建立商品標籤%s失敗", name)
		}
		categories = append(categories, category)
	}
	return categories, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, tenantID uint, in ProductInput) (*models.Product, error) {
	product := models.Product{
		TenantID:    tenantID,
		Name:        in.Name,
		Price:       in.Price,
		Stock:       in.Stock,
		ImageURL:    in.ImageURL,
		Description: in.Description,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories, err := resolveCategories(tx, tenantID, in.Categories)
		if err != nil {
			return err
		}
		product.Categories = categories
		if err := tx.Create(&product).Error; err != nil {
			return errors.Wrap(err, "新增商品失敗")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.RefreshProducts(ctx, tenantID, product.ID)
	return &product, nil
}

// 修改商品，回傳修改後的商品
func (s *CatalogService) UpdateProduct(ctx context.Context, tenantID, productID uint, patch ProductPatch) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND tenant_id = ?", productID, tenantID).First(&product).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return errors.Wrap(err, "查詢商品失敗")
		}

		updates := map[string]interface{}{}
		if patch.Name != nil {
			updates["name"] = *patch.Name
		}
		if patch.Price != nil {
			if *patch.Price <= 0 {
				return ErrInvalidAmount
			}
			updates["price"] = *patch.Price
		}
		if patch.Stock != nil {
			updates["stock"] = *patch.Stock
		}
		if patch.ImageURL != nil {
			updates["image_url"] = *patch.ImageURL
		}
		if patch.Description != nil {
			updates["description"] = *patch.Description
		}
		if len(updates) > 0 {
			if err := tx.Model(&product).Updates(updates).Error; err != nil {
				return errors.Wrap(err, "修改商品資料失敗")
			}
		}

		if patch.Categories != nil {
			categories, err := resolveCategories(tx, tenantID, patch.Categories)
			if err != nil {
				return err
			}
			if err := tx.Model(&product).Association("Categories").Replace(categories); err != nil {
				return errors.Wrap(err, "修改商品標籤失敗")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.RefreshProducts(ctx, tenantID, product.ID)
	return s.GetProduct(ctx, tenantID, product.ID)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, tenantID, productID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		err := tx.Where("id = ? AND tenant_id = ?", productID, tenantID).First(&product).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return errors.Wrap(err, "查找此商品失敗")
		}

		if err := tx.Model(&product).Association("Categories").Clear(); err != nil {
			return errors.Wrap(err, "清除商品標籤關聯失敗")
		}
		if err := tx.Delete(&product).Error; err != nil {
			return errors.Wrap(err, "刪除商品失敗")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.RefreshProducts(ctx, tenantID, productID)
	return nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, tenantID, categoryID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		err := tx.Where("id = ? AND tenant_id = ?", categoryID, tenantID).First(&category).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return errors.Wrap(err, "查詢商品標籤失敗")
		}

		if err := tx.Model(&category).Association("Products").Clear(); err != nil {
			return errors.Wrap(err, "刪除商品標籤關聯失敗")
		}
		if err := tx.Delete(&category).Error; err != nil {
			return errors.Wrap(err, "刪除標籤失敗")
		}
		return nil
	})
	if err != nil {
		return err
	}

	// 商品快取內含標籤資料，整個重建
	s.InvalidateCache(ctx, tenantID)
	return nil
}

// 以資料庫的最新資料取代快取中的商品，已刪除的商品會從快取移除
func (s *CatalogService) RefreshProducts(ctx context.Context, tenantID uint, productIDs ...uint) {
	if len(productIDs) == 0 {
		return
	}

	var products []models.Product
	err := s.db.WithContext(ctx).
		Preload("Categories").
		Where("tenant_id = ? AND id IN ?", tenantID, productIDs).
		Find(&products).
		Error
	if err != nil {
		s.log.Errorf("無法讀取商品資料以更新快取: %v", err)
		s.InvalidateCache(ctx, tenantID)
		return
	}

	key := productsKey(tenantID)
	_, err = s.cb.Execute(func() (interface{}, error) {
		// 快取不存在時不寫入部分資料，留給下一次讀取完整重建
		return nil, s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			exists, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return err
			}
			if exists == 0 {
				return nil
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for _, id := range productIDs {
					score := strconv.FormatUint(uint64(id), 10)
					pipe.ZRemRangeByScore(ctx, key, score, score)
				}
				for _, product := range products {
					productJSON, err := json.Marshal(product)
					if err != nil {
						return err
					}
					pipe.ZAdd(ctx, key, redis.Z{Score: float64(product.ID), Member: productJSON})
				}
				return nil
			})
			return err
		}, key)
	})
	if err != nil {
		s.log.Errorf("無法將商品資料更新至Redis: %v", err)
		s.InvalidateCache(ctx, tenantID)
	}
}

// 刪除快取，下一次讀取時重建
func (s *CatalogService) InvalidateCache(ctx context.Context, tenantID uint) {
	if err := s.rdb.Del(ctx, productsKey(tenantID)).Err(); err != nil {
		s.log.Errorf("無法刪除商品快取: %v", err)
	}
}
