package services

import (
	"context"
	"strings"
	"time"
	"unicode"

	"storefront/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type PostInput struct {
	Title         string `json:"title" binding:"required"`
	Slug          string `json:"slug"`
	Summary       string `json:"summary"`
	Body          string `json:"body" binding:"required"`
	CoverImageURL string `json:"coverImageURL"`
	Published     bool   `json:"published"`
}

// nil代表不修改
type PostPatch struct {
	Title         *string `json:"title"`
	Slug          *string `json:"slug"`
	Summary       *string `json:"summary"`
	Body          *string `json:"body"`
	CoverImageURL *string `json:"coverImageURL"`
	Published     *bool   `json:"published"`
}

// Slugify將標題轉為網址，只保留字母與數字，其餘字元以-取代
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

type BlogService struct {
	db *gorm.DB
}

func NewBlogService(db *gorm.DB) *BlogService {
	return &BlogService{db: db}
}

func (s *BlogService) slugTaken(tx *gorm.DB, tenantID uint, slug string, exceptID uint) (bool, error) {
	var count int64
	err := tx.Unscoped().
		Model(&models.BlogPost{}).
		Where("tenant_id = ? AND slug = ? AND id <> ?", tenantID, slug, exceptID).
		Count(&count).
		Error
	if err != nil {
		return false, errors.Wrap(err, "檢查文章網址失敗")
	}
	return count > 0, nil
}

// 查詢已發布的文章，新的在前
func (s *BlogService) ListPublished(ctx context.Context, tenantID uint, limit, offset int) ([]models.BlogPost, int64, error) {
	limit, offset = paginate(limit, offset)

	query := s.db.WithContext(ctx).
		Model(&models.BlogPost{}).
		Where("tenant_id = ? AND published = ?", tenantID, true)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "查詢文章數量失敗")
	}

	var posts []models.BlogPost
	err := query.
		Omit("body").
		Order("published_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).
		Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "查詢文章列表失敗")
	}
	return posts, total, nil
}

func (s *BlogService) GetPublished(ctx context.Context, tenantID uint, slug string) (*models.BlogPost, error) {
	var post models.BlogPost
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND slug = ? AND published = ?", tenantID, slug, true).
		First(&post).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, errors.Wrap(err, "查詢文章失敗")
	}
	return &post, nil
}

func (s *BlogService) Create(ctx context.Context, tenantID, authorID uint, in PostInput) (*models.BlogPost, error) {
	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(in.Title)
	}
	if slug == "" {
		slug = "post-" + uuid.NewString()[:8]
	}

	post := models.BlogPost{
		TenantID:      tenantID,
		AuthorID:      authorID,
		Title:         in.Title,
		Slug:          slug,
		Summary:       in.Summary,
		Body:          in.Body,
		CoverImageURL: in.CoverImageURL,
		Published:     in.Published,
	}
	if post.Published {
		now := time.Now()
		post.PublishedAt = &now
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := s.slugTaken(tx, tenantID, slug, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrSlugTaken
		}
		if err := tx.Create(&post).Error; err != nil {
			return errors.Wrap(err, "新增文章失敗")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *BlogService) Update(ctx context.Context, tenantID, postID uint, patch PostPatch) (*models.BlogPost, error) {
	var post models.BlogPost
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND tenant_id = ?", postID, tenantID).First(&post).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return errors.Wrap(err, "查詢文章失敗")
		}

		updates := map[string]interface{}{}
		if patch.Title != nil {
			updates["title"] = *patch.Title
			post.Title = *patch.Title
		}
		if patch.Slug != nil {
			slug := Slugify(*patch.Slug)
			if slug == "" {
				slug = Slugify(post.Title)
			}
			if slug != post.Slug {
				taken, err := s.slugTaken(tx, tenantID, slug, post.ID)
				if err != nil {
					return err
				}
				if taken {
					return ErrSlugTaken
				}
				updates["slug"] = slug
				post.Slug = slug
			}
		}
		if patch.Summary != nil {
			updates["summary"] = *patch.Summary
			post.Summary = *patch.Summary
		}
		if patch.Body != nil {
			updates["body"] = *patch.Body
			post.Body = *patch.Body
		}
		if patch.CoverImageURL != nil {
			updates["cover_image_url"] = *patch.CoverImageURL
			post.CoverImageURL = *patch.CoverImageURL
		}
		if patch.Published != nil && *patch.Published != post.Published {
			updates["published"] = *patch.Published
			post.Published = *patch.Published
			if post.Published {
				now := time.Now()
				updates["published_at"] = now
				post.PublishedAt = &now
			}
		}

		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&models.BlogPost{}).Where("id = ?", post.ID).Updates(updates).Error; err != nil {
			return errors.Wrap(err, "修改文章失敗")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *BlogService) Publish(ctx context.Context, tenantID, postID uint) (*models.BlogPost, error) {
	published := true
	return s.Update(ctx, tenantID, postID, PostPatch{Published: &published})
}

func (s *BlogService) Delete(ctx context.Context, tenantID, postID uint) error {
	result := s.db.WithContext(ctx).
		Unscoped().
		Where("id = ? AND tenant_id = ?", postID, tenantID).
		Delete(&models.BlogPost{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "刪除文章失敗")
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// 查詢所有文章(包含草稿)
func (s *BlogService) ListAll(ctx context.Context, tenantID uint, limit, offset int) ([]models.BlogPost, int64, error) {
	limit, offset = paginate(limit, offset)

	query := s.db.WithContext(ctx).Model(&models.BlogPost{}).Where("tenant_id = ?", tenantID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "查詢文章數量失敗")
	}

	var posts []models.BlogPost
	err := query.Omit("body").Order("id DESC").Limit(limit).Offset(offset).Find(&posts).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "查詢文章列表失敗")
	}
	return posts, total, nil
}
