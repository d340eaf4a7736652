package models

import (
	"time"

	"gorm.io/gorm"
)

type BlogPost struct {
	gorm.Model
	TenantID      uint   `gorm:"uniqueIndex:idx_blog_tenant_slug;not null"`
	AuthorID      uint   `gorm:"index"`
	Title         string `gorm:"not null"`
	Slug          string `gorm:"size:191;uniqueIndex:idx_blog_tenant_slug;not null"`
	Summary       string
	Body          string `gorm:"type:text"`
	CoverImageURL string
	Published     bool `gorm:"index"`
	PublishedAt   *time.Time
}
