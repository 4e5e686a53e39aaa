package model

import (
	"time"
)

// Document 一期 PDF 刊物。PageCount 是懒计算的缓存值：
// 首次成功统计页数后写入，此后只信任缓存，不再回退。
type Document struct {
	ID            int64      `gorm:"primaryKey" json:"id"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	Description   string     `gorm:"type:text" json:"description,omitempty"`
	FilePath      string     `gorm:"size:500;not null" json:"-"`
	ThumbnailPath *string    `gorm:"size:500" json:"thumbnail_path,omitempty"`
	ThumbnailURL  *string    `gorm:"size:500" json:"thumbnail_url,omitempty"` // OSS/CDN 镜像地址
	Price         float64    `gorm:"type:decimal(10,2);default:1.00" json:"price"`
	PageCount     *int       `json:"page_count,omitempty"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (Document) TableName() string {
	return "documents"
}
