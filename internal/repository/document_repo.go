package repository

import (
	"gorm.io/gorm"

	"github.com/Naakoi/uekera_go_server/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	return r.db.Create(doc).Error
}

func (r *DocumentRepository) GetByID(id int64) (*model.Document, error) {
	var doc model.Document
	err := r.db.Where("id = ?", id).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) Update(doc *model.Document) error {
	return r.db.Save(doc).Error
}

func (r *DocumentRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.Document{}).Where("id = ?", id).Updates(fields).Error
}

// SavePageCount 记录由可靠后端得出的页数
func (r *DocumentRepository) SavePageCount(documentID int64, count int) error {
	return r.db.Model(&model.Document{}).Where("id = ?", documentID).Update("page_count", count).Error
}

func (r *DocumentRepository) Delete(id int64) error {
	return r.db.Delete(&model.Document{}, id).Error
}

// List 分页获取刊物列表，publishedOnly 过滤掉未发布的
func (r *DocumentRepository) List(page, pageSize int, search string, publishedOnly bool) ([]*model.Document, int64, error) {
	var docs []*model.Document
	var total int64

	query := r.db.Model(&model.Document{})
	if search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}
	if publishedOnly {
		query = query.Where("published_at IS NOT NULL")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("published_at DESC, created_at DESC").Offset(offset).Limit(pageSize).Find(&docs).Error; err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}

// ListByIDs 按 ID 集合获取刊物
func (r *DocumentRepository) ListByIDs(ids []int64) ([]*model.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var docs []*model.Document
	err := r.db.Where("id IN ?", ids).Find(&docs).Error
	return docs, err
}

// AllIDs 所有刊物 ID，供缓存清理任务比对孤儿目录
func (r *DocumentRepository) AllIDs() ([]int64, error) {
	var ids []int64
	err := r.db.Model(&model.Document{}).Pluck("id", &ids).Error
	return ids, err
}
