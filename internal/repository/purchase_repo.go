package repository

import (
	"gorm.io/gorm"

	"github.com/Naakoi/uekera_go_server/internal/model"
)

type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

func (r *PurchaseRepository) Create(purchase *model.Purchase) error {
	return r.db.Create(purchase).Error
}

func (r *PurchaseRepository) GetByID(id int64) (*model.Purchase, error) {
	var purchase model.Purchase
	err := r.db.Where("id = ?", id).First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// HasCompleted 用户是否已完成购买某刊物。
// 只有 completed 状态算数，pending 和 failed 都不授予访问权。
func (r *PurchaseRepository) HasCompleted(userID, documentID int64) (bool, error) {
	var count int64
	err := r.db.Model(&model.Purchase{}).
		Where("user_id = ? AND document_id = ? AND status = ?", userID, documentID, model.PurchaseStatusCompleted).
		Count(&count).Error
	return count > 0, err
}

// CompletedDocumentIDs 用户已购刊物 ID 集合
func (r *PurchaseRepository) CompletedDocumentIDs(userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&model.Purchase{}).
		Where("user_id = ? AND status = ?", userID, model.PurchaseStatusCompleted).
		Pluck("document_id", &ids).Error
	return ids, err
}

func (r *PurchaseRepository) UpdateStatus(id int64, status string) error {
	return r.db.Model(&model.Purchase{}).Where("id = ?", id).Update("status", status).Error
}

// ListByUser 用户的购买记录，按时间倒序
func (r *PurchaseRepository) ListByUser(userID int64, page, pageSize int) ([]*model.Purchase, int64, error) {
	var purchases []*model.Purchase
	var total int64

	query := r.db.Model(&model.Purchase{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&purchases).Error; err != nil {
		return nil, 0, err
	}

	return purchases, total, nil
}
