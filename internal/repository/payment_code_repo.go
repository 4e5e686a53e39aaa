package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Naakoi/uekera_go_server/internal/model"
)

// 事务内部用于区分"竞争失败"和真正的数据库错误
var errPaymentCodeTaken = errors.New("payment code already taken")

type PaymentCodeRepository struct {
	db *gorm.DB
}

func NewPaymentCodeRepository(db *gorm.DB) *PaymentCodeRepository {
	return &PaymentCodeRepository{db: db}
}

func (r *PaymentCodeRepository) CreateBatch(codes []*model.PaymentCode) error {
	return r.db.Create(&codes).Error
}

func (r *PaymentCodeRepository) GetByCode(codeStr string) (*model.PaymentCode, error) {
	var code model.PaymentCode
	err := r.db.Where("code = ?", codeStr).First(&code).Error
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *PaymentCodeRepository) CodeExists(codeStr string) (bool, error) {
	var count int64
	err := r.db.Model(&model.PaymentCode{}).Where("code = ?", codeStr).Count(&count).Error
	return count > 0, err
}

// RedeemForPurchase 抵扣码兑换的事务：is_used=false 守卫的条件更新
// 和 Purchase 落库在同一个事务里，要么都成要么都不成。
// 并发兑换同一个码只有一个事务能改到行，竞争失败返回 (false, nil)。
func (r *PaymentCodeRepository) RedeemForPurchase(codeID, userID int64, purchase *model.Purchase) (bool, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.PaymentCode{}).
			Where("id = ? AND is_used = ?", codeID, false).
			Updates(map[string]interface{}{
				"is_used": true,
				"used_by": userID,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errPaymentCodeTaken
		}
		return tx.Create(purchase).Error
	})
	if errors.Is(err, errPaymentCodeTaken) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *PaymentCodeRepository) List(page, pageSize int) ([]*model.PaymentCode, int64, error) {
	var codes []*model.PaymentCode
	var total int64

	if err := r.db.Model(&model.PaymentCode{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := r.db.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&codes).Error
	if err != nil {
		return nil, 0, err
	}
	return codes, total, nil
}
