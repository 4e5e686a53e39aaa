package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/Naakoi/uekera_go_server/internal/model"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(sub *model.Subscription) error {
	return r.db.Create(sub).Error
}

// HasActive 用户是否有生效中的订阅。
// 生效窗口为 [starts_at, ends_at)，ends_at 到点即失效。
func (r *SubscriptionRepository) HasActive(userID int64, now time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&model.Subscription{}).
		Where("user_id = ? AND status = ? AND starts_at <= ? AND ends_at > ?",
			userID, model.SubscriptionStatusActive, now, now).
		Count(&count).Error
	return count > 0, err
}

// GetActiveByUser 用户当前生效的订阅，没有则返回 gorm.ErrRecordNotFound
func (r *SubscriptionRepository) GetActiveByUser(userID int64, now time.Time) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.
		Where("user_id = ? AND status = ? AND starts_at <= ? AND ends_at > ?",
			userID, model.SubscriptionStatusActive, now, now).
		Order("ends_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ExpireOutdated 把已过期但状态还是 active 的订阅批量置为 expired，
// 返回处理条数，供定时任务调用
func (r *SubscriptionRepository) ExpireOutdated(now time.Time) (int64, error) {
	result := r.db.Model(&model.Subscription{}).
		Where("status = ? AND ends_at <= ?", model.SubscriptionStatusActive, now).
		Update("status", model.SubscriptionStatusExpired)
	return result.RowsAffected, result.Error
}

// ListByUser 用户的订阅历史
func (r *SubscriptionRepository) ListByUser(userID int64) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&subs).Error
	return subs, err
}

// GetPlanByID 获取订阅套餐
func (r *SubscriptionRepository) GetPlanByID(id int64) (*model.SubscriptionPlan, error) {
	var plan model.SubscriptionPlan
	err := r.db.Where("id = ?", id).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListActivePlans 上架中的套餐，按价格升序
func (r *SubscriptionRepository) ListActivePlans() ([]*model.SubscriptionPlan, error) {
	var plans []*model.SubscriptionPlan
	err := r.db.Where("is_active = ?", true).Order("price ASC").Find(&plans).Error
	return plans, err
}
