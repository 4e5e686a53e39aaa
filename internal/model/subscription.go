package model

import (
	"time"
)

// 订阅状态
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusCancelled = "cancelled"
)

// Subscription 订阅期内可读全部刊物。判定只看是否存在一条
// status=active 且 ends_at 未过期的记录，不要求唯一。
type Subscription struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	UserID        int64     `gorm:"not null;index" json:"user_id"`
	PlanID        int64     `gorm:"not null;index" json:"plan_id"`
	Amount        float64   `gorm:"type:decimal(10,2)" json:"amount,omitempty"`
	StartsAt      time.Time `gorm:"not null" json:"starts_at"`
	EndsAt        time.Time `gorm:"not null;index" json:"ends_at"`
	Status        string    `gorm:"size:20;default:active;index" json:"status"`
	PaymentMethod string    `gorm:"size:20" json:"payment_method,omitempty"`
	TransactionID string    `gorm:"size:100" json:"transaction_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
