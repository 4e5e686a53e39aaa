package model

import (
	"time"
)

// 购买状态
const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusCompleted = "completed"
	PurchaseStatusFailed    = "failed"
)

// Purchase 单期买断，绑定账号。存在 completed 记录即永久可读该期。
type Purchase struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	UserID        int64     `gorm:"not null;index" json:"user_id"`
	DocumentID    int64     `gorm:"not null;index" json:"document_id"`
	Amount        float64   `gorm:"type:decimal(10,2)" json:"amount"`
	PaymentMethod string    `gorm:"size:20" json:"payment_method,omitempty"` // stripe, paypal, simulated, code
	PaymentCodeID *int64    `gorm:"index" json:"payment_code_id,omitempty"`  // 抵扣码购买时回链
	Status        string    `gorm:"size:20;default:pending;index" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Purchase) TableName() string {
	return "purchases"
}
