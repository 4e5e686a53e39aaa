package model

import (
	"time"
)

// PaymentCode 抵扣码：兑换一次等价于完成一笔购买。
// 与 RedeemCode 不同，它绑定账号而非设备，兑换后产生 Purchase 行，
// 访问权走购买判定，码本身不再参与访问判定。
//
// DocumentID 为空表示任意单期可用，非空表示仅限指定刊物。
type PaymentCode struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Code        string    `gorm:"size:20;uniqueIndex;not null" json:"code"`
	IsUsed      bool      `gorm:"default:false;index" json:"is_used"`
	DocumentID  *int64    `gorm:"index" json:"document_id,omitempty"`
	GeneratedBy int64     `gorm:"not null;index" json:"generated_by"`
	UsedBy      *int64    `gorm:"index" json:"used_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (PaymentCode) TableName() string {
	return "payment_codes"
}
