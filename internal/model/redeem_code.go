package model

import (
	"time"
)

// 兑换码时效类型
const (
	DurationPermanent = "permanent"
	DurationWeekly    = "weekly"
	DurationMonthly   = "monthly"
)

// RedeemCode 兑换码状态机。生成时 is_used=false；兑换是唯一一次
// 状态跃迁，原子绑定 device_id / user_id / activated_at / expires_at，
// 之后除删除外不可变。
//
// DocumentID 为空表示全量激活（整个设备/账号可读全部刊物），
// 非空表示仅激活单期。ExpiresAt 在兑换时按 DurationType 计算：
// permanent 为空，weekly +7 天，monthly +1 个月。
type RedeemCode struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	Code         string     `gorm:"size:20;uniqueIndex;not null" json:"code"`
	IsUsed       bool       `gorm:"default:false;index" json:"is_used"`
	DocumentID   *int64     `gorm:"index" json:"document_id,omitempty"`
	DurationType string     `gorm:"size:20;default:permanent" json:"duration_type"`
	DeviceID     *string    `gorm:"size:100;index" json:"device_id,omitempty"`
	UserID       *int64     `gorm:"index" json:"user_id,omitempty"`
	CreatorID    int64      `gorm:"not null;index" json:"creator_id"`
	ActivatedAt  *time.Time `json:"activated_at,omitempty"`
	ExpiresAt    *time.Time `gorm:"index" json:"expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (RedeemCode) TableName() string {
	return "redeem_codes"
}

// IsGlobal 是否为全量激活码
func (r *RedeemCode) IsGlobal() bool {
	return r.DocumentID == nil
}
