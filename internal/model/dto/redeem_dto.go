package dto

// GenerateCodesRequest 批量生成兑换码请求
type GenerateCodesRequest struct {
	Count        int    `json:"count" binding:"required,min=1,max=100"`
	DocumentID   *int64 `json:"document_id,omitempty"`
	DurationType string `json:"duration_type" binding:"required,oneof=permanent weekly monthly"`
}

// GenerateCodesResponse 批量生成兑换码响应
type GenerateCodesResponse struct {
	Codes []string `json:"codes"`
}

// RedeemRequest 兑换请求
type RedeemRequest struct {
	Code       string `json:"code" binding:"required"`
	DeviceID   string `json:"device_id" binding:"required"`
	DocumentID *int64 `json:"document_id,omitempty"`
}

// RedeemResponse 兑换响应
type RedeemResponse struct {
	Activated bool   `json:"activated"`
	Target    string `json:"target"` // document 或 device
	ExpiresAt string `json:"expires_at,omitempty"`
}

// CheckStatusRequest 激活状态查询请求
type CheckStatusRequest struct {
	DeviceID   string `json:"device_id" binding:"required"`
	DocumentID *int64 `json:"document_id,omitempty"`
}

// CheckStatusResponse 激活状态查询响应
type CheckStatusResponse struct {
	Activated      bool `json:"activated"`
	FullAccess     bool `json:"full_access"`
	DocumentAccess bool `json:"document_access"`
}

// RedeemCodeListItem 兑换码列表项（后台）
type RedeemCodeListItem struct {
	ID           int64  `json:"id"`
	Code         string `json:"code"`
	IsUsed       bool   `json:"is_used"`
	DocumentID   *int64 `json:"document_id,omitempty"`
	DurationType string `json:"duration_type"`
	DeviceID     string `json:"device_id,omitempty"`
	UserID       *int64 `json:"user_id,omitempty"`
	ActivatedAt  string `json:"activated_at,omitempty"`
	ExpiresAt    string `json:"expires_at,omitempty"`
	CreatedAt    string `json:"created_at"`
}
