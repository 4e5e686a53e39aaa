package dto

// SimulatePaymentRequest 模拟支付请求（开发/验收环境）
type SimulatePaymentRequest struct {
	PaymentMethod string `json:"payment_method,omitempty" binding:"omitempty,oneof=stripe paypal simulated"`
}

// PurchaseResponse 购买结果
type PurchaseResponse struct {
	PurchaseID int64   `json:"purchase_id"`
	DocumentID int64   `json:"document_id"`
	Amount     float64 `json:"amount"`
	Status     string  `json:"status"`
}

// SubscribeRequest 订阅请求（网关回调确认后调用）
type SubscribeRequest struct {
	PlanID        int64  `json:"plan_id" binding:"required"`
	PaymentMethod string `json:"payment_method,omitempty" binding:"omitempty,oneof=stripe paypal simulated"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// SubscribeResponse 订阅结果
type SubscribeResponse struct {
	SubscriptionID int64  `json:"subscription_id"`
	StartsAt       string `json:"starts_at"`
	EndsAt         string `json:"ends_at"`
}

// GeneratePaymentCodesRequest 批量生成抵扣码
type GeneratePaymentCodesRequest struct {
	Count      int    `json:"count" binding:"required,min=1,max=100"`
	DocumentID *int64 `json:"document_id,omitempty"`
}

// GeneratePaymentCodesResponse 批量生成抵扣码响应
type GeneratePaymentCodesResponse struct {
	Codes []string `json:"codes"`
}

// RedeemPaymentCodeRequest 抵扣码兑换请求。抵扣码总是换成
// 指定单期的购买记录，所以刊物 ID 必填
type RedeemPaymentCodeRequest struct {
	Code       string `json:"code" binding:"required"`
	DocumentID int64  `json:"document_id" binding:"required"`
}

// PaymentCodeListItem 抵扣码列表项
type PaymentCodeListItem struct {
	ID         int64  `json:"id"`
	Code       string `json:"code"`
	IsUsed     bool   `json:"is_used"`
	DocumentID *int64 `json:"document_id,omitempty"`
	UsedBy     *int64 `json:"used_by,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// PlanListItem 订阅套餐
type PlanListItem struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	Description  string  `json:"description,omitempty"`
	Price        float64 `json:"price"`
	DurationDays int     `json:"duration_days"`
}
