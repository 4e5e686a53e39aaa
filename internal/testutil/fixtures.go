package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/Naakoi/uekera_go_server/internal/model"
)

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	passwordHash := "$2a$10$abcdefghijklmnopqrstuvwxyz123456" // bcrypt hash placeholder
	user := &model.User{
		Name:          fmt.Sprintf("testuser_%d", time.Now().UnixNano()%100000),
		Email:         fmt.Sprintf("test_%d@example.com", time.Now().UnixNano()),
		PasswordHash:  &passwordHash,
		Role:          model.RoleClient,
		EmailVerified: true,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithRole 设置用户角色
func WithRole(role string) func(*model.User) {
	return func(u *model.User) {
		u.Role = role
	}
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = email
	}
}

// WithCapabilities 设置员工能力位
func WithCapabilities(upload, vouchers, manageUsers bool) func(*model.User) {
	return func(u *model.User) {
		u.CanUploadDocuments = upload
		u.CanCreateVouchers = vouchers
		u.CanManageUsers = manageUsers
	}
}

// TestDocument 创建测试刊物
func TestDocument(t *testing.T, db *gorm.DB, opts ...func(*model.Document)) *model.Document {
	t.Helper()

	now := time.Now()
	doc := &model.Document{
		Title:       fmt.Sprintf("Test Document %d", time.Now().UnixNano()%100000),
		Description: "test description",
		FilePath:    "/tmp/test.pdf",
		Price:       2.0,
		PublishedAt: &now,
	}

	for _, opt := range opts {
		opt(doc)
	}

	if err := db.Create(doc).Error; err != nil {
		t.Fatalf("Failed to create test document: %v", err)
	}

	return doc
}

// WithPageCount 设置已知页数
func WithPageCount(n int) func(*model.Document) {
	return func(d *model.Document) {
		d.PageCount = &n
	}
}

// WithPrice 设置价格
func WithPrice(price float64) func(*model.Document) {
	return func(d *model.Document) {
		d.Price = price
	}
}

// TestPurchase 创建已完成的购买记录
func TestPurchase(t *testing.T, db *gorm.DB, userID, documentID int64, opts ...func(*model.Purchase)) *model.Purchase {
	t.Helper()

	purchase := &model.Purchase{
		UserID:     userID,
		DocumentID: documentID,
		Amount:     2.0,
		Status:     model.PurchaseStatusCompleted,
	}

	for _, opt := range opts {
		opt(purchase)
	}

	if err := db.Create(purchase).Error; err != nil {
		t.Fatalf("Failed to create test purchase: %v", err)
	}

	return purchase
}

// WithPurchaseStatus 设置购买状态
func WithPurchaseStatus(status string) func(*model.Purchase) {
	return func(p *model.Purchase) {
		p.Status = status
	}
}

// TestPlan 创建订阅套餐
func TestPlan(t *testing.T, db *gorm.DB, opts ...func(*model.SubscriptionPlan)) *model.SubscriptionPlan {
	t.Helper()

	plan := &model.SubscriptionPlan{
		Name:         fmt.Sprintf("Plan %d", time.Now().UnixNano()%100000),
		Slug:         fmt.Sprintf("plan-%d", time.Now().UnixNano()),
		Price:        10.0,
		DurationDays: 30,
		IsActive:     true,
	}

	for _, opt := range opts {
		opt(plan)
	}

	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("Failed to create test plan: %v", err)
	}

	return plan
}

// TestSubscription 创建生效中的订阅
func TestSubscription(t *testing.T, db *gorm.DB, userID, planID int64, opts ...func(*model.Subscription)) *model.Subscription {
	t.Helper()

	now := time.Now()
	sub := &model.Subscription{
		UserID:   userID,
		PlanID:   planID,
		Amount:   10.0,
		StartsAt: now.AddDate(0, 0, -1),
		EndsAt:   now.AddDate(0, 0, 29),
		Status:   model.SubscriptionStatusActive,
	}

	for _, opt := range opts {
		opt(sub)
	}

	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}

	return sub
}

// WithSubscriptionWindow 设置订阅起止时间
func WithSubscriptionWindow(start, end time.Time) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.StartsAt = start
		s.EndsAt = end
	}
}

// WithSubscriptionStatus 设置订阅状态
func WithSubscriptionStatus(status string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Status = status
	}
}

// TestRedeemCode 创建未使用的兑换码
func TestRedeemCode(t *testing.T, db *gorm.DB, creatorID int64, opts ...func(*model.RedeemCode)) *model.RedeemCode {
	t.Helper()

	code := &model.RedeemCode{
		Code:         fmt.Sprintf("TEST%06d", time.Now().UnixNano()%1000000),
		DurationType: model.DurationPermanent,
		CreatorID:    creatorID,
	}

	for _, opt := range opts {
		opt(code)
	}

	if err := db.Create(code).Error; err != nil {
		t.Fatalf("Failed to create test redeem code: %v", err)
	}

	return code
}

// WithCodeDocument 绑定到单个刊物
func WithCodeDocument(documentID int64) func(*model.RedeemCode) {
	return func(c *model.RedeemCode) {
		c.DocumentID = &documentID
	}
}

// WithDuration 设置时效类型
func WithDuration(durationType string) func(*model.RedeemCode) {
	return func(c *model.RedeemCode) {
		c.DurationType = durationType
	}
}

// WithActivation 标记为已激活
func WithActivation(userID *int64, deviceID *string, expiresAt *time.Time) func(*model.RedeemCode) {
	return func(c *model.RedeemCode) {
		now := time.Now()
		c.IsUsed = true
		c.UserID = userID
		c.DeviceID = deviceID
		c.ActivatedAt = &now
		c.ExpiresAt = expiresAt
	}
}

// TestPaymentCode 创建测试抵扣码
func TestPaymentCode(t *testing.T, db *gorm.DB, generatorID int64, opts ...func(*model.PaymentCode)) *model.PaymentCode {
	t.Helper()

	code := &model.PaymentCode{
		Code:        fmt.Sprintf("PAY%05d", time.Now().UnixNano()%100000),
		GeneratedBy: generatorID,
	}

	for _, opt := range opts {
		opt(code)
	}

	if err := db.Create(code).Error; err != nil {
		t.Fatalf("Failed to create test payment code: %v", err)
	}

	return code
}

// WithPaymentCodeDocument 绑定到单个刊物
func WithPaymentCodeDocument(documentID int64) func(*model.PaymentCode) {
	return func(c *model.PaymentCode) {
		c.DocumentID = &documentID
	}
}

// WithPaymentCodeUsed 标记为已使用
func WithPaymentCodeUsed(userID int64) func(*model.PaymentCode) {
	return func(c *model.PaymentCode) {
		c.IsUsed = true
		c.UsedBy = &userID
	}
}
