package service

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Naakoi/uekera_go_server/internal/model"
	"github.com/Naakoi/uekera_go_server/internal/model/dto"
	"github.com/Naakoi/uekera_go_server/internal/repository"
)

var (
	ErrPlanNotFound        = errors.New("订阅套餐不存在")
	ErrPlanInactive        = errors.New("订阅套餐已下架")
	ErrAlreadyPurchased    = errors.New("已购买该刊物")
	ErrPaymentCodeInvalid  = errors.New("抵扣码无效或已被使用")
	ErrPaymentCodeScope    = errors.New("抵扣码不适用于该刊物")
	ErrPaymentCodeGenerate = errors.New("抵扣码生成失败")
)

const paymentCodeLength = 8

// PaymentService 轻支付层：不接网关 SDK，只负责在支付确认后
// 记账产生 Purchase / Subscription 行。模拟支付直接记 completed，
// 抵扣码兑换在一个事务里核销码并记 completed 购买。
type PaymentService struct {
	purchaseRepo    *repository.PurchaseRepository
	subRepo         *repository.SubscriptionRepository
	docRepo         *repository.DocumentRepository
	paymentCodeRepo *repository.PaymentCodeRepository
}

func NewPaymentService(
	purchaseRepo *repository.PurchaseRepository,
	subRepo *repository.SubscriptionRepository,
	docRepo *repository.DocumentRepository,
	paymentCodeRepo *repository.PaymentCodeRepository,
) *PaymentService {
	return &PaymentService{
		purchaseRepo:    purchaseRepo,
		subRepo:         subRepo,
		docRepo:         docRepo,
		paymentCodeRepo: paymentCodeRepo,
	}
}

// SimulatePurchase 模拟单期买断，直接产生 completed 购买记录
func (s *PaymentService) SimulatePurchase(userID, documentID int64, req *dto.SimulatePaymentRequest) (*dto.PurchaseResponse, error) {
	doc, err := s.docRepo.GetByID(documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}

	already, err := s.purchaseRepo.HasCompleted(userID, documentID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, ErrAlreadyPurchased
	}

	method := req.PaymentMethod
	if method == "" {
		method = "simulated"
	}

	purchase := &model.Purchase{
		UserID:        userID,
		DocumentID:    documentID,
		Amount:        doc.Price,
		PaymentMethod: method,
		Status:        model.PurchaseStatusCompleted,
	}
	if err := s.purchaseRepo.Create(purchase); err != nil {
		return nil, err
	}

	return &dto.PurchaseResponse{
		PurchaseID: purchase.ID,
		DocumentID: documentID,
		Amount:     purchase.Amount,
		Status:     purchase.Status,
	}, nil
}

// GeneratePaymentCodes 批量生成抵扣码，8 位大写字母数字，
// 与兑换码同一套撞库重试逻辑
func (s *PaymentService) GeneratePaymentCodes(generatorID int64, req *dto.GeneratePaymentCodesRequest) ([]string, error) {
	if req.DocumentID != nil {
		if _, err := s.docRepo.GetByID(*req.DocumentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDocumentNotFound
			}
			return nil, err
		}
	}

	codes := make([]*model.PaymentCode, 0, req.Count)
	seen := make(map[string]struct{}, req.Count)
	for i := 0; i < req.Count; i++ {
		var codeStr string
		ok := false
		for retry := 0; retry < 5; retry++ {
			c, err := randomCode(paymentCodeLength)
			if err != nil {
				return nil, fmt.Errorf("failed to generate payment code: %w", err)
			}
			if _, dup := seen[c]; dup {
				continue
			}
			exists, err := s.paymentCodeRepo.CodeExists(c)
			if err != nil {
				return nil, err
			}
			if !exists {
				codeStr = c
				ok = true
				break
			}
		}
		if !ok {
			return nil, ErrPaymentCodeGenerate
		}

		seen[codeStr] = struct{}{}
		codes = append(codes, &model.PaymentCode{
			Code:        codeStr,
			DocumentID:  req.DocumentID,
			GeneratedBy: generatorID,
		})
	}

	if err := s.paymentCodeRepo.CreateBatch(codes); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(codes))
	for _, c := range codes {
		out = append(out, c.Code)
	}
	return out, nil
}

// RedeemPaymentCode 抵扣码兑换：核销码并产生 completed 购买记录，
// 两步在同一个事务里。码被抢先核销时返回无效错误。
func (s *PaymentService) RedeemPaymentCode(userID int64, req *dto.RedeemPaymentCodeRequest) (*dto.PurchaseResponse, error) {
	code, err := s.paymentCodeRepo.GetByCode(req.Code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentCodeInvalid
		}
		return nil, err
	}
	if code.IsUsed {
		return nil, ErrPaymentCodeInvalid
	}
	if code.DocumentID != nil && *code.DocumentID != req.DocumentID {
		return nil, ErrPaymentCodeScope
	}

	doc, err := s.docRepo.GetByID(req.DocumentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}

	already, err := s.purchaseRepo.HasCompleted(userID, doc.ID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, ErrAlreadyPurchased
	}

	purchase := &model.Purchase{
		UserID:        userID,
		DocumentID:    doc.ID,
		Amount:        doc.Price,
		PaymentMethod: "code",
		PaymentCodeID: &code.ID,
		Status:        model.PurchaseStatusCompleted,
	}
	won, err := s.paymentCodeRepo.RedeemForPurchase(code.ID, userID, purchase)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrPaymentCodeInvalid
	}

	return &dto.PurchaseResponse{
		PurchaseID: purchase.ID,
		DocumentID: doc.ID,
		Amount:     purchase.Amount,
		Status:     purchase.Status,
	}, nil
}

// ListPaymentCodes 抵扣码列表
func (s *PaymentService) ListPaymentCodes(page, pageSize int) ([]*dto.PaymentCodeListItem, int64, error) {
	codes, total, err := s.paymentCodeRepo.List(page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.PaymentCodeListItem, 0, len(codes))
	for _, c := range codes {
		items = append(items, &dto.PaymentCodeListItem{
			ID:         c.ID,
			Code:       c.Code,
			IsUsed:     c.IsUsed,
			DocumentID: c.DocumentID,
			UsedBy:     c.UsedBy,
			CreatedAt:  c.CreatedAt.Format(time.RFC3339),
		})
	}
	return items, total, nil
}

// Subscribe 按套餐开通订阅，时长取套餐的 duration_days
func (s *PaymentService) Subscribe(userID int64, req *dto.SubscribeRequest) (*dto.SubscribeResponse, error) {
	plan, err := s.subRepo.GetPlanByID(req.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if !plan.IsActive {
		return nil, ErrPlanInactive
	}

	method := req.PaymentMethod
	if method == "" {
		method = "simulated"
	}
	txID := req.TransactionID
	if txID == "" {
		txID = fmt.Sprintf("sim-%d-%d", userID, time.Now().UnixNano())
	}

	now := time.Now()
	sub := &model.Subscription{
		UserID:        userID,
		PlanID:        plan.ID,
		Amount:        plan.Price,
		StartsAt:      now,
		EndsAt:        now.AddDate(0, 0, plan.DurationDays),
		Status:        model.SubscriptionStatusActive,
		PaymentMethod: method,
		TransactionID: txID,
	}
	if err := s.subRepo.Create(sub); err != nil {
		return nil, err
	}

	return &dto.SubscribeResponse{
		SubscriptionID: sub.ID,
		StartsAt:       sub.StartsAt.Format(time.RFC3339),
		EndsAt:         sub.EndsAt.Format(time.RFC3339),
	}, nil
}

// ListPlans 上架中的订阅套餐
func (s *PaymentService) ListPlans() ([]*dto.PlanListItem, error) {
	plans, err := s.subRepo.ListActivePlans()
	if err != nil {
		return nil, err
	}

	items := make([]*dto.PlanListItem, 0, len(plans))
	for _, p := range plans {
		items = append(items, &dto.PlanListItem{
			ID:           p.ID,
			Name:         p.Name,
			Slug:         p.Slug,
			Description:  p.Description,
			Price:        p.Price,
			DurationDays: p.DurationDays,
		})
	}
	return items, nil
}
