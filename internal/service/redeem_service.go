package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"gorm.io/gorm"

	"github.com/Naakoi/uekera_go_server/internal/model"
	"github.com/Naakoi/uekera_go_server/internal/model/dto"
	"github.com/Naakoi/uekera_go_server/internal/repository"
)

var (
	ErrCodeNotFound     = errors.New("兑换码不存在")
	ErrCodeUsed         = errors.New("兑换码已被使用")
	ErrCodeScope        = errors.New("兑换码不适用于该刊物")
	ErrAlreadyActivated = errors.New("当前设备或账号已激活")
	ErrCodeGeneration   = errors.New("兑换码生成失败")
)

const (
	codeLength  = 10
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// RedeemService 兑换码的生成、兑换与状态查询。
// 兑换是码生命周期里唯一一次状态跃迁，靠仓储层的条件更新保证原子性。
type RedeemService struct {
	redeemRepo *repository.RedeemCodeRepository
	docRepo    *repository.DocumentRepository
}

func NewRedeemService(redeemRepo *repository.RedeemCodeRepository, docRepo *repository.DocumentRepository) *RedeemService {
	return &RedeemService{
		redeemRepo: redeemRepo,
		docRepo:    docRepo,
	}
}

// Generate 批量生成兑换码。码为 10 位大写字母数字，加密随机，
// 撞库时重试，同批内和历史码都不会重复。
func (s *RedeemService) Generate(creatorID int64, req *dto.GenerateCodesRequest) ([]string, error) {
	if req.DocumentID != nil {
		if _, err := s.docRepo.GetByID(*req.DocumentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDocumentNotFound
			}
			return nil, err
		}
	}

	codes := make([]*model.RedeemCode, 0, req.Count)
	seen := make(map[string]struct{})

	for i := 0; i < req.Count; i++ {
		var codeStr string
		ok := false
		for retry := 0; retry < 5; retry++ {
			c, err := randomCode(codeLength)
			if err != nil {
				return nil, fmt.Errorf("failed to generate code: %w", err)
			}
			if _, dup := seen[c]; dup {
				continue
			}
			exists, err := s.redeemRepo.CodeExists(c)
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
			return nil, ErrCodeGeneration
		}

		seen[codeStr] = struct{}{}
		codes = append(codes, &model.RedeemCode{
			Code:         codeStr,
			DocumentID:   req.DocumentID,
			DurationType: req.DurationType,
			CreatorID:    creatorID,
		})
	}

	if err := s.redeemRepo.CreateBatch(codes); err != nil {
		return nil, err
	}

	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = c.Code
	}
	return out, nil
}

// Redeem 兑换。校验顺序：码存在 → 未使用 → 范围匹配 → 主体未重复激活，
// 然后通过条件更新完成激活。并发兑换同一个码时输家会看到已使用错误。
func (s *RedeemService) Redeem(identity model.Identity, req *dto.RedeemRequest) (*dto.RedeemResponse, error) {
	code, err := s.redeemRepo.GetByCode(req.Code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}

	if code.IsUsed {
		return nil, ErrCodeUsed
	}

	// 单期码必须用在它绑定的刊物上
	if code.DocumentID != nil && req.DocumentID != nil && *code.DocumentID != *req.DocumentID {
		return nil, ErrCodeScope
	}

	now := time.Now()

	// 同范围的生效激活已存在就不再消耗新码，过期激活不拦
	var activated bool
	if code.IsGlobal() {
		activated, err = s.redeemRepo.HasGlobalAccess(identity, now)
	} else {
		activated, err = s.redeemRepo.HasDocumentAccess(identity, *code.DocumentID, now)
	}
	if err != nil {
		return nil, err
	}
	if activated {
		return nil, ErrAlreadyActivated
	}

	expiresAt := expiryFor(code.DurationType, now)

	ok, err := s.redeemRepo.MarkUsed(code.ID, identity, expiresAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		// 条件更新没改到行，竞争中输掉了
		return nil, ErrCodeUsed
	}

	log.Printf("兑换码 %s 激活成功 (global=%v)", code.Code, code.IsGlobal())

	resp := &dto.RedeemResponse{Activated: true, Target: "device"}
	if !code.IsGlobal() {
		resp.Target = "document"
	}
	if expiresAt != nil {
		resp.ExpiresAt = expiresAt.Format(time.RFC3339)
	}
	return resp, nil
}

// CheckStatus 查询主体的激活状态。公开接口，只读。
// 登录用户能同时看到账号名下和本设备匿名时期的激活。
func (s *RedeemService) CheckStatus(identity model.Identity, documentID *int64) (*dto.CheckStatusResponse, error) {
	codes, err := s.redeemRepo.StatusActivations(identity, time.Now())
	if err != nil {
		return nil, err
	}

	resp := &dto.CheckStatusResponse{}
	for _, c := range codes {
		resp.Activated = true
		if c.IsGlobal() {
			resp.FullAccess = true
			resp.DocumentAccess = true
		} else if documentID != nil && *c.DocumentID == *documentID {
			resp.DocumentAccess = true
		}
	}
	return resp, nil
}

// List 后台兑换码列表
func (s *RedeemService) List(page, pageSize int, onlyUnused bool) ([]*dto.RedeemCodeListItem, int64, error) {
	codes, total, err := s.redeemRepo.List(page, pageSize, onlyUnused)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.RedeemCodeListItem, 0, len(codes))
	for _, c := range codes {
		item := &dto.RedeemCodeListItem{
			ID:           c.ID,
			Code:         c.Code,
			IsUsed:       c.IsUsed,
			DocumentID:   c.DocumentID,
			DurationType: c.DurationType,
			UserID:       c.UserID,
			CreatedAt:    c.CreatedAt.Format(time.RFC3339),
		}
		if c.DeviceID != nil {
			item.DeviceID = *c.DeviceID
		}
		if c.ActivatedAt != nil {
			item.ActivatedAt = c.ActivatedAt.Format(time.RFC3339)
		}
		if c.ExpiresAt != nil {
			item.ExpiresAt = c.ExpiresAt.Format(time.RFC3339)
		}
		items = append(items, item)
	}
	return items, total, nil
}

// Delete 删除兑换码。对已使用的码等同于撤销这次激活，
// 设备或账号随之失去它授予的访问权
func (s *RedeemService) Delete(id int64) error {
	if _, err := s.redeemRepo.GetByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCodeNotFound
		}
		return err
	}
	return s.redeemRepo.Delete(id)
}

// expiryFor 兑换时刻计算过期时间：permanent 永不过期，
// weekly 自然 7 天，monthly 自然月（AddDate 处理月末进位）
func expiryFor(durationType string, now time.Time) *time.Time {
	switch durationType {
	case model.DurationWeekly:
		t := now.AddDate(0, 0, 7)
		return &t
	case model.DurationMonthly:
		t := now.AddDate(0, 1, 0)
		return &t
	default:
		return nil
	}
}

// randomCode 加密随机的大写字母数字串
func randomCode(n int) (string, error) {
	max := big.NewInt(int64(len(codeCharset)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = codeCharset[idx.Int64()]
	}
	return string(b), nil
}
