package service

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/Naakoi/uekera_go_server/internal/model"
	"github.com/Naakoi/uekera_go_server/internal/repository"
)

// AccessService 阅读权限判定。四个授权来源按固定顺序短路：
// 员工/管理员 → 已完成购买 → 生效订阅 → 兑换码激活。
// 判定是只读的，任何来源查询失败都按无权处理并记日志，不向上抛错。
type AccessService struct {
	userRepo     *repository.UserRepository
	purchaseRepo *repository.PurchaseRepository
	subRepo      *repository.SubscriptionRepository
	redeemRepo   *repository.RedeemCodeRepository
	docRepo      *repository.DocumentRepository
}

func NewAccessService(
	userRepo *repository.UserRepository,
	purchaseRepo *repository.PurchaseRepository,
	subRepo *repository.SubscriptionRepository,
	redeemRepo *repository.RedeemCodeRepository,
	docRepo *repository.DocumentRepository,
) *AccessService {
	return &AccessService{
		userRepo:     userRepo,
		purchaseRepo: purchaseRepo,
		subRepo:      subRepo,
		redeemRepo:   redeemRepo,
		docRepo:      docRepo,
	}
}

// CanAccess 主体能否阅读指定刊物
func (s *AccessService) CanAccess(identity model.Identity, documentID int64) bool {
	now := time.Now()

	if identity.Authenticated() {
		user, err := s.userRepo.GetByID(*identity.UserID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("权限判定查询用户 %d 失败: %v", *identity.UserID, err)
			}
			// 用户不存在或查询失败，降级为匿名主体继续判定
			identity = model.GuestIdentity(identity.DeviceID)
		} else {
			if user.IsAdmin() || user.IsStaff() {
				return true
			}

			ok, err := s.purchaseRepo.HasCompleted(user.ID, documentID)
			if err != nil {
				log.Printf("权限判定查询购买记录失败 (user=%d, doc=%d): %v", user.ID, documentID, err)
			} else if ok {
				return true
			}

			ok, err = s.subRepo.HasActive(user.ID, now)
			if err != nil {
				log.Printf("权限判定查询订阅失败 (user=%d): %v", user.ID, err)
			} else if ok {
				return true
			}
		}
	}

	if !identity.Authenticated() && identity.DeviceID == "" {
		return false
	}

	ok, err := s.redeemRepo.HasDocumentAccess(identity, documentID, now)
	if err != nil {
		log.Printf("权限判定查询激活记录失败 (doc=%d): %v", documentID, err)
		return false
	}
	return ok
}

// HasFullAccess 主体是否可读全部刊物（员工、订阅或全量激活）
func (s *AccessService) HasFullAccess(identity model.Identity) bool {
	now := time.Now()

	if identity.Authenticated() {
		user, err := s.userRepo.GetByID(*identity.UserID)
		if err == nil {
			if user.IsAdmin() || user.IsStaff() {
				return true
			}
			ok, err := s.subRepo.HasActive(user.ID, now)
			if err == nil && ok {
				return true
			}
		}
	}

	if !identity.Authenticated() && identity.DeviceID == "" {
		return false
	}

	ok, err := s.redeemRepo.HasGlobalAccess(identity, now)
	if err != nil {
		log.Printf("权限判定查询全量激活失败: %v", err)
		return false
	}
	return ok
}

// ListAccessible 主体可读的刊物列表。有全量授权直接返回全部已发布刊物，
// 否则取已购集合与单期激活集合的并集。
func (s *AccessService) ListAccessible(identity model.Identity) ([]*model.Document, error) {
	if s.HasFullAccess(identity) {
		docs, _, err := s.docRepo.List(1, 1000, "", true)
		return docs, err
	}

	now := time.Now()
	idSet := make(map[int64]struct{})

	if identity.Authenticated() {
		purchased, err := s.purchaseRepo.CompletedDocumentIDs(*identity.UserID)
		if err != nil {
			return nil, err
		}
		for _, id := range purchased {
			idSet[id] = struct{}{}
		}
	}

	activated, err := s.redeemRepo.ActiveDocumentIDs(identity, now)
	if err != nil {
		return nil, err
	}
	for _, id := range activated {
		idSet[id] = struct{}{}
	}

	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	return s.docRepo.ListByIDs(ids)
}
