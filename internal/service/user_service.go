package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Naakoi/uekera_go_server/internal/model"
	"github.com/Naakoi/uekera_go_server/internal/model/dto"
	"github.com/Naakoi/uekera_go_server/internal/repository"
)

var ErrInvalidRole = errors.New("无效的用户角色")

type UserService struct {
	userRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetProfile 获取用户详情
func (s *UserService) GetProfile(userID int64) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return buildUserInfo(user), nil
}

// UpdateProfile 更新用户信息
func (s *UserService) UpdateProfile(userID int64, req *dto.UpdateProfileRequest) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return buildUserInfo(user), nil
}

// ListUsers 管理端用户列表
func (s *UserService) ListUsers(page, pageSize int, search string) ([]*dto.UserInfo, int64, error) {
	users, total, err := s.userRepo.List(page, pageSize, search)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.UserInfo, 0, len(users))
	for _, u := range users {
		items = append(items, buildUserInfo(u))
	}
	return items, total, nil
}

// SetRole 管理端调整角色和员工能力位
func (s *UserService) SetRole(userID int64, role string, canUpload, canVouchers, canManage bool) error {
	switch role {
	case model.RoleAdmin, model.RoleStaff, model.RoleClient:
	default:
		return ErrInvalidRole
	}

	// 普通用户不持有员工能力位
	if role == model.RoleClient {
		canUpload, canVouchers, canManage = false, false, false
	}

	err := s.userRepo.UpdateFields(userID, map[string]interface{}{
		"role":                 role,
		"can_upload_documents": canUpload,
		"can_create_vouchers":  canVouchers,
		"can_manage_users":     canManage,
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}
