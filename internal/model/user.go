package model

import (
	"time"
)

// 用户角色
const (
	RoleAdmin  = "admin"
	RoleStaff  = "staff"
	RoleClient = "client"
)

type User struct {
	ID                    int64      `gorm:"primaryKey" json:"id"`
	Name                  string     `gorm:"size:100;not null" json:"name"`
	Email                 string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash          *string    `gorm:"size:255" json:"-"`
	GoogleID              *string    `gorm:"column:google_id;size:100;uniqueIndex" json:"-"`
	Role                  string     `gorm:"size:20;default:client;index" json:"role"` // admin, staff, client
	CanUploadDocuments    bool       `gorm:"default:false" json:"can_upload_documents"`
	CanCreateVouchers     bool       `gorm:"default:false" json:"can_create_vouchers"`
	CanManageUsers        bool       `gorm:"default:false" json:"can_manage_users"`
	EmailVerified         bool       `gorm:"default:false" json:"email_verified"`
	VerificationCode      *string    `gorm:"size:100" json:"-"`
	VerificationExpiresAt *time.Time `json:"-"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// IsAdmin 是否为管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsStaff 是否为编辑部员工
func (u *User) IsStaff() bool {
	return u.Role == RoleStaff
}
