package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/Naakoi/uekera_go_server/internal/model"
	"github.com/Naakoi/uekera_go_server/internal/pkg/response"
	"github.com/Naakoi/uekera_go_server/internal/repository"
)

// 员工能力位
const (
	CapUploadDocuments = "upload_documents"
	CapCreateVouchers  = "create_vouchers"
	CapManageUsers     = "manage_users"
)

// RequireStaff 要求员工或管理员身份，可附加能力位要求。
// 管理员不受能力位约束，员工必须命中全部要求的能力位。
func RequireStaff(userRepo *repository.UserRepository, caps ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "请提供认证信息")
			c.Abort()
			return
		}

		user, err := userRepo.GetByID(userID)
		if err != nil {
			response.AuthError(c, "用户不存在")
			c.Abort()
			return
		}

		if user.IsAdmin() {
			c.Next()
			return
		}

		if !user.IsStaff() || !hasCapabilities(user, caps) {
			response.PermissionError(c, "无权执行该操作")
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireAdmin 仅管理员
func RequireAdmin(userRepo *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "请提供认证信息")
			c.Abort()
			return
		}

		user, err := userRepo.GetByID(userID)
		if err != nil || !user.IsAdmin() {
			response.PermissionError(c, "需要管理员权限")
			c.Abort()
			return
		}

		c.Next()
	}
}

func hasCapabilities(user *model.User, caps []string) bool {
	for _, cap := range caps {
		switch cap {
		case CapUploadDocuments:
			if !user.CanUploadDocuments {
				return false
			}
		case CapCreateVouchers:
			if !user.CanCreateVouchers {
				return false
			}
		case CapManageUsers:
			if !user.CanManageUsers {
				return false
			}
		default:
			return false
		}
	}
	return true
}
