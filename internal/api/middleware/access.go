package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Naakoi/uekera_go_server/internal/pkg/response"
	"github.com/Naakoi/uekera_go_server/internal/service"
)

// RequireDocumentAccess 页面读取的守门中间件。
// 放在 OptionalAuth + Device 之后，按当前主体做访问判定，
// 无权时返回 payment-required 语义而不是认证错误。
func RequireDocumentAccess(accessSvc *service.AccessService) gin.HandlerFunc {
	return func(c *gin.Context) {
		documentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			response.ParamError(c, "无效的刊物 ID")
			c.Abort()
			return
		}

		identity := GetIdentity(c)
		if !accessSvc.CanAccess(identity, documentID) {
			response.PaymentRequiredError(c, "请购买、订阅或使用兑换码解锁")
			c.Abort()
			return
		}

		c.Next()
	}
}
