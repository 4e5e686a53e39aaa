package middleware

import (
	"github.com/gin-gonic/gin"
)

const DeviceIDKey = "deviceID"

// Device 提取设备标识。优先级：X-Device-Id 头 → device_id cookie →
// device_id 查询/表单字段。没有设备标识不是错误，匿名主体会拿到空串。
func Device() gin.HandlerFunc {
	return func(c *gin.Context) {
		deviceID := c.GetHeader("X-Device-Id")
		if deviceID == "" {
			if cookie, err := c.Cookie("device_id"); err == nil {
				deviceID = cookie
			}
		}
		if deviceID == "" {
			deviceID = c.Query("device_id")
		}
		if deviceID == "" {
			deviceID = c.PostForm("device_id")
		}

		if deviceID != "" {
			c.Set(DeviceIDKey, deviceID)
		}
		c.Next()
	}
}

// GetDeviceID 从上下文获取设备标识，没有则返回空串
func GetDeviceID(c *gin.Context) string {
	if v, exists := c.Get(DeviceIDKey); exists {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
