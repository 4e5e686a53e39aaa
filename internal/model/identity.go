package model

// Identity 一次访问的主体。登录用户 UserID 非空；
// 匿名访客只有设备 ID。两者的激活记录互不串扰：
// 登录主体只按 user_id 匹配，匿名主体只按 (user_id IS NULL, device_id) 匹配。
type Identity struct {
	UserID   *int64
	DeviceID string
}

// Authenticated 是否为登录用户
func (i Identity) Authenticated() bool {
	return i.UserID != nil
}

// GuestIdentity 匿名设备主体
func GuestIdentity(deviceID string) Identity {
	return Identity{DeviceID: deviceID}
}

// UserIdentity 登录用户主体，deviceID 可为空
func UserIdentity(userID int64, deviceID string) Identity {
	return Identity{UserID: &userID, DeviceID: deviceID}
}
