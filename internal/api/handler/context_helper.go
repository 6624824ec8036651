package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Nefnief-tech/gardes-v2/internal/dto"
	"github.com/Nefnief-tech/gardes-v2/internal/service"
	"github.com/Nefnief-tech/gardes-v2/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// tokenInfo 读取当前 Token 的 jti 与过期时间（用于注销）
func tokenInfo(c *gin.Context) (string, time.Time) {
	jti := c.GetString("token_jti")
	exp, _ := c.Get("token_exp")
	expiresAt, _ := exp.(time.Time)
	return jti, expiresAt
}

// SyncPreferenceSource 读取账号保存的同步偏好
type SyncPreferenceSource interface {
	SyncPreference(ctx context.Context, userID string) (bool, error)
}

// syncOptions 组装本次调用的同步上下文：
// user_id 来自可选认证；sync 查询参数优先，缺省时沿用已登录账号保存的偏好
func syncOptions(c *gin.Context, prefs SyncPreferenceSource) (service.SyncOptions, bool) {
	var q dto.SyncQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "sync 参数无效")
		return service.SyncOptions{}, false
	}

	opts := service.SyncOptions{UserID: c.GetString("user_id")}
	switch {
	case q.Sync != nil:
		opts.SyncEnabled = *q.Sync
	case opts.UserID != "" && prefs != nil:
		// 读取失败按未开启处理，只走本地
		enabled, err := prefs.SyncPreference(c.Request.Context(), opts.UserID)
		opts.SyncEnabled = err == nil && enabled
	}
	return opts, true
}

func toSyncStatus(r service.SyncResult) dto.SyncStatus {
	return dto.SyncStatus{
		LocalOK:        r.LocalOK,
		CloudAttempted: r.CloudAttempted,
		CloudOK:        r.CloudOK,
		Degraded:       r.Degraded(),
	}
}
