package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nefnief-tech/gardes-v2/pkg/response"
)

// BodyLimit 全局请求体大小限制中间件
// maxBytes: 允许的最大请求体字节数（如 1<<20 = 1MB）
// 超限时 ShouldBindJSON 返回 *http.MaxBytesError，由 IsBodyTooLarge 识别
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// IsBodyTooLarge 判断绑定错误是否由请求体超限引起
func IsBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// RejectBodyTooLarge 写入 413 响应
func RejectBodyTooLarge(c *gin.Context) {
	response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
}
