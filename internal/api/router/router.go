package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nefnief-tech/gardes-v2/config"
	"github.com/Nefnief-tech/gardes-v2/internal/api/handler"
	"github.com/Nefnief-tech/gardes-v2/internal/api/middleware"
	"github.com/Nefnief-tech/gardes-v2/pkg/jwt"
	"github.com/Nefnief-tech/gardes-v2/pkg/redis"
)

const (
	maxBodyBytes   = 1 << 20
	authRateLimit  = 10
	authRateWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
// jwtMgr 为 nil 表示云端功能关闭：科目接口以匿名身份工作，账号接口返回 503
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger, "/health", "/api/v1/events"))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":        "ok",
			"cloud_enabled": cfg.Feature.CloudEnabled,
		})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 事件流
		v1.GET("/events", h.Event.Stream)

		// 科目/成绩（可选认证：携带 Token 且 sync=true 时走云端）
		optional := v1.Group("")
		optional.Use(middleware.OptionalJWTAuth(jwtMgr, rdb))
		{
			subjects := optional.Group("/subjects")
			{
				subjects.GET("", h.Subject.ListSubjects)
				subjects.POST("", h.Subject.AddSubject)
				subjects.POST("/:id/grades", h.Subject.AddGrade)
				subjects.DELETE("/:id/grades/:index", h.Subject.DeleteGrade)
				subjects.GET("/:id/history", h.Subject.GetHistory)
			}

			export := optional.Group("/export")
			{
				export.GET("/grades.xlsx", h.Export.ExportWorkbook)
				export.GET("/grades.ics", h.Export.ExportCalendar)
			}
		}

		// 账号模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", middleware.RateLimit(rdb, authRateLimit, authRateWindow), h.Auth.Signup)
			auth.POST("/login", middleware.RateLimit(rdb, authRateLimit, authRateWindow), h.Auth.Login)
		}

		// 账号模块（需要认证）
		authorized := v1.Group("/auth")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/logout", h.Auth.Logout)
			authorized.GET("/me", h.Auth.GetCurrentUser)
			authorized.PUT("/sync-preference", h.Auth.UpdateSyncPreference)
		}
	}

	return r
}
