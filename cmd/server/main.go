package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Nefnief-tech/gardes-v2/config"
	"github.com/Nefnief-tech/gardes-v2/internal/api/handler"
	"github.com/Nefnief-tech/gardes-v2/internal/api/router"
	"github.com/Nefnief-tech/gardes-v2/internal/repository"
	"github.com/Nefnief-tech/gardes-v2/internal/service"
	"github.com/Nefnief-tech/gardes-v2/pkg/database"
	"github.com/Nefnief-tech/gardes-v2/pkg/events"
	"github.com/Nefnief-tech/gardes-v2/pkg/jwt"
	"github.com/Nefnief-tech/gardes-v2/pkg/kvstore"
	applogger "github.com/Nefnief-tech/gardes-v2/pkg/logger"
	"github.com/Nefnief-tech/gardes-v2/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("local_driver", cfg.Local.Driver),
		zap.Bool("cloud_enabled", cfg.Feature.CloudEnabled),
	)

	// 3. 打开本地存储（driver=none 时 kv 为 nil）
	kv, err := kvstore.Open(&cfg.Local)
	if err != nil {
		logger.Fatal("打开本地存储失败", zap.Error(err))
	}

	// 4. 事件总线 + 可选 Redis（连接失败时降级运行，不中断启动）
	bus := events.NewBus()
	var publisher events.Publisher = bus

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，黑名单、限流与跨实例事件将不可用", zap.Error(err))
		rdb = nil
	}
	var blacklist service.TokenBlacklist
	if rdb != nil {
		bridge := events.NewRedisBridge(bus, rdb, cfg.Redis.Channel, logger)
		publisher = bridge
		blacklist = rdb
		go bridge.Run(ctx)
	}

	// 5. 云端镜像（仅 feature.cloud_enabled 时连接数据库并执行迁移）
	var (
		db     *gorm.DB
		jwtMgr *jwt.Manager
	)
	if cfg.Feature.CloudEnabled {
		db, err = database.NewDB(&cfg.Database, cfg.Log.Level, logger)
		if err != nil {
			logger.Fatal("数据库连接失败", zap.Error(err))
		}
		sqlDB, err := db.DB()
		if err != nil {
			logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
		}
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			logger.Fatal("数据库迁移失败", zap.Error(err))
		}
		jwtMgr = jwt.NewManager(&cfg.Auth)
	}

	// 6. 依赖注入: Repository → Service → Handler
	local := repository.NewLocalStore(kv, cfg.Local.Key, publisher, logger)
	repo := repository.NewRepository(local, db)
	svc := service.NewService(cfg, repo, jwtMgr, blacklist, publisher, logger)
	h := handler.NewHandler(svc, bus)

	// 7. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 8. 启动 HTTP 服务器（优雅关闭）
	// 事件流为长连接，不设置写超时；请求上下文派生自 ctx，关闭时 stop() 结束所有事件流
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	// 先结束事件桥与事件流
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭本地存储
	if kv != nil {
		closeWithLog(logger, "本地存储", kv)
	}

	// 关闭数据库连接
	if db != nil {
		if closeDB, _ := db.DB(); closeDB != nil {
			closeWithLog(logger, "数据库连接", closeDB)
		}
	}

	// 关闭 Redis 连接
	if rdb != nil {
		closeWithLog(logger, "Redis 连接", rdb)
	}

	logger.Info("服务器已关闭")
}

// closeWithLog 关闭资源，失败时记录错误
func closeWithLog(logger *zap.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Error("关闭"+name+"失败", zap.String("resource", name), zap.Error(err))
	}
}
