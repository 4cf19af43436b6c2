package main

import (
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitcloner/internal/database"
	"gitcloner/internal/gitops"
	"gitcloner/internal/router"
	"gitcloner/internal/services"
	"gitcloner/pkg/config"
	"gitcloner/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	if err := logger.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	appLogger := logger.GetLogger()
	appLogger.Info("Starting GitCloner...")

	// 初始化数据库
	if err := database.Initialize(cfg); err != nil {
		appLogger.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			appLogger.Error("Failed to close database:", err)
		}
	}()

	// 执行数据库迁移
	if err := database.Migrate(); err != nil {
		appLogger.Fatalf("Failed to migrate database: %v", err)
	}

	// 用户表为空时创建默认管理员
	if err := seedAdmin(cfg); err != nil {
		appLogger.Fatalf("Failed to initialize seed data: %v", err)
	}

	// 工作副本根目录
	if err := os.MkdirAll(cfg.Sync.ReposDir, 0755); err != nil {
		appLogger.Fatalf("Failed to create repos dir: %v", err)
	}

	// 设置Gin模式
	gin.SetMode(cfg.Server.Mode)

	// 组装服务
	db := database.GetDB()
	store := database.NewGormRepositoryStore(db)
	adapter := gitops.NewGoGitAdapter(cfg.Sync.GitTimeout)
	userService := services.NewUserService(db)
	sessionService := services.NewSessionService(cfg.Session.TokenDuration)
	repoService := services.NewRepositoryService(store, store, adapter, cfg.Sync.ReposDir)

	// 启动同步调度器（在路由初始化前）
	scheduler := services.NewSyncScheduler(repoService, cfg.Sync.Cron, cfg.Sync.Workers)
	if err := scheduler.Start(); err != nil {
		appLogger.Errorf("Failed to start sync scheduler: %v", err)
		// 不影响主服务启动
	}
	defer scheduler.Stop()

	// 设置路由
	r := router.SetupRouter(&router.Deps{
		UserService:       userService,
		SessionService:    sessionService,
		RepositoryService: repoService,
		Scheduler:         scheduler,
	})

	// 启动过期会话清理任务
	sweepTicker := time.NewTicker(cfg.Session.SweepInterval)
	go func() {
		for range sweepTicker.C {
			if removed := sessionService.Sweep(); removed > 0 {
				appLogger.Debugf("Swept %d expired sessions", removed)
			}
		}
	}()
	defer sweepTicker.Stop()

	// 启动服务器。写超时覆盖处理器内阻塞的git操作（见config）
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	appLogger.Infof("Server started on port %s", cfg.Server.Port)

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	if err := server.Close(); err != nil {
		appLogger.Error("Server forced to shutdown:", err)
	}
	appLogger.Info("Server exited")
}
