package router

import (
	"time"

	"gitcloner/internal/gitops"
	"gitcloner/internal/handlers"
	"gitcloner/internal/middleware"
	"gitcloner/internal/services"
	"gitcloner/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Deps 路由依赖
type Deps struct {
	UserService       *services.UserService
	SessionService    *services.SessionService
	RepositoryService *services.RepositoryService
	Scheduler         *services.SyncScheduler
}

// SetupRouter 设置路由
func SetupRouter(deps *Deps) *gin.Engine {
	registerValidations()

	router := gin.New()
	// 仓库地址以URL编码形式出现在路径参数中，按原始路径匹配并自行解码一次
	router.UseRawPath = true
	router.UnescapePathValues = false

	// 中间件
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS())

	registerRoutes(router, deps)
	return router
}

// registerValidations 注册自定义校验器
func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("giturl", func(fl validator.FieldLevel) bool {
			_, err := gitops.RepoPath(fl.Field().String())
			return err == nil
		})
	}
}

// 注册所有路由
func registerRoutes(router *gin.Engine, deps *Deps) {
	auth := middleware.NewAuthMiddleware(deps.SessionService)

	api := router.Group("/api/v1")
	{
		// 健康检查接口
		api.GET("/health", healthCheck)
		api.GET("/ping", ping)

		// 认证路由
		authHandler := handlers.NewAuthHandler(deps.UserService, deps.SessionService)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)   // 用户登录
			authGroup.POST("/logout", authHandler.Logout) // 用户登出
			authGroup.GET("/me", auth.RequireLogin(), authHandler.Me)
		}

		// 仓库路由（全部需要登录）
		repoHandler := handlers.NewRepositoryHandler(deps.RepositoryService)
		repos := api.Group("/repositories", auth.RequireLogin())
		{
			repos.GET("", repoHandler.List)
			repos.POST("", repoHandler.Create)
			repos.GET("/:url", repoHandler.Get)
			repos.DELETE("/:url", repoHandler.Delete)
			repos.POST("/:url/sync", repoHandler.Sync)
			repos.GET("/:url/logs", repoHandler.Logs)
		}

		// 调度器状态
		schedulerHandler := handlers.NewSchedulerHandler(deps.Scheduler)
		api.GET("/scheduler/status", auth.RequireLogin(), schedulerHandler.Status)
	}
}

func healthCheck(c *gin.Context) {
	data := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"service":   "GitCloner",
		"version":   "1.0.0",
	}
	response.Success(c, data)
}

func ping(c *gin.Context) {
	response.SuccessWithMessage(c, "pong", nil)
}
