package main

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	commonMiddleware "github.com/dumeirei/helpcenter-backend/internal/common/middleware"
	"github.com/dumeirei/helpcenter-backend/internal/common/validate"
	adminHandler "github.com/dumeirei/helpcenter-backend/internal/handler/admin"
	contentHandler "github.com/dumeirei/helpcenter-backend/internal/handler/content"
	supportHandler "github.com/dumeirei/helpcenter-backend/internal/handler/support"
	"github.com/dumeirei/helpcenter-backend/internal/middleware"
)

// setupRouter 设置路由
func setupRouter(r *gin.Engine, a *app, opLogger *commonMiddleware.OperationLogger) error {
	cfg := a.cfg

	if err := validate.RegisterGin(cfg.HelpCenter.SupportedLocales); err != nil {
		return err
	}
	// 仅信任配置中的反向代理转发的 X-Forwarded-For / X-Real-IP
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return err
	}

	// 处理器
	contentH := contentHandler.NewHandler(a.catalog)
	supportH := supportHandler.NewHandler(a.tickets, a.returns, a.forms, a.settings)
	authH := adminHandler.NewAuthHandler(a.auth)
	adminContentH := adminHandler.NewContentHandler(a.catalog)
	ticketH := adminHandler.NewTicketHandler(a.tickets, a.photos)
	returnsH := adminHandler.NewReturnsHandler(a.returns)
	settingsH := adminHandler.NewSettingsHandler(a.settings, a.forms)
	userH := adminHandler.NewUserHandler(a.users)
	dashH := adminHandler.NewDashboardHandler(a.dash)

	// 全局中间件
	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.SecureHeaders())
	r.Use(middleware.CORS(&cfg.CORS))
	r.Use(middleware.AccessLog(a.logger))
	if cfg.Tracing.Enabled {
		r.Use(commonMiddleware.Tracing(&commonMiddleware.TracingConfig{
			ServiceName: cfg.Tracing.ServiceName,
			SkipPaths:   []string{"/health", "/ping", "/ready", cfg.Metrics.Path},
		}))
	}
	if a.metrics != nil {
		r.Use(a.metrics.Middleware(cfg.Metrics.Path))
		r.GET(cfg.Metrics.Path, a.metrics.Handler())
	}
	if cfg.Server.MaxBodySize > 0 {
		r.Use(middleware.RequestSizeLimiter(cfg.Server.MaxBodySize))
	}

	// 健康检查（不需要认证）
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(dbProbe(a.db), redisProbe(a.redis)))

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	var submitLimit, loginLimit gin.HandlerFunc = noopHandler, noopHandler
	if cfg.RateLimit.Enabled {
		submitLimit = middleware.SubmissionRateLimit(a.redis, cfg.RateLimit.SubmissionLimit,
			time.Duration(cfg.RateLimit.SubmissionWindow)*time.Second)
		loginLimit = middleware.LoginRateLimit(a.redis, cfg.RateLimit.LoginLimit,
			time.Duration(cfg.RateLimit.LoginWindow)*time.Second)
	}

	// 公开接口
	v1 := r.Group("/api/v1")
	{
		contentH.RegisterRoutes(v1)
		supportH.RegisterRoutes(v1)
		supportH.RegisterSubmitRoutes(v1.Group("", submitLimit))
	}

	// 管理后台
	admin := r.Group("/api/admin")
	admin.Use(opLogger.Log())
	{
		authH.RegisterPublicRoutes(admin.Group("", loginLimit))

		protected := admin.Group("")
		protected.Use(middleware.AdminAuth(a.jwt))
		{
			authH.RegisterRoutes(protected)
			dashH.RegisterRoutes(protected)
			adminContentH.RegisterRoutes(protected)
			ticketH.RegisterRoutes(protected)
			returnsH.RegisterRoutes(protected)
			settingsH.RegisterRoutes(protected)
			userH.RegisterRoutes(protected)
		}
	}

	return nil
}

func noopHandler(c *gin.Context) {
	c.Next()
}
