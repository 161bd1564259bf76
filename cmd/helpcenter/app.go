package main

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/helpcenter-backend/internal/common/cache"
	"github.com/dumeirei/helpcenter-backend/internal/common/config"
	"github.com/dumeirei/helpcenter-backend/internal/common/jwt"
	"github.com/dumeirei/helpcenter-backend/internal/common/metrics"
	"github.com/dumeirei/helpcenter-backend/internal/repository"
	adminService "github.com/dumeirei/helpcenter-backend/internal/service/admin"
	contentService "github.com/dumeirei/helpcenter-backend/internal/service/content"
	"github.com/dumeirei/helpcenter-backend/internal/service/notification"
	"github.com/dumeirei/helpcenter-backend/internal/service/returnform"
	"github.com/dumeirei/helpcenter-backend/internal/service/returns"
	"github.com/dumeirei/helpcenter-backend/internal/service/ticket"
	"github.com/dumeirei/helpcenter-backend/internal/service/upload"
	"github.com/dumeirei/helpcenter-backend/pkg/mail"
	"github.com/dumeirei/helpcenter-backend/pkg/oss"
	"github.com/dumeirei/helpcenter-backend/pkg/sms"
)

// app 进程内共享的依赖
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *gorm.DB
	redis   *redis.Client
	metrics *metrics.Metrics

	jwt      *jwt.Manager
	logs     *repository.OperationLogRepository
	photos   *upload.PhotoStore
	forms    *returnform.Service
	settings *adminService.SettingsService
	catalog  *contentService.Service
	tickets  *ticket.Service
	returns  *returns.Service
	auth     *adminService.AuthService
	users    *adminService.UserService
	dash     *adminService.DashboardService
	seeder   *adminService.Seeder
}

// externals 外部服务客户端，测试时可替换
type externals struct {
	mailer   mail.Sender
	sms      sms.Sender
	uploader oss.Uploader
}

// newExternals 按配置创建邮件、短信与对象存储客户端
func newExternals(cfg *config.Config, log *zap.Logger) (*externals, error) {
	ext := &externals{}

	if cfg.Mail.Configured() {
		ext.mailer = mail.NewSMTPSender(&mail.SMTPConfig{
			Host:        cfg.Mail.Host,
			Port:        cfg.Mail.Port,
			Username:    cfg.Mail.Username,
			Password:    cfg.Mail.Password,
			From:        mail.Address{Name: cfg.Mail.FromName, Email: cfg.Mail.FromAddress},
			DialTimeout: time.Duration(cfg.Mail.DialTimeout) * time.Second,
		})
	} else {
		log.Warn("SMTP is not configured, emails will be recorded as not sent")
	}

	if cfg.SMS.Enabled {
		sender, err := sms.NewAliyunSender(&sms.AliyunConfig{
			AccessKeyID:     cfg.SMS.AccessKeyID,
			AccessKeySecret: cfg.SMS.AccessKeySecret,
			SignName:        cfg.SMS.SignName,
			TemplateCode:    cfg.SMS.TemplateCode,
		})
		if err != nil {
			return nil, err
		}
		ext.sms = sender
	}

	uploader, err := upload.NewUploader(&cfg.OSS)
	if err != nil {
		return nil, err
	}
	ext.uploader = uploader
	return ext, nil
}

// newApp 组装仓储与服务
func newApp(cfg *config.Config, log *zap.Logger, db *gorm.DB, redisClient *redis.Client, m *metrics.Metrics, ext *externals) *app {
	if log == nil {
		log = zap.NewNop()
	}
	a := &app{
		cfg:     cfg,
		logger:  log,
		db:      db,
		redis:   redisClient,
		metrics: m,
	}

	a.jwt = jwt.NewManager(&jwt.Config{
		Secret:            cfg.JWT.Secret,
		AccessExpireTime:  cfg.JWT.AccessTokenDuration(),
		RefreshExpireTime: cfg.JWT.RefreshTokenDuration(),
		Issuer:            cfg.JWT.Issuer,
	})

	// 仓储
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	articleRepo := repository.NewArticleRepository(db)
	translationRepo := repository.NewTranslationRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	returnRepo := repository.NewReturnRequestRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	a.logs = repository.NewOperationLogRepository(db)

	// 基础服务
	a.photos = upload.NewPhotoStore(ext.uploader, &cfg.OSS, log)
	a.forms = returnform.NewService(settingsRepo, log)
	a.settings = adminService.NewSettingsService(settingsRepo, log)
	notifier := notification.New(ext.mailer, ext.sms, notification.Config{
		AdminAddress:   cfg.Mail.AdminAddress,
		SupportAddress: cfg.Mail.SupportAddress,
		SiteURL:        cfg.Mail.SiteURL,
		LogoURL:        adminService.DefaultLogoURL,
		OnCallPhone:    cfg.SMS.OnCallPhone,
	}, log, m)

	// 业务服务
	locales := contentService.NewLocales(cfg.HelpCenter.BaseLocale, cfg.HelpCenter.SupportedLocales)
	a.catalog = contentService.NewService(
		categoryRepo, articleRepo, translationRepo,
		cache.NewStore(redisClient), locales, m,
		contentService.Options{
			SearchLimit:  cfg.HelpCenter.SearchLimit,
			PopularLimit: cfg.HelpCenter.PopularLimit,
			CacheTTL:     time.Duration(cfg.HelpCenter.CacheTTL) * time.Second,
		},
		log,
	)
	a.tickets = ticket.NewService(ticketRepo, a.forms, a.photos, notifier, m, ticket.Config{
		SupportAddress: cfg.Mail.SupportAddress,
		SiteURL:        cfg.Mail.SiteURL,
		RetryGrace:     time.Duration(cfg.Maintenance.ReplyRetryGrace) * time.Second,
	}, log)
	a.returns = returns.NewService(returnRepo, a.forms, a.photos, notifier, m, log)

	a.auth = adminService.NewAuthService(userRepo, a.jwt, cfg.Crypto.BcryptCost, log)
	a.users = adminService.NewUserService(userRepo, cfg.Crypto.BcryptCost, log)
	a.dash = adminService.NewDashboardService(a.catalog, a.tickets, userRepo, a.logs)
	a.seeder = adminService.NewSeeder(userRepo, categoryRepo, a.settings, a.forms, cfg.Crypto.BcryptCost, log)

	return a
}
