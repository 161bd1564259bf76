package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/dumeirei/helpcenter-backend/internal/common/crypto"
	"github.com/dumeirei/helpcenter-backend/internal/common/database"
	"github.com/dumeirei/helpcenter-backend/internal/common/metrics"
	commonMiddleware "github.com/dumeirei/helpcenter-backend/internal/common/middleware"
	"github.com/dumeirei/helpcenter-backend/internal/common/tracing"
	"github.com/dumeirei/helpcenter-backend/internal/scheduler"
)

// newServeCmd 启动 HTTP 服务
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := bootstrap(true)
			if err != nil {
				return err
			}
			defer in.close()
			return serve(cmd.Context(), in)
		},
	}
}

func serve(ctx context.Context, in *infra) error {
	cfg, log := in.cfg, in.log
	log.Info("Starting help center backend",
		zap.String("version", version),
		zap.String("env", cfg.Server.Mode),
	)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace)
	}

	tracer, err := tracing.Init(&tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Server.Mode,
		Endpoint:       cfg.Tracing.Endpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	ext, err := newExternals(cfg, log)
	if err != nil {
		return fmt.Errorf("init external services: %w", err)
	}

	a := newApp(cfg, log, in.db, in.redis, m, ext)
	if err := in.prepare(ctx, a, false); err != nil {
		return err
	}

	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "release", "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	if cfg.Maintenance.Enabled {
		sched := newMaintenance(a)
		sched.Start()
		defer sched.Stop()
	}

	engine := gin.New()
	opLogger := commonMiddleware.NewOperationLogger(a.logs, log)
	if err := setupRouter(engine, a, opLogger); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer shutdown failed", zap.Error(err))
	}

	log.Info("Server exited")
	return nil
}

// newMaintenance 注册后台维护任务
func newMaintenance(a *app) *scheduler.Scheduler {
	mc := a.cfg.Maintenance
	s := scheduler.NewScheduler(5*time.Minute, a.logger)
	scheduler.SetupTasks(s, scheduler.NewTaskHandler(a.tickets, a.logs, scheduler.Config{
		RetryInterval: time.Duration(mc.ReplyRetryMins) * time.Minute,
		RetryWindow:   time.Duration(mc.ReplyRetryWindow) * time.Hour,
		RetryBatch:    mc.ReplyRetryBatch,
		LogRetention:  time.Duration(mc.LogRetentionDays) * 24 * time.Hour,
	}, a.logger))
	return s
}

// newMigrateCmd 仅执行表结构迁移
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(_ *cobra.Command, _ []string) error {
			in, err := bootstrap(false)
			if err != nil {
				return err
			}
			defer in.close()

			if err := database.Migrate(in.db); err != nil {
				return err
			}
			in.log.Info("Migration completed")
			return nil
		},
	}
}

// newSeedCmd 迁移并写入默认数据
func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Migrate and insert default admin, settings, return form and categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := bootstrap(false)
			if err != nil {
				return err
			}
			defer in.close()

			a := newApp(in.cfg, in.log, in.db, nil, nil, &externals{})
			if err := in.prepare(cmd.Context(), a, true); err != nil {
				return err
			}
			in.log.Info("Seed completed")
			return nil
		},
	}
}

// newCreateAdminCmd 创建后台账号，未提供密码时从终端读取
func newCreateAdminCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(email) == "" {
				return stderrors.New("--email is required")
			}
			if password == "" {
				pw, err := readPassword(cmd)
				if err != nil {
					return err
				}
				password = pw
			}
			if err := crypto.CheckPassword(password); err != nil {
				return err
			}

			in, err := bootstrap(false)
			if err != nil {
				return err
			}
			defer in.close()

			if err := database.Migrate(in.db); err != nil {
				return err
			}
			a := newApp(in.cfg, in.log, in.db, nil, nil, &externals{})
			created, err := a.seeder.EnsureAdmin(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			if !created {
				return fmt.Errorf("an account with email %s already exists", email)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Admin %s created\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "Admin", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func readPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", stderrors.New("--password is required when stdin is not a terminal")
	}
	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}
