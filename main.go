package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Alertivo/internal/dispatch"
	"Alertivo/internal/handler"
	"Alertivo/internal/listeners"
	"Alertivo/internal/models"
	syncx "Alertivo/internal/sync"
	"Alertivo/pkg/backup"
	"Alertivo/pkg/cache"
	"Alertivo/pkg/config"
	"Alertivo/pkg/logger"
	"Alertivo/pkg/metrics"
	"Alertivo/pkg/middleware"
	"Alertivo/pkg/notification"
	"Alertivo/pkg/scheduler"
	"Alertivo/pkg/stream"
	"Alertivo/pkg/util"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.GlobalConfig

	logger.Init(cfg.Log)
	defer logger.Sync()

	db, err := util.OpenDatabase(cfg.DBDriver, cfg.DSN)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	if err := models.AutoMigrate(db); err != nil {
		logger.Fatal("failed to migrate schema", zap.Error(err))
	}
	if err := db.AutoMigrate(&middleware.OperationLog{}); err != nil {
		logger.Fatal("failed to migrate operation log", zap.Error(err))
	}

	store, err := cache.NewCache(cache.Config{
		Type: cfg.CacheType,
		Redis: cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
	})
	if err != nil {
		logger.Fatal("failed to init cache", zap.Error(err))
	}
	defer store.Close()

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate: cfg.RateLimit,
		PerRouteRates: map[string]string{
			cfg.APIPrefix + "/auth/otp/request": "10-M",
			cfg.APIPrefix + "/auth/otp/verify":  "20-M",
		},
		SkipPaths:  []string{"/health", "/metrics"},
		AddHeaders: true,
	}).WithObserver(middleware.NewPrometheusObserver())
	if cfg.RedisAddr != "" {
		limiter.WithRedis(redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}))
	}

	signals := util.NewSignalHub()
	hub := stream.NewHub(30 * time.Second)
	mailer := notification.NewMailNotification(cfg.Mail)
	push := notification.NewExpoPush(cfg.ExpoPushURL)
	admin := syncx.NewAdminClient(cfg.AdminSyncURL)
	listeners.InitAlertListeners(signals, hub, push, admin)

	router := dispatch.NewRouter(db, signals)
	monitor := dispatch.NewLivenessMonitor(db, cfg.HeartbeatTimeout)

	sysmon := metrics.NewSystemMonitor(15 * time.Second)
	sysmon.Start()
	defer sysmon.Stop()

	cr := scheduler.NewCron(time.Local)
	if _, err := cr.AddWithCtx(cfg.SweepSchedule, monitor.Run); err != nil {
		logger.Fatal("failed to schedule liveness sweep", zap.Error(err))
	}
	if cfg.BackupEnabled {
		if err := backup.Register(cr); err != nil {
			logger.Fatal("failed to schedule backup", zap.Error(err))
		}
	}
	cr.Start()
	defer cr.Stop()

	gin.SetMode(ginMode(cfg.Mode))
	engine := gin.New()
	engine.Use(gin.Recovery(), limiter.Middleware())
	engine.Use(middleware.OperationLogMiddleware(db, middleware.OperationLogConfig{
		GeoDBPath: cfg.GeoIPDBPath,
	}))
	engine.GET("/metrics", metrics.Handler())

	h := handler.NewHandlers(db, router, monitor, hub, mailer, limiter, cfg.OTPAllowedDomain)
	h.RegisterRoutes(engine, cfg.APIPrefix, store)

	srv := &http.Server{Addr: cfg.Addr, Handler: engine}
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server exited", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}

func ginMode(mode string) string {
	switch mode {
	case gin.ReleaseMode, gin.TestMode:
		return mode
	default:
		return gin.DebugMode
	}
}
