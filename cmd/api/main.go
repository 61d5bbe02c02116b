package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/nurse-roster-api/internal/handler"
	"github.com/noah-isme/nurse-roster-api/internal/middleware"
	"github.com/noah-isme/nurse-roster-api/internal/repository"
	"github.com/noah-isme/nurse-roster-api/internal/service"
	"github.com/noah-isme/nurse-roster-api/pkg/cache"
	"github.com/noah-isme/nurse-roster-api/pkg/config"
	"github.com/noah-isme/nurse-roster-api/pkg/database"
	"github.com/noah-isme/nurse-roster-api/pkg/export"
	"github.com/noah-isme/nurse-roster-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/nurse-roster-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/nurse-roster-api/pkg/middleware/requestid"
	"github.com/noah-isme/nurse-roster-api/pkg/notify"
	"github.com/noah-isme/nurse-roster-api/pkg/validation"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close() //nolint:errcheck

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	txManager := database.NewTxManager(db, database.TxOptions{
		Timeout:      cfg.Database.TxTimeout,
		QueryTimeout: cfg.Database.QueryTimeout,
		MaxRetries:   cfg.Database.TxMaxRetries,
		Logger:       logr,
		OnRetry:      func(int, error) { metrics.RecordTxRetry() },
	})

	var redisClient *redis.Client
	if cfg.Schedule.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			// the schedule view still works uncached
			logr.Warn("redis unavailable, schedule cache disabled", zap.Error(err))
			redisClient = nil
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Schedule.CacheTTL, logr, redisClient != nil)

	shiftRepo := repository.NewShiftRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	leaveRepo := repository.NewLeaveRequestRepository(db)
	userRepo := repository.NewUserRepository(db)
	validator := validation.MustNew()

	publisher, err := newPublisher(cfg.Notify, logr)
	if err != nil {
		return err
	}
	notifications := service.NewNotificationService(publisher, service.NotificationConfig{
		Workers:        cfg.Notify.Workers,
		MaxRetries:     cfg.Notify.MaxRetries,
		PublishTimeout: cfg.Notify.PublishTimeout,
	}, metrics, logr)
	notifications.Start(context.Background())

	shifts := service.NewShiftService(txManager, shiftRepo, assignmentRepo, cacheSvc, userRepo, validator, logr)
	assignments := service.NewAssignmentService(txManager, shiftRepo, assignmentRepo, leaveRepo, userRepo, validator, logr,
		service.WithAssignmentCache(cacheSvc),
		service.WithAssignmentMetrics(metrics),
		service.WithAssignmentAudit(userRepo),
	)
	leaves := service.NewLeaveRequestService(txManager, shiftRepo, assignmentRepo, leaveRepo, validator, logr,
		service.WithLeaveLocation(cfg.Schedule.Location()),
		service.WithLeaveNotifier(notifications),
		service.WithLeaveCache(cacheSvc),
		service.WithLeaveMetrics(metrics),
		service.WithLeaveAudit(userRepo),
	)
	schedules := service.NewScheduleService(assignmentRepo, userRepo, cacheSvc, export.NewRegistry(), validator, logr)
	tokens := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer)

	probes := map[string]handler.Probe{"postgres": db.PingContext}
	if redisClient != nil {
		probes["redis"] = cacheRepo.Ping
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	handler.RegisterRoutes(r, cfg.APIPrefix, tokens, handler.Handlers{
		Shifts:        handler.NewShiftHandler(shifts),
		Assignments:   handler.NewAssignmentHandler(assignments),
		LeaveRequests: handler.NewLeaveRequestHandler(leaves),
		Schedules:     handler.NewScheduleHandler(schedules),
		Metrics:       handler.NewMetricsHandler(metrics, probes),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("http shutdown", zap.Error(err))
	}
	if err := notifications.Stop(shutdownCtx); err != nil {
		logr.Warn("notification queue did not drain", zap.Error(err))
	}
	return nil
}

func newPublisher(cfg config.NotifyConfig, logr *zap.Logger) (notify.Publisher, error) {
	if !cfg.Enabled || cfg.AMQPURL == "" {
		return notify.NewLogPublisher(logr), nil
	}
	publisher, err := notify.NewAMQPPublisher(cfg.AMQPURL, cfg.Queue, logr)
	if err != nil {
		return nil, fmt.Errorf("connect amqp: %w", err)
	}
	return publisher, nil
}
