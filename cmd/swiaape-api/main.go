package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/swiaape-api/api/swagger"
	"github.com/noah-isme/swiaape-api/internal/handler"
	"github.com/noah-isme/swiaape-api/internal/navigation"
	"github.com/noah-isme/swiaape-api/internal/repository"
	"github.com/noah-isme/swiaape-api/internal/router"
	"github.com/noah-isme/swiaape-api/internal/service"
	"github.com/noah-isme/swiaape-api/pkg/ai"
	"github.com/noah-isme/swiaape-api/pkg/cache"
	"github.com/noah-isme/swiaape-api/pkg/config"
	"github.com/noah-isme/swiaape-api/pkg/database"
	"github.com/noah-isme/swiaape-api/pkg/jobs"
	"github.com/noah-isme/swiaape-api/pkg/logger"
	"github.com/noah-isme/swiaape-api/pkg/mail"
)

// @title SWIAAPE API
// @version 1.0.0
// @description School administration back end: student lookup, grade editing, study plan review and user administration
// @BasePath /
// @schemes http

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	validate := validator.New()
	metrics := service.NewMetricsService()
	views := navigation.NewRouter()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	planRepo := repository.NewStudyPlanRepository(db)
	sessionRepo := repository.NewSessionRepository(redisClient)
	counterRepo := repository.NewCounterRepository(redisClient, "lookup")
	cacheRepo := repository.NewCacheRepository(redisClient)

	generator := newGenerator(cfg.AI, metrics, logr)
	mailer := mail.NewQueuedSender(newMailer(cfg.Mail, logr), cfg.Mail.SendTimeout, jobs.Config{
		Workers:    cfg.Mail.Workers,
		MaxRetries: cfg.Mail.MaxRetries,
		RetryDelay: cfg.Mail.RetryDelay,
		Logger:     logr,
	})
	mailer.Start(context.Background())

	sessions := service.NewSessionService(sessionRepo, cfg.Session.TTL, logr)
	limiter := service.NewLookupLimiter(counterRepo, cfg.Lookup.RateLimit, cfg.Lookup.RateWindow, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)
	authSvc := service.NewAuthService(userRepo, mailer, views, validate, logr, service.AuthConfig{
		InstitutionalDomain: cfg.Auth.InstitutionalDomain,
		ResetSecret:         cfg.Auth.ResetSecret,
		ResetTTL:            cfg.Auth.ResetTTL,
		ResetBaseURL:        cfg.Auth.ResetBaseURL,
		EnableDemoReset:     cfg.Auth.EnableDemoReset,
	})
	landingSvc := service.NewLandingService(studentRepo, authSvc, limiter, sessions, views, metrics, logr)
	editorSvc := service.NewGradeEditorService(courseRepo, userRepo, sessions, views, logr)
	planSvc := service.NewStudyPlanService(planRepo, studentRepo, generator, validate, logr)
	chatSvc := service.NewChatService(studentRepo, planSvc, generator, logr)
	dashboardSvc := service.NewDashboardService(userRepo, planRepo, courseRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)
	directorySvc := service.NewUserDirectoryService(userRepo, dashboardSvc, validate, logr)

	engine := router.New(cfg, router.Dependencies{
		Sessions:          sessions,
		Metrics:           metrics,
		AuditStore:        userRepo,
		Logger:            logr,
		NavigationHandler: handler.NewNavigationHandler(views),
		LandingHandler:    handler.NewLandingHandler(landingSvc),
		AuthHandler:       handler.NewAuthHandler(authSvc, views),
		TeacherHandler:    handler.NewTeacherHandler(editorSvc),
		StudyPlanHandler:  handler.NewStudyPlanHandler(planSvc),
		ChatHandler:       handler.NewChatHandler(chatSvc),
		UserHandler:       handler.NewUserHandler(directorySvc),
		DashboardHandler:  handler.NewDashboardHandler(dashboardSvc),
		MetricsHandler: handler.NewMetricsHandler(metrics, map[string]handler.Pinger{
			"postgres": db.PingContext,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		}),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	mailer.Stop(shutdownCtx)
	logr.Info("server stopped")
}

func newGenerator(cfg config.AIConfig, metrics *service.MetricsService, logr *zap.Logger) ai.Generator {
	if cfg.APIKey == "" {
		logr.Warn("OPENAI_API_KEY not set, plan generation and chat are disabled")
		return ai.Disabled{}
	}
	generator, err := ai.NewOpenAIGenerator(ai.OpenAIConfig{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
		Logger:      logr,
		Observer:    metrics.ObserveAI,
	})
	if err != nil {
		logr.Warn("openai generator unavailable", zap.Error(err))
		return ai.Disabled{}
	}
	return generator
}

func newMailer(cfg config.MailConfig, logr *zap.Logger) mail.Sender {
	if cfg.SendGridAPIKey == "" {
		return mail.NewLogSender(logr)
	}
	return mail.NewSendGridSender(cfg.SendGridAPIKey, cfg.FromName, cfg.FromAddress)
}
