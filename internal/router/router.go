package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/swiaape-api/internal/handler"
	"github.com/noah-isme/swiaape-api/internal/middleware"
	"github.com/noah-isme/swiaape-api/internal/models"
	"github.com/noah-isme/swiaape-api/internal/repository"
	"github.com/noah-isme/swiaape-api/internal/service"
	"github.com/noah-isme/swiaape-api/pkg/config"
	"github.com/noah-isme/swiaape-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/swiaape-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/swiaape-api/pkg/middleware/requestid"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	Sessions   *service.SessionService
	Metrics    *service.MetricsService
	AuditStore *repository.UserRepository
	Logger     *zap.Logger

	NavigationHandler *handler.NavigationHandler
	LandingHandler    *handler.LandingHandler
	AuthHandler       *handler.AuthHandler
	TeacherHandler    *handler.TeacherHandler
	StudyPlanHandler  *handler.StudyPlanHandler
	ChatHandler       *handler.ChatHandler
	UserHandler       *handler.UserHandler
	DashboardHandler  *handler.DashboardHandler
	MetricsHandler    *handler.MetricsHandler
}

// New builds the gin engine with the global middleware chain and every route.
func New(cfg *config.Config, deps Dependencies) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	Register(r, cfg, deps)
	return r
}

// Register wires the HTTP routes into the gin engine.
func Register(r *gin.Engine, cfg *config.Config, deps Dependencies) {
	if deps.MetricsHandler != nil {
		r.GET("/health", deps.MetricsHandler.Health)
		r.GET("/ready", deps.MetricsHandler.Ready)
		r.GET("/metrics", deps.MetricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix, middleware.Session(deps.Sessions, middleware.SessionOptions{
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Session.Secure,
	}, deps.Logger))

	// Navigation and landing
	api.GET("/view", deps.NavigationHandler.View)
	api.POST("/navigation/back", deps.NavigationHandler.Back)
	api.POST("/navigation/forgot-password", deps.NavigationHandler.ForgotPassword)
	api.POST("/navigation/home", deps.NavigationHandler.Home)
	api.POST("/lookup", deps.LandingHandler.Lookup)

	auth := api.Group("/auth")
	auth.POST("/login", deps.LandingHandler.Login)
	auth.POST("/logout", deps.AuthHandler.Logout)
	auth.GET("/me", deps.AuthHandler.Me)
	auth.POST("/password-recovery", deps.AuthHandler.RequestRecovery)
	auth.POST("/password-recovery/demo", deps.AuthHandler.DemoReset)
	auth.GET("/password-reset", deps.AuthHandler.OpenResetLink)
	auth.POST("/password-reset", deps.AuthHandler.ResetPassword)

	// Teacher grade editor
	teacher := api.Group("/teacher", middleware.RequireRoles(models.RoleTeacher))
	teacher.GET("/courses", deps.TeacherHandler.Courses)
	teacher.POST("/courses/:id/edit", deps.TeacherHandler.BeginEdit)
	teacher.DELETE("/courses/:id/edit", deps.TeacherHandler.Cancel)
	teacher.GET("/courses/:id/draft", deps.TeacherHandler.Draft)
	teacher.PUT("/courses/:id/draft/:studentId/notes/:slot", deps.TeacherHandler.SetNote)
	teacher.POST("/courses/:id/commit", deps.TeacherHandler.Commit)

	// Study plans and assistant
	staff := middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin)
	transition := func(action string) gin.HandlerFunc {
		return middleware.Audit(deps.AuditStore, action, "study_plan", deps.Logger)
	}
	plans := api.Group("/plans", staff)
	plans.GET("", deps.StudyPlanHandler.List)
	plans.GET("/:id", deps.StudyPlanHandler.Get)
	plans.POST("", transition(models.AuditActionPlanGenerate), deps.StudyPlanHandler.Generate)
	plans.POST("/:id/submit", transition(models.AuditActionPlanTransition), deps.StudyPlanHandler.Submit)
	plans.POST("/:id/approve", transition(models.AuditActionPlanTransition), deps.StudyPlanHandler.Approve)
	plans.POST("/:id/publish", transition(models.AuditActionPlanTransition), deps.StudyPlanHandler.Publish)
	plans.POST("/:id/revisions", transition(models.AuditActionPlanGenerate), deps.StudyPlanHandler.RequestRevision)

	api.POST("/chat", staff, deps.ChatHandler.Send)

	// Admin panel
	admin := api.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/dashboard", deps.DashboardHandler.Summary)
	admin.GET("/users", deps.UserHandler.List)
	admin.POST("/users", deps.UserHandler.Create)
	admin.PUT("/users/:id", deps.UserHandler.Update)
	admin.DELETE("/users/:id", deps.UserHandler.Delete)
	admin.POST("/users/:id/toggle-status", deps.UserHandler.ToggleStatus)
}
