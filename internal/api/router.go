package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/pmhub/project-manager/internal/api/handler"
	"github.com/pmhub/project-manager/internal/api/middleware"
	"github.com/pmhub/project-manager/internal/core/access"
	"github.com/pmhub/project-manager/internal/core/domain"
	"github.com/pmhub/project-manager/internal/core/ports"
)

// RouterDeps carries everything the HTTP layer needs. main builds it.
type RouterDeps struct {
	Log         zerolog.Logger
	FrontendURL string
	Scope       access.ScopePolicy
	// Registry receives the HTTP metrics and backs /metrics. Nil means the
	// default registry, where the custom metrics live.
	Registry *prometheus.Registry

	Identity ports.IdentityResolver
	Limiter  middleware.Limiter

	Auth       ports.AuthService
	Users      ports.UserService
	Projects   ports.ProjectService
	Tasks      ports.TaskService
	Comments   ports.CommentService
	Activities ports.ActivityService
	Dashboard  ports.DashboardService

	Health *handler.HealthHandler
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomiddleware.Secure())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{d.FrontendURL},
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomiddleware.BodyLimit("10M"))
	e.Use(echomiddleware.Gzip())
	metricsMiddleware, metricsHandler := httpMetrics(d.Registry)
	e.Use(metricsMiddleware)

	// --- Probes, metrics and docs (no auth required) ---
	e.GET("/", d.Health.Root)
	e.GET("/health", d.Health.Liveness)
	e.GET("/health/ready", d.Health.Readiness)
	e.GET("/db-status", d.Health.DBStatus)
	e.GET("/db-test", d.Health.DBTest)
	e.GET("/metrics", metricsHandler)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	authn := middleware.Authenticate(d.Identity)
	staff := middleware.RequireRole(domain.RoleAdmin, domain.RoleTeam)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)
	projectScope := middleware.RequireProjectAccess(d.Scope)

	// --- Auth ---
	authHandler := handler.NewAuthHandler(d.Auth)
	auth := e.Group("/api/auth")
	limited := middleware.RateLimit(d.Limiter, "auth", d.Log)
	auth.POST("/register", authHandler.Register, limited)
	auth.POST("/login", authHandler.Login, limited)
	auth.POST("/forgot-password", authHandler.ForgotPassword, limited)
	auth.GET("/me", authHandler.Me, authn)
	auth.POST("/logout", authHandler.Logout, authn)
	auth.POST("/refresh", authHandler.Refresh, authn)

	// --- Users ---
	userHandler := handler.NewUserHandler(d.Users)
	users := e.Group("/api/users", authn)
	users.GET("", userHandler.List, adminOnly)
	users.POST("", userHandler.Create, adminOnly)
	users.GET("/team", userHandler.Team)
	users.GET("/clients", userHandler.Clients)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete, adminOnly)
	users.PATCH("/:id/toggle-status", userHandler.ToggleStatus, adminOnly)

	// --- Projects, tasks and comments ---
	projectHandler := handler.NewProjectHandler(d.Projects, d.Tasks, d.Comments)
	projects := e.Group("/api/projects", authn)
	projects.GET("", projectHandler.List)
	projects.POST("", projectHandler.Create, staff, middleware.RequirePermission(access.CreateProjects))

	project := projects.Group("/:projectId", projectScope)
	project.GET("", projectHandler.Get)
	project.PUT("", projectHandler.Update, staff, middleware.RequirePermission(access.EditProjects))
	project.DELETE("", projectHandler.Delete, staff, middleware.RequirePermission(access.DeleteProjects))
	project.GET("/tasks", projectHandler.ListTasks, middleware.RequirePermission(access.ViewTasks))
	project.POST("/tasks", projectHandler.CreateTask, middleware.RequirePermission(access.ManageTasks))
	project.PUT("/tasks/:taskId", projectHandler.UpdateTask, middleware.RequirePermission(access.ManageTasks))
	project.DELETE("/tasks/:taskId", projectHandler.DeleteTask, middleware.RequirePermission(access.ManageTasks))
	project.GET("/comments", projectHandler.ListComments)
	project.POST("/comments", projectHandler.CreateComment)

	// --- Activity feed ---
	activityHandler := handler.NewActivityHandler(d.Activities)
	activities := e.Group("/api/activities", authn)
	activities.GET("", activityHandler.List)
	activities.POST("", activityHandler.Create, staff)
	activities.GET("/:activityId", activityHandler.Get, middleware.RequireActivityAccess(d.Scope))

	// --- Dashboard ---
	dashboardHandler := handler.NewDashboardHandler(d.Dashboard)
	dashboard := e.Group("/api/dashboard", authn)
	dashboard.GET("", dashboardHandler.Overview)
	dashboard.GET("/stats", dashboardHandler.Stats)

	return e
}

func httpMetrics(reg *prometheus.Registry) (echo.MiddlewareFunc, echo.HandlerFunc) {
	cfg := echoprometheus.MiddlewareConfig{Subsystem: "projectmanager"}
	if reg == nil {
		return echoprometheus.NewMiddlewareWithConfig(cfg), echoprometheus.NewHandler()
	}
	cfg.Registerer = reg
	return echoprometheus.NewMiddlewareWithConfig(cfg),
		echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}
