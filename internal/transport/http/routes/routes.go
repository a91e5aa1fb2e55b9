package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/theranjitkumar/blogger/internal/core/domain"
	"github.com/theranjitkumar/blogger/internal/infra/config"
	"github.com/theranjitkumar/blogger/internal/transport/http/handlers"
	"github.com/theranjitkumar/blogger/internal/transport/http/middleware"
	"github.com/theranjitkumar/blogger/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Login         *usecase.LoginService
	Registration  *usecase.RegistrationService
	Accounts      *usecase.AccountService
	PasswordReset *usecase.PasswordResetService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	Metrics     *middleware.HTTPMetrics
	RateLimiter *middleware.RateLimiter
	LoginLimits middleware.RateLimitStore
	ResetLimits middleware.RateLimitStore
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	authenticate := middleware.Authenticate(deps.Services.Login, deps.Services.Accounts, deps.Config.Session.CookieName)

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(
			deps.Services.Login,
			deps.Services.Registration,
			deps.Config.Session,
			deps.Config.JWT,
		)

		authGroup := api.Group("/auth")
		authHandler.RegisterRoutes(authGroup, buildLoginMiddlewares(deps)...)
		authGroup.POST("/logout", authenticate, authHandler.Logout)

		passwordHandler := handlers.NewPasswordHandler(deps.Services.PasswordReset)

		passwordGroup := api.Group("/password")
		passwordGroup.POST("/change", authenticate, middleware.RequireActiveAccount(deps.Services.Accounts), passwordHandler.ChangePassword)

		resetGroup := passwordGroup.Group("/reset")
		passwordHandler.RegisterResetRoutes(resetGroup, buildResetMiddlewares(deps)...)

		accountHandler := handlers.NewAccountHandler(deps.Services.Accounts)

		api.GET("/me", authenticate, accountHandler.Profile)

		adminGroup := api.Group("/admin/accounts")
		adminGroup.Use(
			authenticate,
			middleware.RequireActiveAccount(deps.Services.Accounts),
			middleware.RequireRole(domain.RoleAdmin),
		)
		accountHandler.RegisterAdminRoutes(adminGroup)
	}

	return r
}

func buildLoginMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.LoginLimits == nil {
		return nil
	}
	return []gin.HandlerFunc{deps.RateLimiter.Limit(deps.LoginLimits)}
}

func buildResetMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.ResetLimits == nil {
		return nil
	}
	return []gin.HandlerFunc{deps.RateLimiter.Limit(deps.ResetLimits)}
}
