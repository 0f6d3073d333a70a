package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/niteshawasthi21/pjv-backend/internal/infra/config"
	redisinfra "github.com/niteshawasthi21/pjv-backend/internal/infra/redis"
	"github.com/niteshawasthi21/pjv-backend/internal/infra/security"
	"github.com/niteshawasthi21/pjv-backend/internal/transport/http/handlers"
	"github.com/niteshawasthi21/pjv-backend/internal/transport/http/middleware"
	"github.com/niteshawasthi21/pjv-backend/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Credentials *usecase.CredentialService
	Profiles    *usecase.ProfileService
	Addresses   *usecase.AddressService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config       *config.AppConfig
	Logger       *zap.Logger
	RateLimiter  *middleware.RateLimiter
	Services     ServiceSet
	SessionToken *security.SessionTokenManager
	Metrics      *middleware.HTTPMetrics
	Pool         *pgxpool.Pool
	Redis        *redisinfra.Client
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.CORS.AllowedOrigins))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	authMiddleware := middleware.RequireAuth(deps.SessionToken)

	healthHandler := handlers.NewHealthHandler(deps.Pool, deps.Redis)
	r.GET("/", handlers.Welcome)
	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		isDev := deps.Config.App.IsDevelopment()

		authGroup := api.Group("/auth")
		authHandler := handlers.NewAuthHandler(deps.Services.Credentials, handlers.WithDevMode(isDev))
		authHandler.RegisterRoutes(authGroup, buildLoginMiddlewares(deps), buildPasswordResetMiddlewares(deps))

		userGroup := api.Group("/user")
		userGroup.Use(authMiddleware)

		profileHandler := handlers.NewProfileHandler(deps.Services.Profiles)
		profileHandler.RegisterRoutes(userGroup)

		addressHandler := handlers.NewAddressHandler(deps.Services.Addresses)
		addressHandler.RegisterRoutes(userGroup)
	}

	return r
}

func buildLoginMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.LoginMaxAttempts
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       "auth_login_ip",
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}

func buildPasswordResetMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.PasswordResetMaxAttempts
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Hour
	}

	rule := middleware.RateLimitRule{
		Name:       "password_reset_ip",
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
