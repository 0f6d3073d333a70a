package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/niteshawasthi21/pjv-backend/internal/core/port"
	"github.com/niteshawasthi21/pjv-backend/internal/infra/config"
	"github.com/niteshawasthi21/pjv-backend/internal/infra/database"
	kafkainfra "github.com/niteshawasthi21/pjv-backend/internal/infra/kafka"
	"github.com/niteshawasthi21/pjv-backend/internal/infra/logger"
	redisinfra "github.com/niteshawasthi21/pjv-backend/internal/infra/redis"
	"github.com/niteshawasthi21/pjv-backend/internal/infra/security"
	"github.com/niteshawasthi21/pjv-backend/internal/infra/storage"
	"github.com/niteshawasthi21/pjv-backend/internal/infra/telemetry"
	postgresrepo "github.com/niteshawasthi21/pjv-backend/internal/repository/postgres"
	redisrepo "github.com/niteshawasthi21/pjv-backend/internal/repository/redis"
	"github.com/niteshawasthi21/pjv-backend/internal/transport/http/middleware"
	"github.com/niteshawasthi21/pjv-backend/internal/transport/http/routes"
	"github.com/niteshawasthi21/pjv-backend/internal/usecase"
)

// devFallbackSessionSecret keeps local development working without a
// configured secret. Config validation rejects an empty secret in production.
const devFallbackSessionSecret = "fallback-secret-key"

type Application struct {
	cfg       *config.AppConfig
	engine    *gin.Engine
	logger    *zap.Logger
	pool      *pgxpool.Pool
	redis     *redisinfra.Client
	telemetry *telemetry.Provider
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	telemetryProvider, err := telemetry.Attach(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	sessionSecret := cfg.Session.Secret
	if sessionSecret == "" {
		log.Warn("session secret not configured, using development fallback key")
		sessionSecret = devFallbackSessionSecret
	}

	sessionTokens, err := security.NewSessionTokenManager([]byte(sessionSecret), cfg.Session.TTL, cfg.App.Name)
	if err != nil {
		return nil, fmt.Errorf("init session token manager: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	avatarStore, err := buildAvatarStore(ctx, cfg, log)
	if err != nil {
		_ = redisClient.Close()
		return nil, err
	}

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: "pjv:rate-limit",
		TTL:       rateLimitWindow * 2,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	hasher := security.NewPasswordHasher(cfg.Bcrypt.Cost)
	resetTokens := usecase.NewResetTokenManager(cfg.Reset.TokenTTL)

	credentialService := usecase.NewCredentialService(repos.Accounts, hasher, sessionTokens, resetTokens, eventPublisher, log)
	profileService := usecase.NewProfileService(repos.Accounts, avatarStore, log)
	addressService := usecase.NewAddressService(repos.Addresses, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:       cfg,
		Logger:       log,
		RateLimiter:  rateLimiter,
		SessionToken: sessionTokens,
		Metrics:      metrics,
		Pool:         pool,
		Redis:        redisClient,
		Services: routes.ServiceSet{
			Credentials: credentialService,
			Profiles:    profileService,
			Addresses:   addressService,
		},
	})

	return &Application{
		cfg:       cfg,
		engine:    engine,
		logger:    log,
		pool:      pool,
		redis:     redisClient,
		telemetry: telemetryProvider,
	}, nil
}

func buildAvatarStore(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (port.AvatarStore, error) {
	switch cfg.Storage.Backend {
	case "s3":
		store, err := storage.NewS3Store(ctx, cfg.Storage.S3, log)
		if err != nil {
			return nil, fmt.Errorf("init s3 avatar store: %w", err)
		}
		return store, nil
	default:
		store, err := storage.NewDiskStore(cfg.Storage.Disk.Directory, log)
		if err != nil {
			return nil, fmt.Errorf("init disk avatar store: %w", err)
		}
		return store, nil
	}
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.telemetry.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("failed to shut down telemetry", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting PJV API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
