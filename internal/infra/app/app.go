package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/theranjitkumar/blogger/internal/core/port"
	"github.com/theranjitkumar/blogger/internal/infra/config"
	"github.com/theranjitkumar/blogger/internal/infra/database"
	kafkainfra "github.com/theranjitkumar/blogger/internal/infra/kafka"
	"github.com/theranjitkumar/blogger/internal/infra/logger"
	redisinfra "github.com/theranjitkumar/blogger/internal/infra/redis"
	"github.com/theranjitkumar/blogger/internal/infra/security"
	postgresrepo "github.com/theranjitkumar/blogger/internal/repository/postgres"
	redisrepo "github.com/theranjitkumar/blogger/internal/repository/redis"
	"github.com/theranjitkumar/blogger/internal/transport/http/middleware"
	"github.com/theranjitkumar/blogger/internal/transport/http/routes"
	"github.com/theranjitkumar/blogger/internal/usecase"
)

// Application wires configuration, infrastructure, services, and the HTTP
// engine together and owns their lifecycle.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
}

// New builds a fully wired application from the loaded configuration.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	issuer, err := security.NewTokenIssuer(cfg.JWT.Secret, cfg.App.Name, cfg.JWT.TokenTTL)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init token issuer: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)
	sessions := redisrepo.NewSessionRepository(redisClient.Client(), cfg.Redis.SessionPrefix)

	var producer *kafkainfra.Producer
	var notifier port.NotificationSender
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using logging sender", zap.Error(err))
			notifier = kafkainfra.NewStubNotifier(log)
		} else {
			notifier = kafkainfra.NewNotifier(producer, cfg.App, log)
			log.Info("kafka notification sender initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using logging sender")
		notifier = kafkainfra.NewStubNotifier(log)
	}

	passwordValidator := security.DefaultPasswordValidator()

	loginService := usecase.NewLoginService(repos.Accounts, sessions, issuer, cfg.Lockout, cfg.Session, log)
	registrationService := usecase.NewRegistrationService(repos.Accounts, notifier, passwordValidator, cfg.Registration, log)
	passwordResetService := usecase.NewPasswordResetService(repos.Accounts, notifier, passwordValidator, cfg.Reset, log)
	accountService := usecase.NewAccountService(repos.Accounts, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		Metrics:     metrics,
		RateLimiter: middleware.NewRateLimiter(log),
		LoginLimits: buildRateLimitStore(redisClient, cfg.RateLimit, "blogger:rate-limit:login", cfg.RateLimit.LoginMaxAttempts),
		ResetLimits: buildRateLimitStore(redisClient, cfg.RateLimit, "blogger:rate-limit:reset", cfg.RateLimit.ResetMaxAttempts),
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Login:         loginService,
			Registration:  registrationService,
			Accounts:      accountService,
			PasswordReset: passwordResetService,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
	}, nil
}

func buildRateLimitStore(client *redisinfra.Client, cfg config.RateLimitSettings, prefix string, limit int) middleware.RateLimitStore {
	if limit <= 0 {
		return nil
	}

	window := cfg.WindowDuration
	if window <= 0 {
		window = 15 * time.Minute
	}

	return redisrepo.NewRateLimitRepository(client.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: prefix,
		Window:    window,
		Limit:     limit,
	})
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
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
		if a.producer != nil {
			_ = a.producer.Close()
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

	a.logger.Info("starting blogger API",
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
