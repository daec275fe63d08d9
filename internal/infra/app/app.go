package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/arklim/console-auth/internal/core/port"
	"github.com/arklim/console-auth/internal/infra/config"
	"github.com/arklim/console-auth/internal/infra/database"
	"github.com/arklim/console-auth/internal/infra/extauth"
	kafkainfra "github.com/arklim/console-auth/internal/infra/kafka"
	"github.com/arklim/console-auth/internal/infra/logger"
	redisinfra "github.com/arklim/console-auth/internal/infra/redis"
	"github.com/arklim/console-auth/internal/infra/security"
	postgresrepo "github.com/arklim/console-auth/internal/repository/postgres"
	redisrepo "github.com/arklim/console-auth/internal/repository/redis"
	"github.com/arklim/console-auth/internal/transport/http/middleware"
	"github.com/arklim/console-auth/internal/transport/http/routes"
	"github.com/arklim/console-auth/internal/usecase"
)

// Application bundles the wired service and its long-lived connections.
type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
	kafka  *kafkainfra.Producer
}

// New wires configuration into a runnable application.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	argonCfg := security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}
	if err := security.ConfigureArgon2(argonCfg); err != nil {
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	tokenCodec, err := security.NewTokenCodec(security.TokenCodecConfig{
		Secret: cfg.Token.Secret,
		Issuer: cfg.Token.Issuer,
		TTL:    cfg.Token.TTL,
		Leeway: cfg.Token.ClockSkew,
	})
	if err != nil {
		return nil, fmt.Errorf("init token codec: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitTTL := cfg.Redis.RateLimitTTL
	if rateLimitTTL <= 0 {
		rateLimitTTL = rateLimitWindow * 2
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: cfg.Redis.RateLimitPrefix,
		TTL:       rateLimitTTL,
	})

	var eventPublisher port.EventPublisher
	var kafkaProducer *kafkainfra.Producer
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka disabled, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	passwordPolicy := security.DefaultPasswordPolicy()
	if cfg.Password.MinLength > 0 {
		passwordPolicy.MinLength = cfg.Password.MinLength
	}
	if cfg.Password.MaxLength > 0 {
		passwordPolicy.MaxLength = cfg.Password.MaxLength
	}
	if cfg.Password.MinStrength >= 0 && cfg.Password.MinStrength <= 4 {
		passwordPolicy.MinStrength = cfg.Password.MinStrength
	}
	passwordValidator := security.NewPasswordValidator(passwordPolicy)

	authenticator, err := buildAuthenticator(cfg.Auth, repos.Users, log)
	if err != nil {
		_ = redisClient.Close()
		return nil, err
	}

	authzService := usecase.NewAuthorizationService(repos.Roles, repos.Permissions)
	authService := usecase.NewAuthService(authenticator, authzService, tokenCodec, eventPublisher, log)
	userService := usecase.NewUserService(repos.Users, authzService, passwordValidator, eventPublisher, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{
		Namespace: "auth",
	})
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:         cfg,
		Logger:         log,
		RateLimitStore: rateLimitStore,
		Metrics:        metrics,
		Database:       pool,
		Cache:          redisClient,
		Services: routes.ServiceSet{
			Auth:  authService,
			Users: userService,
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
		redis:  redisClient,
		kafka:  kafkaProducer,
	}, nil
}

func buildAuthenticator(cfg config.AuthSettings, users port.UserRepository, log *zap.Logger) (port.Authenticator, error) {
	switch cfg.Backend {
	case "", "local":
		return usecase.NewLocalAuthenticator(users, log), nil
	case "remote":
		remote, err := extauth.NewRemoteAuthenticator(cfg.RemoteEndpoint, cfg.RemoteTimeout, log)
		if err != nil {
			return nil, fmt.Errorf("init remote authenticator: %w", err)
		}
		return remote, nil
	default:
		return nil, fmt.Errorf("unknown auth backend %q", cfg.Backend)
	}
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the server fails.
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
		if a.kafka != nil {
			if err := a.kafka.Close(); err != nil {
				a.logger.Warn("close kafka producer", zap.Error(err))
			}
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

	a.logger.Info("starting auth API",
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
