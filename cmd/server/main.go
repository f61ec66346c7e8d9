package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/config"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/handler"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/mailer"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/middleware"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/migration"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/repository"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/service"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/storage"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/pkg/email"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/pkg/jwt"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/pkg/logger"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/pkg/password"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.MustInit(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		ServiceName: "auth-service",
	})
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := initStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}
	defer closeStore()

	redisClient := initRedis(ctx, cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	dispatcher := mailer.NewDispatcher(initNotifier(ctx, cfg), cfg.MailTimeout)

	tokenManager := jwt.NewTokenManager(jwt.TokenManagerConfig{
		SecretKey:      cfg.JWTSecret,
		AccessDuration: cfg.JWTAccessDuration,
	})

	authService := service.NewAuthService(
		store,
		password.NewBcryptHasher(cfg.BcryptCost),
		tokenManager,
		dispatcher,
		service.Config{
			TokenTTL:       cfg.Verification.TokenTTL,
			ResendCooldown: cfg.Verification.ResendCooldown,
			RetainFor:      cfg.Verification.RetainFor,
		},
	)

	router := setupRouter(cfg, authService, tokenManager, redisClient)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go runPurge(ctx, authService, cfg.Verification.PurgeInterval)

	go func() {
		logger.Info("Auth service starting", zap.String("port", cfg.Port), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	dispatcher.Wait()
	logger.Info("Server stopped")
}

func initStore(ctx context.Context, cfg *config.Config) (repository.Transactor, func(), error) {
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("Using in-memory store, data is lost on restart")
		return repository.NewMemoryStore(), func() {}, nil
	case "postgres", "":
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	pool, err := initDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Running database migrations...")
	if err := migration.AutoMigrate(cfg.DBUrl); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Migrations completed successfully")

	return repository.NewPostgresStore(pool), pool.Close, nil
}

func initDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to PostgreSQL")
	return pool, nil
}

// initRedis returns nil when rate limiting is off or Redis is unreachable.
func initRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if !cfg.RateLimit.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr(),
		DB:   cfg.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, per-client rate limiting disabled", zap.Error(err))
		_ = client.Close()
		return nil
	}

	logger.Info("Connected to Redis")
	return client
}

func initNotifier(ctx context.Context, cfg *config.Config) service.Notifier {
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP_HOST is empty, verification links are written to the log")
		return &mailer.LogNotifier{BaseURL: cfg.BaseURL}
	}

	sender := email.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.MailTimeout)
	var transport mailer.Transport = sender

	if cfg.MinioEnabled {
		archive, err := storage.NewMinioStorage(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint(),
			AccessKey: cfg.MinioUser,
			SecretKey: cfg.MinioPass,
			UseSSL:    cfg.MinioUseSSL,
			Bucket:    cfg.MinioBucket,
		})
		if err != nil {
			logger.Warn("Mail archive disabled", zap.Error(err))
		} else {
			transport = &mailer.ArchivingTransport{Next: sender, Store: archive, From: sender.From()}
		}
	}

	return &mailer.SMTPMailer{
		Transport: transport,
		BaseURL:   cfg.BaseURL,
		TokenTTL:  cfg.Verification.TokenTTL,
		Render:    mailer.NewTemplateRender(nil),
	}
}

func runPurge(ctx context.Context, svc *service.AuthService, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := svc.PurgeStaleTokens(ctx)
			if err != nil {
				logger.Error("Token purge failed", zap.Error(err))
				continue
			}
			logger.Debug("Purged stale verification tokens", zap.Int64("removed", removed))
		}
	}
}

func setupRouter(cfg *config.Config, authService *service.AuthService, tokenManager *jwt.TokenManager, redisClient *redis.Client) *gin.Engine {
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(authService)
	authMiddleware := middleware.NewAuthMiddleware(tokenManager)

	router := gin.New()

	router.Use(middleware.RequestLogger())
	router.Use(middleware.RecoveryWithLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.GlobalRateLimit(cfg.RateLimit.GlobalPerSecond, cfg.RateLimit.GlobalBurst))
		if redisClient != nil {
			limiter := middleware.NewFixedWindowLimiter(redisClient, "auth_rl", cfg.RateLimit.PerClientRequests, cfg.RateLimit.PerClientWindow)
			router.Use(middleware.ClientRateLimit(limiter))
		}
	}

	router.GET("/health", handler.Health)
	router.GET("/verify-email", authHandler.VerifyEmail)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/verify", authHandler.VerifyEmail)
			auth.GET("/verify-email", authHandler.VerifyEmail)
		}

		users := v1.Group("/users")
		users.Use(authMiddleware.RequireAuth())
		{
			users.GET("/me", userHandler.GetMe)
		}
	}

	return router
}
