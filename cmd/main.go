package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	configs "github.com/Payphone-Digital/lms/config"
	"github.com/Payphone-Digital/lms/internal/constants"
	"github.com/Payphone-Digital/lms/internal/handler"
	"github.com/Payphone-Digital/lms/internal/metrics"
	"github.com/Payphone-Digital/lms/internal/middleware"
	"github.com/Payphone-Digital/lms/internal/repository"
	"github.com/Payphone-Digital/lms/internal/router"
	"github.com/Payphone-Digital/lms/internal/service"
	"github.com/Payphone-Digital/lms/pkg/database"
	"github.com/Payphone-Digital/lms/pkg/logger"
	"github.com/Payphone-Digital/lms/pkg/redis"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Initialize Zap logger
	if err := logger.InitLogger(config); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
		zap.String("version", constants.AppVersion),
	)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgresDB(config)
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if err := database.AutoMigrate(db); err != nil {
		logger.GetLogger().Fatal("Failed to run database migrations", zap.Error(err))
	}
	logger.GetLogger().Info("Database migrated successfully")

	if err := database.Seed(db, config.Seed, config.Auth.BcryptCost); err != nil {
		logger.GetLogger().Fatal("Failed to seed database", zap.Error(err))
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)

	// Rate limiters are per instance unless Redis is enabled
	globalWindow := time.Duration(config.RateLimit.Duration) * time.Second
	authWindow := time.Duration(config.RateLimit.AuthDuration) * time.Second
	limiters := router.Limiters{
		Global: middleware.NewMemoryLimiter(config.RateLimit.Request, globalWindow),
		Auth:   middleware.NewMemoryLimiter(config.RateLimit.AuthRequest, authWindow),
	}

	var redisPinger handler.RedisPinger
	if config.Redis.Enabled {
		redisClient, err := redis.NewClient(config)
		if err != nil {
			logger.GetLogger().Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()

		redisPinger = redisClient
		limiters = router.Limiters{
			Global: middleware.NewRedisLimiter(redisClient, constants.CacheKeyGlobalRate, config.RateLimit.Request, globalWindow),
			Auth:   middleware.NewRedisLimiter(redisClient, constants.CacheKeyAuthLimit, config.RateLimit.AuthRequest, authWindow),
		}
	}
	logger.GetLogger().Info("Rate limiter initialized", zap.Bool("redis", config.Redis.Enabled))

	// Services
	mailer, err := service.NewEmailSender(context.Background(), config.Email.Region, config.Email.FromEmail, config.Email.FromName)
	if err != nil {
		logger.GetLogger().Fatal("Failed to initialize email sender", zap.Error(err))
	}

	jwtService := service.NewJWTService(config.JWT)
	authService := service.NewAuthService(
		userRepo,
		sessionRepo,
		resetRepo,
		service.NewBcryptHasher(config.Auth.BcryptCost),
		service.NewTokenHasher(config.Auth.TokenHashSecret),
		jwtService,
		mailer,
		service.AuthOptions{
			PasswordResetTTL: config.Auth.PasswordResetTTL,
			FrontendURL:      config.App.FrontendURL,
		},
	)

	metrics.Register()

	// Handlers
	authHandler := handler.NewAuthHandler(authService, handler.CookieConfig{
		Secure:     config.IsProduction(),
		AccessTTL:  config.JWT.AccessTTL,
		RefreshTTL: config.JWT.RefreshTTL,
	})
	userHandler := handler.NewUserHandler(authService)
	healthHandler := handler.NewHealthHandler(db, redisPinger)

	r := router.NewRouter(
		authHandler,
		userHandler,
		healthHandler,

		middleware.NewJWTMiddleware(jwtService),
		limiters,
		config,
	).SetupRoutes()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	janitor := service.NewJanitor(sessionRepo, resetRepo, config.Janitor.Interval, config.Janitor.SessionRetention)
	go janitor.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + config.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.GetLogger().Info("Server starting",
			zap.String("port", config.App.Port),
			zap.String("host", "0.0.0.0"),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.GetLogger().Fatal("Failed to start server",
				zap.Error(err),
				zap.String("port", config.App.Port),
			)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.GetLogger().Info("Shutting down server...")

	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.GetLogger().Error("Server forced to shutdown", zap.Error(err))
	}
}
