package router

import (
	"github.com/Payphone-Digital/lms/config"
	"github.com/Payphone-Digital/lms/internal/handler"
	"github.com/Payphone-Digital/lms/internal/metrics"
	"github.com/Payphone-Digital/lms/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Limiters holds the global limit for /api/v1 and the stricter one for
// credential endpoints.
type Limiters struct {
	Global middleware.Limiter
	Auth   middleware.Limiter
}

type Router struct {
	authHandler   *handler.AuthHandler
	userHandler   *handler.UserHandler
	healthHandler *handler.HealthHandler

	jwtMw    *middleware.JWTMiddleware
	limiters Limiters
	Config   *config.Config
}

func NewRouter(
	auth *handler.AuthHandler,
	user *handler.UserHandler,
	health *handler.HealthHandler,

	jwtMw *middleware.JWTMiddleware,
	limiters Limiters,
	config *config.Config,
) *Router {
	return &Router{
		authHandler:   auth,
		userHandler:   user,
		healthHandler: health,

		jwtMw:    jwtMw,
		limiters: limiters,
		Config:   config,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(metrics.Instrument())
	router.Use(middleware.ContextMiddleware("http", r.Config.App.Timeout))
	router.Use(middleware.SecurityLoggingMiddleware())
	router.Use(middleware.CORS(r.Config.App.AllowedOrigins))

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")
	{
		api.GET("/health", r.healthHandler.HealthCheck)

		v1 := api.Group("/v1")
		{
			v1.Use(middleware.RateLimit(r.limiters.Global))

			r.authRoutes(v1)
			r.userRoutes(v1)
		}
	}

	return router
}
