package router

import (
	"github.com/Payphone-Digital/lms/internal/middleware"
	"github.com/gin-gonic/gin"
)

func (r *Router) authRoutes(version *gin.RouterGroup) {
	auth := version.Group("/auth")
	{
		// Credential endpoints share the stricter limit
		strict := middleware.RateLimit(r.limiters.Auth)
		auth.POST("/register", strict, r.authHandler.Register)
		auth.POST("/login", strict, r.authHandler.Login)
		auth.POST("/password-reset/request", strict, r.authHandler.RequestPasswordReset)

		// The refresh cookie is the credential for these
		auth.POST("/refresh", r.authHandler.Refresh)
		auth.POST("/logout", r.authHandler.Logout)
		auth.POST("/password-reset/confirm", r.authHandler.ConfirmPasswordReset)

		protected := auth.Group("")
		protected.Use(r.jwtMw.RequireAuth())
		{
			protected.GET("/me", r.authHandler.Me)
			protected.POST("/change-password", r.authHandler.ChangePassword)
			protected.GET("/sessions", r.authHandler.ListSessions)
			protected.DELETE("/sessions/:id", r.authHandler.RevokeSession)
		}
	}
}
