package router

import (
	"github.com/Payphone-Digital/lms/internal/constants"
	"github.com/Payphone-Digital/lms/internal/middleware"
	"github.com/gin-gonic/gin"
)

func (r *Router) userRoutes(version *gin.RouterGroup) {
	users := version.Group("/users")
	{
		users.Use(r.jwtMw.RequireAuth(), middleware.RequireRole(constants.RoleAdmin))
		{
			users.DELETE("/:id", r.userHandler.DeleteUser)
		}
	}
}
