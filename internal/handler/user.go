package handler

import (
	"net/http"

	"github.com/Payphone-Digital/lms/internal/constants"
	"github.com/Payphone-Digital/lms/internal/service"
	ctxutil "github.com/Payphone-Digital/lms/pkg/context"
	"github.com/Payphone-Digital/lms/pkg/logger"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	authService *service.AuthService
}

func NewUserHandler(authService *service.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// DeleteUser handles DELETE /users/:id for administrators.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "DeleteUser")

	targetID := c.Param("id")
	requesterID := c.GetString(constants.GinKeyUserID)

	if err := h.authService.DeleteUser(ctx, targetID, requesterID); err != nil {
		logger.WarnWithContext(ctx, "Delete user failed").
			String("target_user_id", targetID).
			Err(err).
			Log()
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgUserDeleted))
}
