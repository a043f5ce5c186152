package handler

import (
	"net/http"

	"github.com/Payphone-Digital/lms/internal/constants"
	"github.com/Payphone-Digital/lms/internal/dto"
	apperrors "github.com/Payphone-Digital/lms/internal/errors"
	"github.com/Payphone-Digital/lms/internal/middleware"
	"github.com/Payphone-Digital/lms/internal/service"
	ctxutil "github.com/Payphone-Digital/lms/pkg/context"
	"github.com/Payphone-Digital/lms/pkg/logger"
	"github.com/Payphone-Digital/lms/pkg/validation"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *service.AuthService
	cookies     CookieConfig
}

func NewAuthHandler(authService *service.AuthService, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookies:     cookies,
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(
		apperrors.ToHTTPStatus(err),
		constants.BuildErrorResponse(apperrors.GetErrorMessage(err), apperrors.GetErrorCode(err), nil),
	)
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(
		http.StatusBadRequest,
		constants.BuildErrorResponse(apperrors.ErrValidation.Message, apperrors.ErrValidation.Code, validation.Messages(err)),
	)
}

func clientInfo(c *gin.Context) service.ClientInfo {
	userAgent, ip := middleware.ClientInfo(c)
	return service.ClientInfo{UserAgent: userAgent, IP: ip}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Register")

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid register request").
			Err(err).
			Log()
		respondBindError(c, err)
		return
	}

	result, err := h.authService.Register(ctx, service.RegisterInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		CompanyID: req.CompanyID,
		RoleID:    req.RoleID,
	}, clientInfo(c))
	if err != nil {
		respondError(c, err)
		return
	}

	h.cookies.SetAuthCookies(c, result.AccessToken, result.RefreshToken)

	user := dto.NewUserResponse(result.User)
	c.JSON(http.StatusCreated, dto.AuthResponse{
		Success:   true,
		User:      &user,
		SessionID: result.SessionID,
	})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Login")

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid login request").
			Err(err).
			Log()
		respondBindError(c, err)
		return
	}

	result, err := h.authService.Login(ctx, req.Email, req.Password, clientInfo(c))
	if err != nil {
		respondError(c, err)
		return
	}

	h.cookies.SetAuthCookies(c, result.AccessToken, result.RefreshToken)

	user := dto.NewUserResponse(result.User)
	c.JSON(http.StatusOK, dto.AuthResponse{
		Success:   true,
		User:      &user,
		SessionID: result.SessionID,
	})
}

// Refresh handles POST /auth/refresh. The refresh token only travels in its
// cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Refresh")

	result, err := h.authService.Refresh(ctx, refreshTokenFromCookie(c), clientInfo(c))
	if err != nil {
		if apperrors.ToHTTPStatus(err) == http.StatusUnauthorized {
			h.cookies.ClearAuthCookies(c)
		}
		respondError(c, err)
		return
	}

	h.cookies.SetAuthCookies(c, result.AccessToken, result.RefreshToken)

	c.JSON(http.StatusOK, dto.AuthResponse{
		Success:   true,
		SessionID: result.SessionID,
	})
}

// Logout handles POST /auth/logout. It always clears the cookies.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Logout")

	h.authService.Logout(ctx, refreshTokenFromCookie(c))
	h.cookies.ClearAuthCookies(c)

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgLoggedOut))
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Me")

	user, err := h.authService.Me(ctx, c.GetString(constants.GinKeyUserID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MeResponse{
		Success: true,
		User:    dto.NewUserResponse(user),
	})
}

// RequestPasswordReset handles POST /auth/password-reset/request. The answer
// is the same whether or not the email is registered.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "RequestPasswordReset")

	var req dto.PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.RequestPasswordReset(ctx, req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgResetRequested))
}

// ConfirmPasswordReset handles POST /auth/password-reset/confirm
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "ConfirmPasswordReset")

	var req dto.PasswordResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.ConfirmPasswordReset(ctx, req.UserID, req.Token, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgPasswordReset))
}

// ChangePassword handles POST /auth/change-password. Every session ends,
// including this one.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "ChangePassword")

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.ChangePassword(ctx, c.GetString(constants.GinKeyUserID), req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	h.cookies.ClearAuthCookies(c)
	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgPasswordUpdated))
}

// ListSessions handles GET /auth/sessions
func (h *AuthHandler) ListSessions(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "ListSessions")

	sessions, err := h.authService.ListSessions(ctx, c.GetString(constants.GinKeyUserID))
	if err != nil {
		respondError(c, err)
		return
	}

	var currentID string
	if claims, ok := middleware.GetClaims(c); ok {
		currentID = claims.SessionID()
	}

	response := dto.SessionListResponse{
		Success:  true,
		Sessions: make([]dto.SessionResponse, 0, len(sessions)),
	}
	for i := range sessions {
		response.Sessions = append(response.Sessions, dto.NewSessionResponse(&sessions[i], currentID))
	}

	c.JSON(http.StatusOK, response)
}

// RevokeSession handles DELETE /auth/sessions/:id
func (h *AuthHandler) RevokeSession(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "RevokeSession")

	if err := h.authService.RevokeSession(ctx, c.GetString(constants.GinKeyUserID), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgSessionRevoked))
}
