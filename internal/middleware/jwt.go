package middleware

import (
	"strings"

	"github.com/Payphone-Digital/lms/internal/constants"
	apperrors "github.com/Payphone-Digital/lms/internal/errors"
	"github.com/Payphone-Digital/lms/internal/service"
	ctxutil "github.com/Payphone-Digital/lms/pkg/context"
	"github.com/Payphone-Digital/lms/pkg/logger"
	"github.com/gin-gonic/gin"
)

type AccessVerifier interface {
	VerifyAccess(token string) (*service.Claims, error)
}

type JWTMiddleware struct {
	verifier AccessVerifier
}

func NewJWTMiddleware(verifier AccessVerifier) *JWTMiddleware {
	return &JWTMiddleware{verifier: verifier}
}

// ExtractAccessToken reads the access token cookie, falling back to a Bearer
// Authorization header for clients that cannot hold cookies.
func ExtractAccessToken(c *gin.Context) string {
	if token, err := c.Cookie(constants.CookieAccessToken); err == nil && token != "" {
		return token
	}

	authHeader := c.GetHeader(constants.HeaderAuthorization)
	if len(authHeader) > len(constants.BearerPrefix) && strings.EqualFold(authHeader[:len(constants.BearerPrefix)], constants.BearerPrefix) {
		return strings.TrimSpace(authHeader[len(constants.BearerPrefix):])
	}

	return ""
}

// RequireAuth verifies the access token and attaches its claims to both the
// gin context and the request context.
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		token := ExtractAccessToken(c)
		if token == "" {
			logger.WarnWithContext(ctx, "Missing access token").
				String("method", c.Request.Method).
				String("path", c.Request.URL.Path).
				Log()
			AbortWithError(c, apperrors.ErrMissingToken)
			return
		}

		claims, err := m.verifier.VerifyAccess(token)
		if err != nil {
			logger.WarnWithContext(ctx, "Invalid or expired access token").
				String("method", c.Request.Method).
				String("path", c.Request.URL.Path).
				Log()
			AbortWithError(c, apperrors.ErrInvalidToken)
			return
		}

		c.Set(constants.GinKeyUserID, claims.UserID())
		c.Set(constants.GinKeyEmail, claims.Email)
		c.Set(constants.GinKeyRole, claims.Role)
		c.Set(constants.GinKeyCompanyID, claims.CompanyID)
		c.Set(constants.GinKeyClaims, claims)

		ctx = ctxutil.WithUserID(ctx, claims.UserID())
		ctx = ctxutil.WithValue(ctx, constants.CtxKeyClaims, claims)
		c.Request = c.Request.WithContext(ctx)

		logger.DebugWithContext(ctx, "User authenticated").
			String("path", c.Request.URL.Path).
			Log()

		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(constants.GinKeyRole)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		logger.WarnWithContext(c.Request.Context(), "Role not permitted").
			String("role", role).
			String("path", c.Request.URL.Path).
			Log()
		AbortWithError(c, apperrors.ErrForbidden)
	}
}

// GetClaims returns the claims attached by RequireAuth.
func GetClaims(c *gin.Context) (*service.Claims, bool) {
	value, exists := c.Get(constants.GinKeyClaims)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*service.Claims)
	return claims, ok
}

// AbortWithError writes the error envelope and stops the chain.
func AbortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(
		apperrors.ToHTTPStatus(err),
		constants.BuildErrorResponse(apperrors.GetErrorMessage(err), apperrors.GetErrorCode(err), nil),
	)
}
