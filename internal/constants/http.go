package constants

// HTTP Header Names
const (
	HeaderContentType    = "Content-Type"
	HeaderAuthorization  = "Authorization"
	HeaderUserAgent      = "User-Agent"
	HeaderXRequestID     = "X-Request-ID"
	HeaderXTraceID       = "X-Trace-ID"
	HeaderXCorrelationID = "X-Correlation-ID"
)

// Auth cookies
const (
	CookieAccessToken  = "accessToken"
	CookieRefreshToken = "refreshToken"
	CookiePath         = "/"
	BearerPrefix       = "Bearer "
)

// Common HTTP Error Messages
const (
	MsgUnauthorized     = "Unauthorized"
	MsgForbidden        = "Access forbidden"
	MsgNotFound         = "Resource not found"
	MsgBadRequest       = "Invalid request"
	MsgInternalError    = "Internal server error"
	MsgTooManyRequests  = "Too many requests"
	MsgMissingToken     = "Missing token"
	MsgInvalidToken     = "Invalid token"
	MsgValidationFailed = "Validation failed"
)

// HTTP Success Messages
const (
	MsgLoggedOut       = "Logged out"
	MsgPasswordUpdated = "Password updated successfully"
	MsgResetRequested  = "If the email exists, a reset link has been sent"
	MsgPasswordReset   = "Password has been reset"
	MsgSessionRevoked  = "Session revoked"
	MsgUserDeleted     = "User deleted"
)
