package constants

import "time"

// Field Length Limits
const (
	// bcrypt only considers the first 72 bytes and x/crypto rejects longer input
	MaxPasswordLength = 72
	MinNameLength     = 2
	MaxNameLength     = 100
	MaxEmailLength    = 255
)

// Token defaults, overridable through config
const (
	DefaultAccessTokenTTL   = 15 * time.Minute
	DefaultRefreshTokenTTL  = 14 * 24 * time.Hour
	DefaultPasswordResetTTL = time.Hour
	DefaultBcryptCost       = 12
	ResetTokenBytes         = 32
)

// Session revocation reasons
const (
	RevokeReasonRotated         = "rotated"
	RevokeReasonLogout          = "logout"
	RevokeReasonReuseDetected   = "reuse_detected"
	RevokeReasonPasswordChanged = "password_changed"
	RevokeReasonPasswordReset   = "password_reset"
	RevokeReasonUserRevoked     = "user_revoked"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleLearner = "learner"
)
