package constants

// Application Information
const (
	AppName    = "LMS Auth Service"
	AppVersion = "1.0.0"
)

// Environment Types
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Default Application Settings
const (
	DefaultPort        = "8080"
	DefaultEnvironment = EnvDevelopment
)

// Redis Key Prefixes
const (
	CacheKeyPrefix     = "lms:"
	CacheKeyRateLimit  = CacheKeyPrefix + "ratelimit:"
	CacheKeyAuthLimit  = CacheKeyRateLimit + "auth:"
	CacheKeyGlobalRate = CacheKeyRateLimit + "global:"
)

// Log Levels
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
	LogLevelFatal = "fatal"
)
