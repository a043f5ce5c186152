package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Auth      AuthConfig
	Email     EmailConfig
	RateLimit RateLimitConfig
	Janitor   JanitorConfig
	Seed      SeedConfig
}

type AppConfig struct {
	Name        string        `mapstructure:"name"`
	Environment string        `mapstructure:"environment"`
	Debug       bool          `mapstructure:"debug"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Port        string        `mapstructure:"port"`
	FrontendURL string        `mapstructure:"frontend_url"`

	// AllowedOrigins are echoed back by CORS; credentials need an exact origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// JWTConfig holds the two independent signing contexts. Rotating either secret
// invalidates every outstanding token of that kind.
type JWTConfig struct {
	AccessSecret  string        `mapstructure:"access_secret"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl"`
	Issuer        string        `mapstructure:"issuer"`
}

type AuthConfig struct {
	BcryptCost       int           `mapstructure:"bcrypt_cost"`
	TokenHashSecret  string        `mapstructure:"token_hash_secret"`
	PasswordResetTTL time.Duration `mapstructure:"password_reset_ttl"`
}

type EmailConfig struct {
	Region    string `mapstructure:"region"`
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
}

type RateLimitConfig struct {
	Request      int `mapstructure:"request"`
	Duration     int `mapstructure:"duration"`
	AuthRequest  int `mapstructure:"auth_request"`
	AuthDuration int `mapstructure:"auth_duration"`
}

type JanitorConfig struct {
	Interval         time.Duration `mapstructure:"interval"`
	SessionRetention time.Duration `mapstructure:"session_retention"`
}

// SeedConfig describes the reference data created on first start. The admin
// account is only created when AdminPassword is set.
type SeedConfig struct {
	CompanyName   string `mapstructure:"company_name"`
	AdminName     string `mapstructure:"admin_name"`
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}

func LoadConfig() (*Config, error) {
	// Missing .env is fine, the process environment wins anyway
	_ = godotenv.Load()

	config := &Config{
		App: AppConfig{
			Name:           getEnv("APP_NAME", "lms-auth"),
			Environment:    getEnv("APP_ENV", "development"),
			Port:           getEnv("APP_PORT", "8080"),
			Debug:          getEnvAsBool("APP_DEBUG", true),
			Timeout:        getEnvAsDuration("APP_TIMEOUT", 30*time.Second),
			FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000/reset-password"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "lms_db"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", false),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			Database:     getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
			DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getEnvAsDuration("REDIS_POOL_TIMEOUT", 4*time.Second),
		},
		JWT: JWTConfig{
			AccessSecret:  getEnv("JWT_ACCESS_SECRET", "default_access_secret_change_in_production"),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", "default_refresh_secret_change_in_production"),
			AccessTTL:     getEnvAsDuration("JWT_ACCESS_TTL", 15*time.Minute),
			RefreshTTL:    getEnvAsDuration("JWT_REFRESH_TTL", time.Duration(getEnvAsInt("REFRESH_TOKEN_TTL_DAYS", 14))*24*time.Hour),
			Issuer:        getEnv("JWT_ISSUER", ""),
		},
		Auth: AuthConfig{
			BcryptCost:       getEnvAsInt("BCRYPT_COST", 12),
			TokenHashSecret:  getEnv("TOKEN_HASH_SECRET", "default_token_hash_secret_change_in_production"),
			PasswordResetTTL: getEnvAsDuration("PASSWORD_RESET_TTL", time.Hour),
		},
		Email: EmailConfig{
			Region:    getEnv("AWS_REGION", "eu-west-2"),
			FromEmail: getEnv("SES_FROM_EMAIL", ""),
			FromName:  getEnv("SES_FROM_NAME", "Learning Platform"),
		},
		RateLimit: RateLimitConfig{
			Request:      getEnvAsInt("RATE_LIMIT_MAX_REQUEST", 100),
			Duration:     getEnvAsInt("RATE_LIMIT_DURATION", 60),
			AuthRequest:  getEnvAsInt("AUTH_RATE_LIMIT_MAX_REQUEST", 10),
			AuthDuration: getEnvAsInt("AUTH_RATE_LIMIT_DURATION", 60),
		},
		Janitor: JanitorConfig{
			Interval:         getEnvAsDuration("SESSION_CLEANUP_INTERVAL", time.Hour),
			SessionRetention: getEnvAsDuration("SESSION_RETENTION", 30*24*time.Hour),
		},
		Seed: SeedConfig{
			CompanyName:   getEnv("SEED_COMPANY_NAME", "Default Company"),
			AdminName:     getEnv("SEED_ADMIN_NAME", "Administrator"),
			AdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@lms.local"),
			AdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects configurations that would make tokens forgeable or unusable.
func (c *Config) Validate() error {
	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		return errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET are required")
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.Auth.TokenHashSecret == "" {
		return errors.New("TOKEN_HASH_SECRET is required")
	}
	if c.IsProduction() {
		for _, s := range []string{c.JWT.AccessSecret, c.JWT.RefreshSecret, c.Auth.TokenHashSecret} {
			if len(s) < 32 {
				return fmt.Errorf("secrets must be at least 32 characters in production")
			}
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) DatabaseConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
