package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.JWT.AccessTTL != 15*time.Minute {
		t.Errorf("Expected access TTL 15m, got %s", cfg.JWT.AccessTTL)
	}
	if cfg.JWT.RefreshTTL != 14*24*time.Hour {
		t.Errorf("Expected refresh TTL 14 days, got %s", cfg.JWT.RefreshTTL)
	}
	if cfg.Auth.BcryptCost != 12 {
		t.Errorf("Expected bcrypt cost 12, got %d", cfg.Auth.BcryptCost)
	}
	if cfg.Auth.PasswordResetTTL != time.Hour {
		t.Errorf("Expected reset TTL 1h, got %s", cfg.Auth.PasswordResetTTL)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("REFRESH_TOKEN_TTL_DAYS", "7")
	t.Setenv("BCRYPT_COST", "10")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.JWT.AccessTTL != 5*time.Minute {
		t.Errorf("Expected access TTL 5m, got %s", cfg.JWT.AccessTTL)
	}
	if cfg.JWT.RefreshTTL != 7*24*time.Hour {
		t.Errorf("Expected refresh TTL 7 days, got %s", cfg.JWT.RefreshTTL)
	}
	if cfg.Auth.BcryptCost != 10 {
		t.Errorf("Expected bcrypt cost 10, got %d", cfg.Auth.BcryptCost)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App: AppConfig{Environment: "development"},
			JWT: JWTConfig{
				AccessSecret:  "access",
				RefreshSecret: "refresh",
				AccessTTL:     time.Minute,
				RefreshTTL:    time.Hour,
			},
			Auth: AuthConfig{TokenHashSecret: "hash"},
		}
	}

	tests := []struct {
		name        string
		mutate      func(c *Config)
		shouldError bool
	}{
		{name: "valid development config", mutate: func(c *Config) {}},
		{name: "identical secrets", mutate: func(c *Config) { c.JWT.RefreshSecret = c.JWT.AccessSecret }, shouldError: true},
		{name: "missing refresh secret", mutate: func(c *Config) { c.JWT.RefreshSecret = "" }, shouldError: true},
		{name: "zero access TTL", mutate: func(c *Config) { c.JWT.AccessTTL = 0 }, shouldError: true},
		{name: "missing token hash secret", mutate: func(c *Config) { c.Auth.TokenHashSecret = "" }, shouldError: true},
		{name: "short secrets in production", mutate: func(c *Config) { c.App.Environment = "production" }, shouldError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.shouldError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.shouldError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}
