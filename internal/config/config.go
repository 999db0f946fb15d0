package config

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	// DefaultJWTSecret is only meant for local runs
	DefaultJWTSecret = "secret"
)

// Config holds application configuration
type Config struct {
	Port                string        `mapstructure:"PORT"`
	DBDriver            string        `mapstructure:"DB_DRIVER"`
	DBConn              string        `mapstructure:"DB_CONN"`
	LogLevel            string        `mapstructure:"LOG_LEVEL"`
	JWTSecret           string        `mapstructure:"JWT_SECRET"`
	TokenTTL            time.Duration `mapstructure:"TOKEN_TTL"`
	HMACSecret          string        `mapstructure:"HMAC_SECRET"`
	EncryptionKey       string        `mapstructure:"ENCRYPTION_KEY"`
	CardValidityYears   int           `mapstructure:"CARD_VALIDITY_YEARS"`
	CurrencyFile        string        `mapstructure:"CURRENCY_FILE"`
	ExpirySweepSchedule string        `mapstructure:"EXPIRY_SWEEP_SCHEDULE"`
	SMTPHost            string        `mapstructure:"SMTP_HOST"`
	SMTPPort            string        `mapstructure:"SMTP_PORT"`
	SMTPUsername        string        `mapstructure:"SMTP_USERNAME"`
	SMTPPassword        string        `mapstructure:"SMTP_PASSWORD"`
	SenderEmail         string        `mapstructure:"SENDER_EMAIL"`

	encryptionKey []byte
}

var keys = []string{
	"PORT", "DB_DRIVER", "DB_CONN", "LOG_LEVEL", "JWT_SECRET", "TOKEN_TTL",
	"HMAC_SECRET", "ENCRYPTION_KEY", "CARD_VALIDITY_YEARS", "CURRENCY_FILE",
	"EXPIRY_SWEEP_SCHEDULE", "SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME",
	"SMTP_PASSWORD", "SENDER_EMAIL",
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DB_DRIVER", DriverPostgres)
	viper.SetDefault("DB_CONN", "host=localhost port=5436 user=test password=test dbname=bank sslmode=disable")
	viper.SetDefault("LOG_LEVEL", "INFO")
	viper.SetDefault("JWT_SECRET", DefaultJWTSecret)
	viper.SetDefault("TOKEN_TTL", "24h")
	viper.SetDefault("HMAC_SECRET", "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6")
	viper.SetDefault("ENCRYPTION_KEY", "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6")
	viper.SetDefault("CARD_VALIDITY_YEARS", 3)
	viper.SetDefault("SMTP_PORT", "587")
	viper.AllowEmptyEnv(true)
	viper.AutomaticEnv()

	for _, key := range keys {
		_ = viper.BindEnv(key)
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	switch cfg.DBDriver {
	case DriverPostgres:
		if cfg.DBConn == "" {
			return nil, fmt.Errorf("DB_CONN is required")
		}
	case DriverMemory:
	default:
		return nil, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, cfg.DBDriver)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive")
	}
	if cfg.HMACSecret == "" {
		return nil, fmt.Errorf("HMAC_SECRET is required")
	}
	if cfg.EncryptionKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required")
	}
	key, err := hex.DecodeString(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be hex encoded: %w", err)
	}
	if len(key) != 16 && len(key) != 24 && len(key) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must decode to 16, 24, or 32 bytes, got %d", len(key))
	}
	cfg.encryptionKey = key
	if cfg.CardValidityYears < 1 {
		return nil, fmt.Errorf("CARD_VALIDITY_YEARS must be at least 1")
	}
	if cfg.SMTPHost != "" && cfg.SenderEmail == "" {
		return nil, fmt.Errorf("SENDER_EMAIL is required when SMTP_HOST is set")
	}

	return cfg, nil
}

// EncryptionKeyBytes returns the decoded AES key used for card numbers at rest
func (c *Config) EncryptionKeyBytes() []byte {
	return c.encryptionKey
}

// UsesDefaultJWTSecret reports whether tokens are signed with the built-in development secret
func (c *Config) UsesDefaultJWTSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}
