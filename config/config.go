package config

import (
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string        `mapstructure:"APP_PORT"`
	Env               string        `mapstructure:"ENV"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int           `mapstructure:"MAX_REQUESTS_PER_MIN"`
	ShutdownTimeout   time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	MetricsEnabled    bool          `mapstructure:"METRICS_ENABLED"`

	// MongoDB.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisNonceDB  int    `mapstructure:"REDIS_NONCE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Meeting access challenges.
	NonceBackend       string        `mapstructure:"NONCE_BACKEND"` // "memory" or "redis"
	NonceTTL           time.Duration `mapstructure:"NONCE_TTL"`
	NonceSweepInterval time.Duration `mapstructure:"NONCE_SWEEP_INTERVAL"`

	// Zoom server-to-server OAuth app.
	ZoomAccountID    string        `mapstructure:"ZOOM_ACCOUNT_ID"`
	ZoomClientID     string        `mapstructure:"ZOOM_CLIENT_ID"`
	ZoomClientSecret string        `mapstructure:"ZOOM_CLIENT_SECRET"`
	ZoomAPIURL       string        `mapstructure:"ZOOM_API_URL"`
	ZoomOAuthURL     string        `mapstructure:"ZOOM_OAUTH_URL"`
	MeetingTimeout   time.Duration `mapstructure:"MEETING_TIMEOUT"`

	// SendGrid.
	SendGridAPIKey    string `mapstructure:"SENDGRID_API_KEY"`
	SendGridFromEmail string `mapstructure:"SENDGRID_FROM_EMAIL"`
	SendGridFromName  string `mapstructure:"SENDGRID_FROM_NAME"`
	NotifyAsync       bool   `mapstructure:"NOTIFY_ASYNC"`

	// Chain.
	ChainRPCURL     string        `mapstructure:"CHAIN_RPC_URL"`
	ContractAddress string        `mapstructure:"SLOTCHAIN_CONTRACT_ADDRESS"`
	ChainTimeout    time.Duration `mapstructure:"CHAIN_TIMEOUT"`
}

var AppConfig Config

var ErrChainNotConfigured = errors.New("CHAIN_RPC_URL and SLOTCHAIN_CONTRACT_ADDRESS must be configured")

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("SHUTDOWN_TIMEOUT", 5*time.Second)
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "slotchain")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_NONCE_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)
	v.SetDefault("NONCE_BACKEND", "memory")
	v.SetDefault("NONCE_TTL", 5*time.Minute)
	v.SetDefault("NONCE_SWEEP_INTERVAL", time.Minute)
	v.SetDefault("ZOOM_ACCOUNT_ID", "")
	v.SetDefault("ZOOM_CLIENT_ID", "")
	v.SetDefault("ZOOM_CLIENT_SECRET", "")
	v.SetDefault("ZOOM_API_URL", "https://api.zoom.us/v2")
	v.SetDefault("ZOOM_OAUTH_URL", "https://zoom.us/oauth/token")
	v.SetDefault("MEETING_TIMEOUT", 15*time.Second)
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("SENDGRID_FROM_EMAIL", "")
	v.SetDefault("SENDGRID_FROM_NAME", "SlotChain")
	v.SetDefault("NOTIFY_ASYNC", false)
	v.SetDefault("CHAIN_RPC_URL", "")
	v.SetDefault("SLOTCHAIN_CONTRACT_ADDRESS", "")
	v.SetDefault("CHAIN_TIMEOUT", 5*time.Second)
}

// LoadConfig reads .env (if present), config.yaml and the environment, in
// increasing order of precedence, and stores the result in AppConfig.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	// Look for a config file named "config.yaml" in the current and "config" directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	AppConfig = cfg
	return cfg, nil
}

// Validate rejects settings the service cannot start without.
func (c Config) Validate() error {
	if c.ChainRPCURL == "" || c.ContractAddress == "" {
		return ErrChainNotConfigured
	}
	if c.NonceBackend != "memory" && c.NonceBackend != "redis" {
		return errors.New("NONCE_BACKEND must be \"memory\" or \"redis\"")
	}
	if c.NonceTTL <= 0 {
		return errors.New("NONCE_TTL must be positive")
	}
	return nil
}

// ZoomConfigured reports whether all Zoom credentials are present.
func (c Config) ZoomConfigured() bool {
	return c.ZoomAccountID != "" && c.ZoomClientID != "" && c.ZoomClientSecret != ""
}

// EmailConfigured reports whether SendGrid can be used.
func (c Config) EmailConfigured() bool {
	return c.SendGridAPIKey != "" && c.SendGridFromEmail != ""
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}
