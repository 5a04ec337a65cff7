package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported deployment environments.
const (
	DeployLocal      = "local"
	DeployDevelop    = "develop"
	DeployProduction = "production"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName   string `mapstructure:"app_name"`
	Env       string `mapstructure:"app_env"`
	DeployEnv string `mapstructure:"deploy_env"`
	LogLevel  string `mapstructure:"log_level"`

	APIBaseURL      string        `mapstructure:"api_base_url"`
	APITimeoutMs    int64         `mapstructure:"api_timeout_ms"`
	APIRetries      int           `mapstructure:"api_retries"`
	APIRetryDelayMs int64         `mapstructure:"api_retry_delay_ms"`
	APIUserAgent    string        `mapstructure:"api_user_agent"`
	APITimeout      time.Duration `mapstructure:"-"`
	APIRetryDelay   time.Duration `mapstructure:"-"`

	TokenStoreType       string        `mapstructure:"token_store_type"`
	TokenStorePath       string        `mapstructure:"token_store_path"`
	TokenTTLSeconds      int64         `mapstructure:"token_ttl_seconds"`
	TokenCleanupSeconds  int64         `mapstructure:"token_cleanup_interval_seconds"`
	TokenTTL             time.Duration `mapstructure:"-"`
	TokenCleanupInterval time.Duration `mapstructure:"-"`
	ReportersFile        string        `mapstructure:"reporters_file"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("app_name", "samvad-api-client")
	v.SetDefault("app_env", "development")
	v.SetDefault("deploy_env", DeployLocal)
	v.SetDefault("log_level", "info")
	v.SetDefault("api_base_url", "")
	v.SetDefault("api_timeout_ms", 30000)
	v.SetDefault("api_retries", 0)
	v.SetDefault("api_retry_delay_ms", 500)
	v.SetDefault("api_user_agent", "")
	v.SetDefault("token_store_type", "bbolt")
	v.SetDefault("token_store_path", "./data/tokens.db")
	v.SetDefault("token_ttl_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("token_cleanup_interval_seconds", int64(time.Hour/time.Second))
	v.SetDefault("reporters_file", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.DeployEnv = strings.ToLower(strings.TrimSpace(cfg.DeployEnv))
	switch cfg.DeployEnv {
	case DeployLocal, DeployDevelop, DeployProduction:
	default:
		return nil, fmt.Errorf("invalid deploy_env %q (expected local, develop or production)", cfg.DeployEnv)
	}

	cfg.APIBaseURL = strings.TrimSpace(cfg.APIBaseURL)
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("api_base_url is required")
	}
	if cfg.APITimeoutMs <= 0 {
		return nil, fmt.Errorf("invalid api_timeout_ms (must be positive milliseconds)")
	}
	if cfg.APIRetries < 0 {
		return nil, fmt.Errorf("invalid api_retries (must not be negative)")
	}
	if cfg.APIRetryDelayMs <= 0 {
		return nil, fmt.Errorf("invalid api_retry_delay_ms (must be positive milliseconds)")
	}
	cfg.APITimeout = time.Duration(cfg.APITimeoutMs) * time.Millisecond
	cfg.APIRetryDelay = time.Duration(cfg.APIRetryDelayMs) * time.Millisecond

	if cfg.TokenTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid token_ttl_seconds (must be positive seconds)")
	}
	if cfg.TokenCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid token_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.TokenTTL = time.Duration(cfg.TokenTTLSeconds) * time.Second
	cfg.TokenCleanupInterval = time.Duration(cfg.TokenCleanupSeconds) * time.Second

	return &cfg, nil
}
