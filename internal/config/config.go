package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the probe configuration loaded from files and environment variables.
type Config struct {
	AppName          string `mapstructure:"app_name"`
	Env              string `mapstructure:"app_env"`
	LogLevel         string `mapstructure:"log_level"`
	ClientConfigFile string `mapstructure:"client_config_file"`

	TargetURL            string        `mapstructure:"target_url"`
	Method               string        `mapstructure:"method"`
	RawBody              string        `mapstructure:"body"`
	Body                 any           `mapstructure:"-"`
	SignalTTLMillis      int64         `mapstructure:"signal_ttl_ms"`
	SignalTTL            time.Duration `mapstructure:"-"`
	WithCredentials      bool          `mapstructure:"with_credentials"`
	ProbeIntervalSeconds int64         `mapstructure:"probe_interval_seconds"`
	ProbeInterval        time.Duration `mapstructure:"-"`

	CookieStoreType       string        `mapstructure:"cookie_store_type"`
	CookieStorePath       string        `mapstructure:"cookie_store_path"`
	CookieTTLSeconds      int64         `mapstructure:"cookie_ttl_seconds"`
	CookieCleanupSeconds  int64         `mapstructure:"cookie_cleanup_interval_seconds"`
	CookieTTL             time.Duration `mapstructure:"-"`
	CookieCleanupInterval time.Duration `mapstructure:"-"`

	MetricsAddr string `mapstructure:"metrics_addr"`
}

var envFile = "configs/.env"

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load(envFile)

	v := viper.New()

	v.SetDefault("app_name", "apiprobe")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("client_config_file", "")
	v.SetDefault("target_url", "")
	v.SetDefault("method", http.MethodGet)
	v.SetDefault("body", "")
	v.SetDefault("signal_ttl_ms", int64(5000))
	v.SetDefault("with_credentials", true)
	v.SetDefault("probe_interval_seconds", 0) // 0 probes once
	v.SetDefault("cookie_store_type", "memory")
	v.SetDefault("cookie_store_path", "./data/cookies.db")
	v.SetDefault("cookie_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("cookie_cleanup_interval_seconds", int64(time.Hour/time.Second))
	v.SetDefault("metrics_addr", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	cfg.TargetURL = strings.TrimSpace(cfg.TargetURL)
	if cfg.TargetURL == "" {
		return fmt.Errorf("target_url is required")
	}

	cfg.Method = strings.ToUpper(strings.TrimSpace(cfg.Method))
	switch cfg.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return fmt.Errorf("unsupported method %q", cfg.Method)
	}

	if raw := strings.TrimSpace(cfg.RawBody); raw != "" {
		var body any
		if err := json.Unmarshal([]byte(raw), &body); err != nil {
			return fmt.Errorf("invalid body (must be JSON): %w", err)
		}
		cfg.Body = body
	}

	if cfg.SignalTTLMillis <= 0 {
		return fmt.Errorf("invalid signal_ttl_ms (must be positive milliseconds)")
	}
	cfg.SignalTTL = time.Duration(cfg.SignalTTLMillis) * time.Millisecond

	if cfg.ProbeIntervalSeconds < 0 {
		return fmt.Errorf("invalid probe_interval_seconds (must not be negative)")
	}
	cfg.ProbeInterval = time.Duration(cfg.ProbeIntervalSeconds) * time.Second

	if cfg.CookieTTLSeconds <= 0 {
		return fmt.Errorf("invalid cookie_ttl_seconds (must be positive seconds)")
	}
	if cfg.CookieCleanupSeconds <= 0 {
		return fmt.Errorf("invalid cookie_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.CookieTTL = time.Duration(cfg.CookieTTLSeconds) * time.Second
	cfg.CookieCleanupInterval = time.Duration(cfg.CookieCleanupSeconds) * time.Second

	return nil
}
