package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env      string
	LogLevel string
	Port     uint16
	USPS     USPSConfig
	Batch    BatchConfig
}

// USPSConfig holds credentials and endpoints for the USPS Addresses 3.0 API.
// Either Token or the ClientID/ClientSecret pair must be set; when only the
// credential pair is present, an access token is fetched at startup via the
// OAuth client-credentials flow.
type USPSConfig struct {
	BaseURL      string
	Token        string
	ClientID     string
	ClientSecret string
}

// BatchConfig holds per-row processing settings shared by the CLI and the
// HTTP service.
type BatchConfig struct {
	// IDColumns are pass-through identifier columns copied verbatim into
	// output and never sent to the USPS API.
	IDColumns []string

	// RequestTimeout bounds each standardization request.
	RequestTimeout time.Duration

	// MaxRetries is the number of retries after the first attempt for
	// transient failures (timeout, transport error, 5xx).
	MaxRetries int

	// RetryBackoff is the linear backoff unit: attempt n waits n*RetryBackoff.
	RetryBackoff time.Duration
}

func NewConfig() (*Config, error) {
	// Try to load .env from current directory, then walk up to find it (max 2 levels)
	err := godotenv.Load()
	if err != nil {
		dir, _ := os.Getwd()
		found := false
		for i := 0; i < 2; i++ {
			dir = filepath.Join(dir, "..")
			if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
				found = true
				break
			}
		}
		if !found {
			slog.Default().Warn("Warning: .env file not found, using environment variables and defaults")
		}
	}

	cfg := &Config{
		Env:      getEnv("ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnvInt("PORT", 3000),
		USPS: USPSConfig{
			BaseURL:      getEnv("USPS_BASE_URL", "https://apis.usps.com"),
			Token:        getEnv("USPS_TOKEN", ""),
			ClientID:     getEnv("USPS_CLIENT_ID", ""),
			ClientSecret: getEnv("USPS_CLIENT_SECRET", ""),
		},
		Batch: loadBatchSettings(),
	}

	// Validate env
	validEnv := cfg.Env == "dev" || cfg.Env == "prod"
	if !validEnv {
		slog.Default().Warn("Invalid environment. Using default: prod", slog.String("env", cfg.Env))
		cfg.Env = "prod"
	}

	// Validate log level
	validLevel := cfg.LogLevel == "info" || cfg.LogLevel == "debug" || cfg.LogLevel == "warn" || cfg.LogLevel == "error"
	if !validLevel {
		slog.Default().Warn("Invalid log level. Using default: info", slog.String("value", cfg.LogLevel))
		cfg.LogLevel = "info"
	}

	if cfg.USPS.Token == "" && (cfg.USPS.ClientID == "" || cfg.USPS.ClientSecret == "") {
		return nil, fmt.Errorf("USPS_TOKEN or USPS_CLIENT_ID/USPS_CLIENT_SECRET must be set")
	}

	return cfg, nil
}

// loadBatchSettings reads batch defaults from an optional config.yaml, with
// environment variables taking precedence over file values.
func loadBatchSettings() BatchConfig {
	cfg := BatchConfig{
		IDColumns:      []string{"RecordID", "CustomerID", "OtherID"},
		RequestTimeout: 10 * time.Second,
		MaxRetries:     2,
		RetryBackoff:   500 * time.Millisecond,
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err == nil {
		if v.IsSet("batch.id_columns") {
			cfg.IDColumns = v.GetStringSlice("batch.id_columns")
		}
		if v.IsSet("batch.request_timeout_seconds") {
			cfg.RequestTimeout = time.Duration(v.GetInt("batch.request_timeout_seconds")) * time.Second
		}
		if v.IsSet("batch.max_retries") {
			cfg.MaxRetries = v.GetInt("batch.max_retries")
		}
		if v.IsSet("batch.retry_backoff_ms") {
			cfg.RetryBackoff = time.Duration(v.GetInt("batch.retry_backoff_ms")) * time.Millisecond
		}
	}

	if raw := getEnv("ID_COLUMNS", ""); raw != "" {
		cols := make([]string, 0, 3)
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cols = append(cols, c)
			}
		}
		if len(cols) > 0 {
			cfg.IDColumns = cols
		}
	}
	if n := getEnvInt("REQUEST_TIMEOUT_SECONDS", 0); n > 0 {
		cfg.RequestTimeout = time.Duration(n) * time.Second
	}
	if raw := getEnv("MAX_RETRIES", ""); raw != "" {
		var n int
		if _, err := fmt.Sscanf(raw, "%d", &n); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}
	if n := getEnvInt("RETRY_BACKOFF_MS", 0); n > 0 {
		cfg.RetryBackoff = time.Duration(n) * time.Millisecond
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue uint16) uint16 {
	if value := os.Getenv(key); value != "" {
		var intValue uint16
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}
