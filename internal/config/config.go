package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	// Server
	Port           int    `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"` // development | production
	WorkerPoolSize int    `mapstructure:"WORKER_POOL_SIZE"`
	CORSOrigins    string `mapstructure:"CORS_ALLOWED_ORIGINS"` // comma-separated, "*" for any

	// Local key-value store: a SQLite file path or a postgres:// URL
	StoreDSN string `mapstructure:"STORE_DSN"`

	// Redis (job queue + rate cache). Empty disables both.
	RedisURL string `mapstructure:"REDIS_URL"`

	// Operator auth
	JWTSecret            string `mapstructure:"JWT_SECRET"`
	JWTExpirationHours   int    `mapstructure:"JWT_EXPIRATION_HOURS"`
	JWTRefreshHours      int    `mapstructure:"JWT_REFRESH_HOURS"`
	OperatorUsername     string `mapstructure:"OPERATOR_USERNAME"`
	OperatorPasswordHash string `mapstructure:"OPERATOR_PASSWORD_HASH"`

	// Text generation
	AIGatewayURL       string `mapstructure:"AI_GATEWAY_URL"`
	AIGatewayToken     string `mapstructure:"AI_GATEWAY_TOKEN"`
	GeminiAPIKey       string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel        string `mapstructure:"GEMINI_MODEL"`
	AITimeoutSeconds   int    `mapstructure:"AI_TIMEOUT_SECONDS"`
	AIFailureThreshold int    `mapstructure:"AI_FAILURE_THRESHOLD"`

	// Currency rates
	FXRatesURL       string `mapstructure:"FX_RATES_URL"`
	FXRefreshMinutes int    `mapstructure:"FX_REFRESH_MINUTES"`

	// SMTP
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`

	// Price list
	ExportStoragePath string `mapstructure:"EXPORT_STORAGE_PATH"`
	PriceListFontURL  string `mapstructure:"PRICELIST_FONT_URL"`
	DefaultLocale     string `mapstructure:"DEFAULT_LOCALE"`
}

// AllowedOrigins splits CORSOrigins.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// AITimeout returns the text-generation deadline, never below 5s.
func (c *Config) AITimeout() time.Duration {
	d := time.Duration(c.AITimeoutSeconds) * time.Second
	if d < 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Unmarshal only sees keys viper knows about; bind the ones without defaults.
	for _, key := range []string{
		"JWT_SECRET", "OPERATOR_PASSWORD_HASH", "AI_GATEWAY_URL", "AI_GATEWAY_TOKEN",
		"GEMINI_API_KEY", "FX_RATES_URL", "SMTP_HOST", "SMTP_USER", "SMTP_PASSWORD",
		"PRICELIST_FONT_URL",
	} {
		_ = viper.BindEnv(key)
	}

	// Sensible defaults for development
	viper.SetDefault("PORT", 8000)
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("WORKER_POOL_SIZE", 2)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("STORE_DSN", "data/catalog.db")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("JWT_EXPIRATION_HOURS", 8)
	viper.SetDefault("JWT_REFRESH_HOURS", 24)
	viper.SetDefault("OPERATOR_USERNAME", "admin")
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault("AI_TIMEOUT_SECONDS", 20)
	viper.SetDefault("AI_FAILURE_THRESHOLD", 3)
	viper.SetDefault("FX_REFRESH_MINUTES", 240)
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("EXPORT_STORAGE_PATH", "/tmp/pricelists")
	viper.SetDefault("DEFAULT_LOCALE", "ru")

	// Optional .env file for local development; a missing file is fine
	_ = viper.ReadInConfig()

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
