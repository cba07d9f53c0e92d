package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	Session   SessionConfig
	Lookup    LookupConfig
	Auth      AuthConfig
	CORS      CORSConfig
	Log       LogConfig
	Dashboard DashboardConfig
	AI        AIConfig
	Mail      MailConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SessionConfig controls how browser sessions are tracked.
type SessionConfig struct {
	TTL        time.Duration
	CookieName string
	Secure     bool
}

// LookupConfig throttles national ID lookups per session.
type LookupConfig struct {
	RateLimit  int
	RateWindow time.Duration
}

// AuthConfig governs credential checks and the password recovery flow.
type AuthConfig struct {
	InstitutionalDomain string
	ResetSecret         string
	ResetTTL            time.Duration
	ResetBaseURL        string
	EnableDemoReset     bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DashboardConfig governs dashboard cache tuning.
type DashboardConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// AIConfig configures the study plan generator backend.
type AIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// MailConfig configures outbound email delivery.
type MailConfig struct {
	SendGridAPIKey string
	FromName       string
	FromAddress    string
	Workers        int
	MaxRetries     int
	RetryDelay     time.Duration
	SendTimeout    time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Session = SessionConfig{
		TTL:        parseDuration(v.GetString("SESSION_TTL"), 8*time.Hour),
		CookieName: v.GetString("SESSION_COOKIE_NAME"),
		Secure:     v.GetBool("SESSION_COOKIE_SECURE"),
	}

	rateLimit := v.GetInt("LOOKUP_RATE_LIMIT")
	if rateLimit <= 0 {
		rateLimit = 5
	}
	cfg.Lookup = LookupConfig{
		RateLimit:  rateLimit,
		RateWindow: parseDuration(v.GetString("LOOKUP_RATE_WINDOW"), 5*time.Minute),
	}

	cfg.Auth = AuthConfig{
		InstitutionalDomain: strings.ToLower(strings.TrimPrefix(v.GetString("INSTITUTIONAL_DOMAIN"), "@")),
		ResetSecret:         v.GetString("PASSWORD_RESET_SECRET"),
		ResetTTL:            parseDuration(v.GetString("PASSWORD_RESET_TTL"), time.Hour),
		ResetBaseURL:        strings.TrimRight(v.GetString("PASSWORD_RESET_BASE_URL"), "/"),
		EnableDemoReset:     v.GetBool("ENABLE_DEMO_RESET"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Dashboard = DashboardConfig{
		CacheEnabled: v.GetBool("DASHBOARD_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), time.Minute),
	}

	cfg.AI = AIConfig{
		APIKey:      v.GetString("OPENAI_API_KEY"),
		Model:       v.GetString("OPENAI_MODEL"),
		MaxTokens:   v.GetInt("OPENAI_MAX_TOKENS"),
		Temperature: float32(v.GetFloat64("OPENAI_TEMPERATURE")),
		Timeout:     parseDuration(v.GetString("OPENAI_TIMEOUT"), 30*time.Second),
	}

	cfg.Mail = MailConfig{
		SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
		FromName:       v.GetString("MAIL_FROM_NAME"),
		FromAddress:    v.GetString("MAIL_FROM_ADDRESS"),
		Workers:        v.GetInt("MAIL_WORKERS"),
		MaxRetries:     v.GetInt("MAIL_MAX_RETRIES"),
		RetryDelay:     parseDuration(v.GetString("MAIL_RETRY_DELAY"), 2*time.Second),
		SendTimeout:    parseDuration(v.GetString("MAIL_SEND_TIMEOUT"), 10*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "swiaape")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SESSION_TTL", "8h")
	v.SetDefault("SESSION_COOKIE_NAME", "swiaape_session")
	v.SetDefault("SESSION_COOKIE_SECURE", false)

	v.SetDefault("LOOKUP_RATE_LIMIT", 5)
	v.SetDefault("LOOKUP_RATE_WINDOW", "5m")

	v.SetDefault("INSTITUTIONAL_DOMAIN", "swiaape.edu.pe")
	v.SetDefault("PASSWORD_RESET_SECRET", "dev_reset_secret")
	v.SetDefault("PASSWORD_RESET_TTL", "1h")
	v.SetDefault("PASSWORD_RESET_BASE_URL", "http://localhost:3000/reset-password")
	v.SetDefault("ENABLE_DEMO_RESET", true)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DASHBOARD_CACHE_ENABLED", true)
	v.SetDefault("DASHBOARD_CACHE_TTL", "1m")

	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("OPENAI_MAX_TOKENS", 1024)
	v.SetDefault("OPENAI_TEMPERATURE", 0.4)
	v.SetDefault("OPENAI_TIMEOUT", "30s")

	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM_NAME", "SWIAAPE")
	v.SetDefault("MAIL_FROM_ADDRESS", "no-reply@swiaape.edu.pe")
	v.SetDefault("MAIL_WORKERS", 2)
	v.SetDefault("MAIL_MAX_RETRIES", 3)
	v.SetDefault("MAIL_RETRY_DELAY", "2s")
	v.SetDefault("MAIL_SEND_TIMEOUT", "10s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
