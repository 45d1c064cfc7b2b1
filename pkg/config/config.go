package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string `validate:"required,oneof=development production"`
	Port      int    `validate:"required,min=1,max=65535"`
	APIPrefix string `validate:"required,startswith=/"`

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Insights InsightsConfig
	AI       AIConfig
	Chat     ChatConfig
}

type DatabaseConfig struct {
	Host         string `validate:"required"`
	Port         int    `validate:"required,min=1,max=65535"`
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

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// InsightsConfig tunes the attendance analytics engine.
type InsightsConfig struct {
	CacheTTL           time.Duration
	MaxWindowDays      int
	DefaultSummaryDays int
	DefaultHistoryDays int
	IssuePolicy        string
	CacheEnabled       bool
}

// AIConfig configures the completion provider client.
type AIConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int
	Temperature    float64
	RequestTimeout time.Duration
}

// ChatConfig governs conversation endpoints and transcript persistence.
type ChatConfig struct {
	HistoryEnabled bool
	HistoryWorkers int
	OwnLimit       int
	TeacherLimit   int
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
		if !errors.As(err, &notFound) {
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

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Insights = InsightsConfig{
		CacheTTL:           parseDuration(v.GetString("INSIGHTS_CACHE_TTL"), 5*time.Minute),
		MaxWindowDays:      v.GetInt("INSIGHTS_MAX_WINDOW_DAYS"),
		DefaultSummaryDays: v.GetInt("INSIGHTS_DEFAULT_SUMMARY_DAYS"),
		DefaultHistoryDays: v.GetInt("INSIGHTS_DEFAULT_HISTORY_DAYS"),
		IssuePolicy:        v.GetString("INSIGHTS_ISSUE_POLICY"),
		CacheEnabled:       v.GetBool("INSIGHTS_CACHE_ENABLED"),
	}

	cfg.AI = AIConfig{
		APIKey:         v.GetString("OPENAI_API_KEY"),
		BaseURL:        v.GetString("OPENAI_BASE_URL"),
		Model:          v.GetString("OPENAI_MODEL"),
		MaxTokens:      v.GetInt("OPENAI_MAX_TOKENS"),
		Temperature:    v.GetFloat64("OPENAI_TEMPERATURE"),
		RequestTimeout: parseDuration(v.GetString("OPENAI_REQUEST_TIMEOUT"), 20*time.Second),
	}

	cfg.Chat = ChatConfig{
		HistoryEnabled: v.GetBool("CHAT_HISTORY_ENABLED"),
		HistoryWorkers: v.GetInt("CHAT_HISTORY_WORKERS"),
		OwnLimit:       v.GetInt("CHAT_HISTORY_OWN_LIMIT"),
		TeacherLimit:   v.GetInt("CHAT_HISTORY_TEACHER_LIMIT"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "lms_insight")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("INSIGHTS_CACHE_TTL", "5m")
	v.SetDefault("INSIGHTS_MAX_WINDOW_DAYS", 366)
	v.SetDefault("INSIGHTS_DEFAULT_SUMMARY_DAYS", 7)
	v.SetDefault("INSIGHTS_DEFAULT_HISTORY_DAYS", 14)
	v.SetDefault("INSIGHTS_ISSUE_POLICY", "strict")
	v.SetDefault("INSIGHTS_CACHE_ENABLED", false)

	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_BASE_URL", "")
	v.SetDefault("OPENAI_MODEL", "gpt-3.5-turbo")
	v.SetDefault("OPENAI_MAX_TOKENS", 800)
	v.SetDefault("OPENAI_TEMPERATURE", 0.7)
	v.SetDefault("OPENAI_REQUEST_TIMEOUT", "20s")

	v.SetDefault("CHAT_HISTORY_ENABLED", true)
	v.SetDefault("CHAT_HISTORY_WORKERS", 1)
	v.SetDefault("CHAT_HISTORY_OWN_LIMIT", 50)
	v.SetDefault("CHAT_HISTORY_TEACHER_LIMIT", 100)
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
