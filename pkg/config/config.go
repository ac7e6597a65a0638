package config

import (
	"errors"
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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Calendar CalendarConfig
	Chat     ChatConfig
	Friends  FriendsConfig
	Exports  ExportsConfig
	Admin    AdminConfig
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

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CalendarConfig bounds recurrence expansion and view rendering.
type CalendarConfig struct {
	PastWindowDays   int
	FutureWindowDays int
	MaxPerSlot       int
	MinBlockMinutes  int
	ViewCacheTTL     time.Duration
}

// ChatConfig wires the hosted language-model provider.
type ChatConfig struct {
	Enabled        bool
	BaseURL        string
	APIKey         string
	Model          string
	MaxToolRounds  int
	RequestTimeout time.Duration
}

// FriendsConfig tunes friendship lookups.
type FriendsConfig struct {
	CacheTTL time.Duration
}

// ExportsConfig toggles calendar export endpoints.
type ExportsConfig struct {
	Enabled bool
}

// AdminConfig gates the admin data-editing API.
type AdminConfig struct {
	Enabled bool
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

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Calendar = CalendarConfig{
		PastWindowDays:   v.GetInt("CALENDAR_PAST_WINDOW_DAYS"),
		FutureWindowDays: v.GetInt("CALENDAR_FUTURE_WINDOW_DAYS"),
		MaxPerSlot:       v.GetInt("CALENDAR_MAX_OCCURRENCES_PER_SLOT"),
		MinBlockMinutes:  v.GetInt("CALENDAR_MIN_BLOCK_MINUTES"),
		ViewCacheTTL:     parseDuration(v.GetString("CALENDAR_VIEW_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Chat = ChatConfig{
		Enabled:        v.GetBool("ENABLE_CHAT"),
		BaseURL:        v.GetString("CHAT_LLM_BASE_URL"),
		APIKey:         v.GetString("CHAT_LLM_API_KEY"),
		Model:          v.GetString("CHAT_LLM_MODEL"),
		MaxToolRounds:  v.GetInt("CHAT_MAX_TOOL_ROUNDS"),
		RequestTimeout: parseDuration(v.GetString("CHAT_REQUEST_TIMEOUT"), 60*time.Second),
	}

	cfg.Friends = FriendsConfig{
		CacheTTL: parseDuration(v.GetString("FRIENDS_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Exports = ExportsConfig{
		Enabled: v.GetBool("ENABLE_EXPORTS"),
	}

	cfg.Admin = AdminConfig{
		Enabled: v.GetBool("ENABLE_ADMIN_API"),
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
	v.SetDefault("DB_NAME", "tempora")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CALENDAR_PAST_WINDOW_DAYS", 90)
	v.SetDefault("CALENDAR_FUTURE_WINDOW_DAYS", 365)
	v.SetDefault("CALENDAR_MAX_OCCURRENCES_PER_SLOT", 500)
	v.SetDefault("CALENDAR_MIN_BLOCK_MINUTES", 45)
	v.SetDefault("CALENDAR_VIEW_CACHE_TTL", "5m")

	v.SetDefault("ENABLE_CHAT", false)
	v.SetDefault("CHAT_LLM_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("CHAT_LLM_API_KEY", "")
	v.SetDefault("CHAT_LLM_MODEL", "gpt-4o-mini")
	v.SetDefault("CHAT_MAX_TOOL_ROUNDS", 5)
	v.SetDefault("CHAT_REQUEST_TIMEOUT", "60s")

	v.SetDefault("FRIENDS_CACHE_TTL", "10m")
	v.SetDefault("ENABLE_EXPORTS", false)
	v.SetDefault("ENABLE_ADMIN_API", false)
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
