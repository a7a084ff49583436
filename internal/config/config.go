package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// DevJWTSecret is only accepted outside production.
const DevJWTSecret = "change-me"

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPass     string
	DBName     string
	SQLitePath string

	RedisURL string

	JWTSecret string
	JWTTTL    time.Duration

	AdminEmail    string
	AdminPassword string

	MeiliSearchHost string
	MeiliMasterKey  string

	GeminiAPIKey string
	GeminiModel  string

	PaymentWebhookSecret string

	Location *time.Location

	RateLimitAI              time.Duration
	SubscriptionReminderCron string

	LogLevel string
	LogDev   bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASS", "")
	v.SetDefault("DB_NAME", "studyhub")
	v.SetDefault("SQLITE_PATH", "studyhub.db")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("JWT_SECRET", DevJWTSecret)
	v.SetDefault("JWT_TTL_MINUTES", 60*24)
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("MEILISEARCH_HOST", "")
	v.SetDefault("MEILI_MASTER_KEY", "")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("PAYMENT_WEBHOOK_SECRET", "")
	v.SetDefault("APP_TIMEZONE", "UTC")
	v.SetDefault("RATE_LIMIT_AI", "30s")
	v.SetDefault("SUBSCRIPTION_REMINDER_CRON", "0 9 * * *")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DEV", false)
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppEnv:         v.GetString("APP_ENV"),
		Port:           v.GetString("PORT"),
		AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),

		DBDriver:   strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPass:     v.GetString("DB_PASS"),
		DBName:     v.GetString("DB_NAME"),
		SQLitePath: v.GetString("SQLITE_PATH"),

		RedisURL: v.GetString("REDIS_URL"),

		JWTSecret: v.GetString("JWT_SECRET"),

		AdminEmail:    v.GetString("ADMIN_EMAIL"),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),

		MeiliSearchHost: v.GetString("MEILISEARCH_HOST"),
		MeiliMasterKey:  v.GetString("MEILI_MASTER_KEY"),

		GeminiAPIKey: v.GetString("GEMINI_API_KEY"),
		GeminiModel:  v.GetString("GEMINI_MODEL"),

		PaymentWebhookSecret: v.GetString("PAYMENT_WEBHOOK_SECRET"),

		SubscriptionReminderCron: v.GetString("SUBSCRIPTION_REMINDER_CRON"),

		LogLevel: v.GetString("LOG_LEVEL"),
		LogDev:   v.GetBool("LOG_DEV"),
	}

	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER %q: want postgres or sqlite", cfg.DBDriver)
	}

	if cfg.JWTSecret == "" || (cfg.IsProduction() && cfg.JWTSecret == DevJWTSecret) {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	ttlMinutes := v.GetInt("JWT_TTL_MINUTES")
	if ttlMinutes <= 0 {
		return nil, fmt.Errorf("invalid JWT_TTL_MINUTES: must be positive")
	}
	cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute

	var err error
	cfg.RateLimitAI, err = time.ParseDuration(v.GetString("RATE_LIMIT_AI"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_AI: %w", err)
	}

	cfg.Location, err = time.LoadLocation(v.GetString("APP_TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	if cfg.SubscriptionReminderCron != "" {
		if _, err := cron.ParseStandard(cfg.SubscriptionReminderCron); err != nil {
			return nil, fmt.Errorf("invalid SUBSCRIPTION_REMINDER_CRON: %w", err)
		}
	}

	return cfg, nil
}

// Clock returns the current time in the configured zone. Mission days and
// point windows are computed against it.
func (c *Config) Clock() func() time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return func() time.Time { return time.Now().In(loc) }
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
