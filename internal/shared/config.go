package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	JWTSecret   string

	CloudName      string
	CloudAPIKey    string
	CloudAPISecret string
	CloudFolder    string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	StripeBase string
	StripeKey  string
	Currency   string

	CacheTTL time.Duration
}

func Load() Config {
	// .env is optional; real env always wins.
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/quickstay?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		JWTSecret:   env("JWT_SECRET", ""),

		CloudName:      env("CLOUDINARY_CLOUD_NAME", ""),
		CloudAPIKey:    env("CLOUDINARY_API_KEY", ""),
		CloudAPISecret: env("CLOUDINARY_API_SECRET", ""),
		CloudFolder:    env("CLOUDINARY_FOLDER", "hotel_rooms"),

		SMTPHost: env("SMTP_HOST", "localhost"),
		SMTPPort: atoi("SMTP_PORT", 587),
		SMTPUser: env("SMTP_USERNAME", ""),
		SMTPPass: env("SMTP_PASSWORD", ""),
		SMTPFrom: env("SMTP_FROM", "bookings@quickstay.local"),

		StripeBase: env("STRIPE_BASE_URL", "https://api.stripe.com/v1"),
		StripeKey:  env("STRIPE_SECRET_KEY", ""),
		Currency:   env("CURRENCY", "usd"),

		CacheTTL: time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
	}
	if c.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty; authenticated endpoints will reject every token")
	}
	if c.StripeKey == "" {
		log.Warn().Msg("STRIPE_SECRET_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
