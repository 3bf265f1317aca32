package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	AppEnv string
	Port   string

	DBDriver    string // postgres or sqlite
	DatabaseURL string

	JWTAccessSecret  string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	SaltRound        int

	CorsOrigin string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	RedisURL string // optional, enables refresh session revocation

	SendgridAPIKey string
	EmailSender    string

	RatingReconcileCron string
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func (c *Config) IsTest() bool {
	return strings.EqualFold(c.AppEnv, "test")
}

// CloudinaryEnabled reports whether all CDN credentials are present.
func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "4000"),

		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DatabaseURL: getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=pgstay port=5432 sslmode=disable"),

		JWTAccessSecret:  getEnv("JWT_ACCESS_SECRET", "defaultAccessSecret"),
		JWTRefreshSecret: getEnv("JWT_REFRESH_SECRET", "defaultRefreshSecret"),
		AccessTokenTTL:   getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:  getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		SaltRound:        getEnvInt("SALT_ROUND", 10),

		CorsOrigin: getEnv("CORS_ORIGIN", "http://localhost:5173"),

		CloudinaryCloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		CloudinaryFolder:    getEnv("CLOUDINARY_FOLDER", "pgstay"),

		RedisURL: getEnv("REDIS_URL", ""),

		SendgridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailSender:    getEnv("EMAIL_SENDER", "no-reply@pgstay.local"),

		RatingReconcileCron: getEnv("RATING_RECONCILE_CRON", "30 3 * * *"),
	}

	// Validate critical configuration
	if cfg.JWTAccessSecret == "defaultAccessSecret" || cfg.JWTRefreshSecret == "defaultRefreshSecret" {
		log.Println("Warning: Using default JWT secrets. Update JWT_ACCESS_SECRET and JWT_REFRESH_SECRET in your environment.")
	}
	if !cfg.CloudinaryEnabled() {
		log.Println("Warning: Cloudinary credentials missing. Image uploads are disabled.")
	}

	return cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

// getEnvDuration accepts Go durations ("15m") plus a day suffix ("7d").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if strings.HasSuffix(value, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(value, "d"))
		if err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour
		}
	} else if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	log.Printf("Error converting environment variable %s to duration: %q", key, value)
	return defaultValue
}
