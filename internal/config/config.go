package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string
	AppPort    string
	AppEnv     string

	JWTSecret         string
	OwnerPasswordHash string
	WhatsAppNumber    string
	CacheDir          string
	AllowedOrigin     string

	SyncRetryAttempts int
	SyncRetryDelay    time.Duration
}

const (
	defaultPort          = "8080"
	defaultEnv           = "development"
	defaultSSLMode       = "disable"
	defaultCacheDir      = ".odil"
	defaultOrigin        = "http://localhost:3000"
	defaultRetryAttempts = 3
	defaultRetryDelayMS  = 1000
)

func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		DBSSLMode:  getEnv("DB_SSLMODE", defaultSSLMode),
		AppPort:    getEnv("APP_PORT", defaultPort),
		AppEnv:     getEnv("APP_ENV", defaultEnv),

		JWTSecret:         os.Getenv("JWT_SECRET"),
		OwnerPasswordHash: os.Getenv("OWNER_PASSWORD_HASH"),
		WhatsAppNumber:    os.Getenv("WHATSAPP_NUMBER"),
		CacheDir:          getEnv("CACHE_DIR", defaultCacheDir),
		AllowedOrigin:     os.Getenv("ALLOWED_ORIGIN"),

		SyncRetryAttempts: getInt("SYNC_RETRY_ATTEMPTS", defaultRetryAttempts),
		SyncRetryDelay:    time.Duration(getInt("SYNC_RETRY_DELAY_MS", defaultRetryDelayMS)) * time.Millisecond,
	}
}

// UseDatabase reports whether a Postgres host is configured. Without one the
// server keeps owner records in memory.
func (c *Config) UseDatabase() bool {
	return strings.TrimSpace(c.DBHost) != ""
}

// AllowedOrigins splits ALLOWED_ORIGIN on commas. Unset means the local
// storefront dev server.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigin, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{defaultOrigin}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// getInt falls back on missing, malformed or non-positive values.
func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
