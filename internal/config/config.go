package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	ServerPort string
	JWTSecret  string
	JWTExpiry  time.Duration
	RedisURL   string
	CacheTTL   time.Duration
	LogLevel   string
	GinMode    string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "taskboard_user"),
		DBPassword: getEnv("DB_PASSWORD", "taskboard_pass"),
		DBName:     getEnv("DB_NAME", "taskboard_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		ServerPort: getEnv("SERVER_PORT", "8080"),
		JWTSecret:  getEnv("JWT_SECRET", "supersecretkey"),
		JWTExpiry:  time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		RedisURL:   getEnv("REDIS_URL", ""),
		CacheTTL:   getEnvDuration("CACHE_TTL", 5*time.Minute),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		GinMode:    getEnv("GIN_MODE", "debug"),
	}
}

// DSN builds the libpq-style connection string understood by pgx.
func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" port=" + c.DBPort +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" sslmode=" + c.DBSSLMode
}

// MigrationURL is the same database addressed as a pgx5:// URL for golang-migrate.
func (c *Config) MigrationURL() string {
	return "pgx5://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort +
		"/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using %d\n", key, value, defaultVal)
		return defaultVal
	}
	return parsed
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using %s\n", key, value, defaultVal)
		return defaultVal
	}
	return parsed
}
