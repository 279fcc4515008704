// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Logging  LoggingConfig
	CORS     CORSConfig
	Session  SessionConfig
	Upload   UploadConfig
	Gesture  GestureConfig
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// DatabaseConfig holds database connection settings.
// Driver is either "sqlite" or "mysql"; for sqlite only DSN is used.
type DatabaseConfig struct {
	Driver   string
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis connection settings for the optional
// Redis-backed session store. An empty Addr selects the in-memory store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// SessionConfig holds session cookie and lifetime settings
type SessionConfig struct {
	SecretKey   string
	IdleTimeout time.Duration
}

// UploadConfig holds file upload settings
type UploadConfig struct {
	Dir     string
	MaxSize int64
}

// GestureConfig holds gesture dispatch settings
type GestureConfig struct {
	Timeout time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	// Server configuration
	serverPortStr := os.Getenv("SERVER_PORT")
	if serverPortStr == "" {
		serverPortStr = "8080" // default port
	}
	serverPort, err := strconv.Atoi(serverPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	cfg.Server.Port = serverPort

	// Database configuration
	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = "sqlite" // default driver
	}
	if driver != "sqlite" && driver != "mysql" {
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", driver)
	}
	cfg.Database.Driver = driver

	switch driver {
	case "sqlite":
		dsn := os.Getenv("DB_DSN")
		if dsn == "" {
			dsn = "gestureview.db"
		}
		cfg.Database.DSN = dsn
	case "mysql":
		dbHost := os.Getenv("DB_HOST")
		if dbHost == "" {
			return nil, fmt.Errorf("DB_HOST is required")
		}
		cfg.Database.Host = dbHost

		dbPortStr := os.Getenv("DB_PORT")
		if dbPortStr == "" {
			dbPortStr = "3306"
		}
		dbPort, err := strconv.Atoi(dbPortStr)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_PORT: %w", err)
		}
		cfg.Database.Port = dbPort

		dbUser := os.Getenv("DB_USER")
		if dbUser == "" {
			return nil, fmt.Errorf("DB_USER is required")
		}
		cfg.Database.User = dbUser

		dbPassword := os.Getenv("DB_PASSWORD")
		if dbPassword == "" {
			return nil, fmt.Errorf("DB_PASSWORD is required")
		}
		cfg.Database.Password = dbPassword

		dbName := os.Getenv("DB_NAME")
		if dbName == "" {
			return nil, fmt.Errorf("DB_NAME is required")
		}
		cfg.Database.DBName = dbName
	}

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	// CORS configuration
	corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if corsOrigins == "" {
		// Default to allow all origins if not specified (for development)
		cfg.CORS.AllowedOrigins = []string{"*"}
	} else {
		// Parse comma-separated origins
		origins := strings.Split(corsOrigins, ",")
		cfg.CORS.AllowedOrigins = make([]string, 0, len(origins))
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				cfg.CORS.AllowedOrigins = append(cfg.CORS.AllowedOrigins, origin)
			}
		}
		if len(cfg.CORS.AllowedOrigins) == 0 {
			cfg.CORS.AllowedOrigins = []string{"*"}
		}
	}

	// Session configuration. SECRET_KEY signs the notice cookie and must
	// always be supplied: shipping a default would let anyone forge it.
	secretKey := os.Getenv("SECRET_KEY")
	if secretKey == "" {
		return nil, fmt.Errorf("SECRET_KEY is required")
	}
	cfg.Session.SecretKey = secretKey

	idleTimeoutStr := os.Getenv("SESSION_IDLE_TIMEOUT")
	if idleTimeoutStr == "" {
		idleTimeoutStr = "30m" // default idle lifetime
	}
	idleTimeout, err := time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_IDLE_TIMEOUT: %w", err)
	}
	cfg.Session.IdleTimeout = idleTimeout

	// Upload configuration
	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	cfg.Upload.Dir = uploadDir

	maxSizeStr := os.Getenv("MAX_UPLOAD_SIZE")
	if maxSizeStr == "" {
		maxSizeStr = strconv.Itoa(16 * 1024 * 1024) // 16 MiB
	}
	maxSize, err := strconv.ParseInt(maxSizeStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_SIZE: %w", err)
	}
	cfg.Upload.MaxSize = maxSize

	// Gesture configuration
	gestureTimeoutStr := os.Getenv("GESTURE_TIMEOUT")
	if gestureTimeoutStr == "" {
		gestureTimeoutStr = "5s"
	}
	gestureTimeout, err := time.ParseDuration(gestureTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid GESTURE_TIMEOUT: %w", err)
	}
	cfg.Gesture.Timeout = gestureTimeout

	// Redis configuration (optional, enables the Redis session store)
	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")

	redisDBStr := os.Getenv("REDIS_DB")
	if redisDBStr == "" {
		redisDBStr = "0" // default
	}
	redisDB, err := strconv.Atoi(redisDBStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.Redis.DB = redisDB

	return cfg, nil
}

// DSN returns the database connection string for the configured driver
func (c *Config) DSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}
