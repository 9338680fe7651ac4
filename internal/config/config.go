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

// Backend selects the system of record for progress data
type Backend string

const (
	BackendCMS   Backend = "cms"
	BackendMySQL Backend = "mysql"
)

// Config holds all configuration for the application
type Config struct {
	Backend    Backend
	Database   DatabaseConfig
	Redis      RedisConfig
	Server     ServerConfig
	Logging    LoggingConfig
	CORS       CORSConfig
	JWT        JWTConfig
	CMS        CMSConfig
	Membership MembershipConfig
	Session    SessionConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis connection settings
// An empty Host disables the membership cache.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds the secret used to verify CMS-issued access tokens
type JWTConfig struct {
	Secret string
}

// CMSConfig holds headless CMS settings
type CMSConfig struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration
}

// MembershipConfig holds course-lesson membership cache settings
type MembershipConfig struct {
	CacheTTL        time.Duration
	RefreshSchedule string
}

// SessionConfig holds progress session settings
type SessionConfig struct {
	IdleTimeout   time.Duration
	SweepSchedule string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{}

	backend := Backend(strings.ToLower(os.Getenv("PROGRESS_BACKEND")))
	if backend == "" {
		backend = BackendCMS
	}
	if backend != BackendCMS && backend != BackendMySQL {
		return nil, fmt.Errorf("invalid PROGRESS_BACKEND: %q", backend)
	}
	cfg.Backend = backend

	// Database configuration, required for the mysql backend only
	if cfg.Backend == BackendMySQL {
		if err := loadDatabase(&cfg.Database); err != nil {
			return nil, err
		}
	}

	// CMS configuration
	cfg.CMS.BaseURL = os.Getenv("CMS_BASE_URL")
	if cfg.Backend == BackendCMS && cfg.CMS.BaseURL == "" {
		return nil, fmt.Errorf("CMS_BASE_URL is required")
	}
	cfg.CMS.APIToken = os.Getenv("CMS_API_TOKEN") // optional, used by the cache warmer

	cmsTimeout, err := durationEnv("CMS_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cfg.CMS.Timeout = cmsTimeout

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

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	cfg.JWT.Secret = jwtSecret

	// Redis configuration (optional)
	cfg.Redis.Host = os.Getenv("REDIS_HOST")

	redisPortStr := os.Getenv("REDIS_PORT")
	if redisPortStr == "" {
		redisPortStr = "6379" // default
	}
	redisPort, err := strconv.Atoi(redisPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	cfg.Redis.Port = redisPort

	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD") // optional

	redisDBStr := os.Getenv("REDIS_DB")
	if redisDBStr == "" {
		redisDBStr = "0" // default
	}
	redisDB, err := strconv.Atoi(redisDBStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.Redis.DB = redisDB

	// Membership cache configuration
	cacheTTL, err := durationEnv("MEMBERSHIP_CACHE_TTL", "10m")
	if err != nil {
		return nil, err
	}
	cfg.Membership.CacheTTL = cacheTTL

	cfg.Membership.RefreshSchedule = os.Getenv("MEMBERSHIP_REFRESH_SCHEDULE")
	if cfg.Membership.RefreshSchedule == "" {
		cfg.Membership.RefreshSchedule = "*/5 * * * *"
	}

	// Session configuration
	idleTimeout, err := durationEnv("SESSION_IDLE_TIMEOUT", "30m")
	if err != nil {
		return nil, err
	}
	cfg.Session.IdleTimeout = idleTimeout

	cfg.Session.SweepSchedule = os.Getenv("SESSION_SWEEP_SCHEDULE")
	if cfg.Session.SweepSchedule == "" {
		cfg.Session.SweepSchedule = "* * * * *"
	}

	return cfg, nil
}

func loadDatabase(db *DatabaseConfig) error {
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	db.Host = dbHost

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return fmt.Errorf("invalid DB_PORT: %w", err)
	}
	db.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return fmt.Errorf("DB_USER is required")
	}
	db.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	db.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	db.DBName = dbName

	return nil
}

// durationEnv parses the duration stored in "key", falling back to "def" when unset
func durationEnv(key, def string) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

// parseOrigins splits comma-separated origins, defaulting to all origins
func parseOrigins(corsOrigins string) []string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(corsOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	if c.Database.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// RedisAddr returns the Redis address, empty when the cache is disabled
func (c *Config) RedisAddr() string {
	if c.Redis.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
