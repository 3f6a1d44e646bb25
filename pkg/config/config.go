package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingDatabaseURL is returned when DATABASE_URL is not set
var ErrMissingDatabaseURL = errors.New("DATABASE_URL environment variable not set")

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port            string
		Env             string
		Timeout         time.Duration
		ShutdownTimeout time.Duration
		TemplatesDir    string
	}

	// Database configuration
	Database struct {
		URL             string
		SSLMode         string
		MinConns        int
		MaxConns        int
		ConnectTimeout  time.Duration
		ConnMaxLifetime time.Duration
		AutoMigrate     bool
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Cache settings
	Cache struct {
		Enabled  bool
		TTL      time.Duration
		RedisURL string
	}

	// Tracing settings
	Tracing struct {
		Enabled     bool
		ServiceName string
	}
}

var (
	instance *Config
	once     sync.Once
)

// New returns the process-wide Config, loading it from the environment on first call.
// Validation is left to the caller so that a missing DATABASE_URL can be reported
// where the pool is built.
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = Load()
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Load reads a fresh Config from the current environment
func Load() *Config {
	cfg := &Config{}

	// Server config
	cfg.Server.Port = getEnvString("PORT", "5000")
	cfg.Server.Env = getEnvString("APP_ENV", "development")
	cfg.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)
	cfg.Server.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	cfg.Server.TemplatesDir = getEnvString("TEMPLATES_DIR", "")

	// Database config
	cfg.Database.URL = getEnvString("DATABASE_URL", "")
	cfg.Database.SSLMode = getEnvString("DB_SSL_MODE", "require")
	cfg.Database.MinConns = getEnvInt("DB_MIN_CONNS", 1)
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.ConnectTimeout = getEnvDuration("DB_CONNECT_TIMEOUT", 5*time.Second)
	cfg.Database.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour)
	cfg.Database.AutoMigrate = getEnvBool("DB_AUTO_MIGRATE", false)

	// Logging config
	cfg.Logging.Level = getEnvString("LOG_LEVEL", "info")
	cfg.Logging.Format = getEnvString("LOG_FORMAT", "json")

	// Cache settings
	cfg.Cache.Enabled = getEnvBool("CACHE_ENABLED", true)
	cfg.Cache.TTL = getEnvDuration("CACHE_TTL", 30*time.Second)
	cfg.Cache.RedisURL = getEnvString("REDIS_URL", "")

	// Tracing settings
	cfg.Tracing.Enabled = getEnvBool("TRACING_ENABLED", false)
	cfg.Tracing.ServiceName = getEnvString("SERVICE_NAME", "guestbook")

	return cfg
}

// Validate checks the settings the pool cannot be built without
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return ErrMissingDatabaseURL
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be at least 1, got %d", c.Database.MaxConns)
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS (%d), got %d",
			c.Database.MaxConns, c.Database.MinConns)
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
