package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends understood by bootstrap.OpenStore.
const (
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

type Config struct {
	Server      ServerConfig
	Store       StoreConfig
	Redis       RedisConfig
	Mongo       MongoConfig
	Database    DatabaseConfig
	App         AppConfig
	Maintenance MaintenanceConfig

	warnings []string
}

type ServerConfig struct {
	Port           string
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

type StoreConfig struct {
	Backend string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	LogFormat   string
	Version     string
}

// MaintenanceConfig controls the empty-project pruner. An empty schedule
// disables the cron job.
type MaintenanceConfig struct {
	PruneSchedule      string
	PruneMinAgeMinutes int
}

// Load reads .env when present, then the environment. Problems that fall
// back to defaults are kept in Warnings so they can be logged once a logger
// exists.
func Load() (*Config, error) {
	dotenvErr := godotenv.Load()

	cfg := FromEnv()
	if dotenvErr != nil && !errors.Is(dotenvErr, fs.ErrNotExist) {
		cfg.warnings = append(cfg.warnings, fmt.Sprintf("ignoring .env: %v", dotenvErr))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Warnings lists environment values that were ignored in favour of defaults.
func (c *Config) Warnings() []string {
	return c.warnings
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() *Config {
	env := &envReader{}
	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			CORSOrigins:    env.asList("CORS_ORIGINS", []string{"*"}),
			RateLimitRPS:   env.asFloat("RATE_LIMIT_RPS", 0),
			RateLimitBurst: env.asInt("RATE_LIMIT_BURST", 20),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", BackendRedis)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       env.asInt("REDIS_DB", 0),
		},
		Mongo: MongoConfig{
			URI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:   getEnv("MONGO_DB", "issuetracker"),
			Collection: getEnv("MONGO_COLLECTION", "projects"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     env.asInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "issuetracker"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "json"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Maintenance: MaintenanceConfig{
			PruneSchedule:      getEnv("PRUNE_SCHEDULE", ""),
			PruneMinAgeMinutes: env.asInt("PRUNE_MIN_AGE_MINUTES", 24*60),
		},
	}
	cfg.warnings = env.warnings
	return cfg
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Store.Backend {
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis store")
		}
	case BackendMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo store")
		}
	case BackendPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}

	if c.Server.RateLimitRPS < 0 || c.Server.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}

	if c.Maintenance.PruneMinAgeMinutes < 0 {
		return fmt.Errorf("PRUNE_MIN_AGE_MINUTES must not be negative")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envReader parses typed values and records the ones it had to discard.
type envReader struct {
	warnings []string
}

func (r *envReader) warnf(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

func (r *envReader) asInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		r.warnf("invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func (r *envReader) asFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		r.warnf("invalid number for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

func (r *envReader) asList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
