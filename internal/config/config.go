package config

import (
	"os"
	"strconv"
	"time"

	"boxoffice/internal/database"
	"boxoffice/internal/messaging"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds the application configuration
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// StoreDriver selects the backend: postgres or memory.
	StoreDriver string
	// SeedDemo loads the demo venue into the memory backend.
	SeedDemo bool

	SessionTTL          time.Duration
	SessionSweepEvery   time.Duration
	ResolverTolerance   float64
	VenueCacheTTL       time.Duration
	HoldSweepInterval   time.Duration
	MetricsEnabled      bool
	DefaultCanvasWidth  float64
	DefaultCanvasHeight float64

	// AdminUser and AdminPassword guard /api/admin. An empty user disables auth.
	AdminUser     string
	AdminPassword string

	Database      database.Config
	NATS          messaging.Config
	Valkey        ValkeyConfig
	Elasticsearch ElasticsearchConfig
}

// ValkeyConfig configures the venue cache. An empty Addr disables it.
type ValkeyConfig struct {
	Addr      string
	Password  string
	KeyPrefix string
}

// Load reads the configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		StoreDriver: getEnv("STORE_DRIVER", StoreDriverPostgres),
		SeedDemo:    getEnv("SEED_DEMO", "true") == "true",

		SessionTTL:          time.Duration(getEnvInt("SESSION_TTL_MIN", 30)) * time.Minute,
		SessionSweepEvery:   getEnvDuration("SESSION_SWEEP_INTERVAL", time.Minute),
		ResolverTolerance:   getEnvFloat("RESOLVER_TOLERANCE_PX", 5),
		VenueCacheTTL:       time.Duration(getEnvInt("VENUE_CACHE_TTL_MIN", 60)) * time.Minute,
		HoldSweepInterval:   getEnvDuration("HOLD_SWEEP_INTERVAL", 30*time.Second),
		MetricsEnabled:      getEnv("METRICS_ENABLED", "true") == "true",
		DefaultCanvasWidth:  getEnvFloat("CANVAS_WIDTH", 1000),
		DefaultCanvasHeight: getEnvFloat("CANVAS_HEIGHT", 600),

		AdminUser:     os.Getenv("ADMIN_USER"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		Database: database.Config{
			URL:                os.Getenv("DATABASE_URL"),
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "boxoffice"),
			Password:           getEnv("DB_PASSWORD", "boxoffice"),
			DBName:             getEnv("DB_NAME", "boxoffice"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       os.Getenv("NATS_URL"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "boxoffice"),
			ClientID:  getEnv("NATS_CLIENT_ID", "boxoffice-api"),
		},

		Valkey: ValkeyConfig{
			Addr:      os.Getenv("VALKEY_ADDR"),
			Password:  os.Getenv("VALKEY_PASSWORD"),
			KeyPrefix: getEnv("VALKEY_KEY_PREFIX", "boxoffice:venue:"),
		},

		Elasticsearch: LoadElasticsearchConfig(),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
