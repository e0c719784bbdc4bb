package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends selectable with server.store.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port        string `yaml:"port" env:"SERVER_PORT"`
		Mode        string `yaml:"mode" env:"SERVER_MODE"`
		Store       string `yaml:"store" env:"SERVER_STORE"`
		StoragePath string `yaml:"storage_path" env:"SERVER_STORAGE_PATH"`
		PublicURL   string `yaml:"public_url" env:"SERVER_PUBLIC_URL"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level      string `yaml:"level" env:"LOG_LEVEL"`
		Format     string `yaml:"format" env:"LOG_FORMAT"`
		File       string `yaml:"file" env:"LOG_FILE"`
		MaxSizeMB  int    `yaml:"max_size_mb" env:"LOG_MAX_SIZE_MB"`
		MaxBackups int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS"`
	} `yaml:"logging"`

	Redis struct {
		Enabled        bool   `yaml:"enabled" env:"REDIS_ENABLED"`
		Addr           string `yaml:"addr" env:"REDIS_ADDR"`
		Password       string `yaml:"password" env:"REDIS_PASSWORD"`
		DB             int    `yaml:"db" env:"REDIS_DB"`
		LeaderboardTTL string `yaml:"leaderboard_ttl" env:"REDIS_LEADERBOARD_TTL"`
	} `yaml:"redis"`

	Storage struct {
		Type  string `yaml:"type" env:"STORAGE_TYPE"`
		Minio struct {
			Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
			AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
			SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
			Bucket    string `yaml:"bucket" env:"MINIO_BUCKET"`
			UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL"`
		} `yaml:"minio"`
	} `yaml:"storage"`

	RateLimit struct {
		Enabled     bool   `yaml:"enabled" env:"RATE_LIMIT_ENABLED"`
		MaxRequests int    `yaml:"max_requests" env:"RATE_LIMIT_MAX_REQUESTS"`
		Window      string `yaml:"window" env:"RATE_LIMIT_WINDOW"`
	} `yaml:"rate_limit"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	} `yaml:"cors"`

	Tracing struct {
		Enabled           bool   `yaml:"enabled" env:"TRACING_ENABLED"`
		ServiceName       string `yaml:"service_name" env:"TRACING_SERVICE_NAME"`
		CollectorEndpoint string `yaml:"collector_endpoint" env:"TRACING_COLLECTOR_ENDPOINT"`
	} `yaml:"tracing"`

	Realtime struct {
		Channel string `yaml:"channel" env:"REALTIME_CHANNEL"`
		Buffer  int    `yaml:"buffer" env:"REALTIME_BUFFER"`
	} `yaml:"realtime"`

	Reconcile struct {
		Interval string `yaml:"interval" env:"RECONCILE_INTERVAL"`
	} `yaml:"reconcile"`
}

// LoadConfig loads configuration from a file, a .env file if present, and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := applyEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.Store = StorePostgres
	config.Server.StoragePath = "./storage"
	config.Server.PublicURL = "http://localhost:8080"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "schoolyard"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.Issuer = "schoolyard.app"

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.MaxSizeMB = 100
	config.Logging.MaxBackups = 5

	config.Redis.Addr = "localhost:6379"
	config.Redis.LeaderboardTTL = "30s"

	config.Storage.Type = "local"
	config.Storage.Minio.Bucket = "schoolyard"

	config.RateLimit.MaxRequests = 100
	config.RateLimit.Window = "1m"

	config.CORS.AllowedOrigins = []string{"*"}

	config.Tracing.ServiceName = "schoolyard"
	config.Tracing.CollectorEndpoint = "http://localhost:14268/api/traces"

	config.Realtime.Channel = "row_inserted"
	config.Realtime.Buffer = 64

	config.Reconcile.Interval = "15m"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch config.Server.Store {
	case StorePostgres:
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store %q, expected %q or %q", config.Server.Store, StorePostgres, StoreMemory)
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	durations := map[string]string{
		"JWT access token expiration":  config.JWT.AccessTokenExpiration,
		"database connection lifetime": config.Database.ConnMaxLifetime,
		"leaderboard cache ttl":        config.Redis.LeaderboardTTL,
		"rate limit window":            config.RateLimit.Window,
		"reconcile interval":           config.Reconcile.Interval,
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	switch config.Storage.Type {
	case "local":
	case "minio":
		if config.Storage.Minio.Endpoint == "" || config.Storage.Minio.Bucket == "" {
			return fmt.Errorf("minio endpoint and bucket are required when storage type is minio")
		}
	default:
		return fmt.Errorf("unknown storage type %q", config.Storage.Type)
	}

	if config.RateLimit.Enabled && config.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("rate limit max_requests must be positive")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// Duration parses a value that validateConfig has already checked.
func Duration(value string) time.Duration {
	d, _ := time.ParseDuration(value)
	return d
}
