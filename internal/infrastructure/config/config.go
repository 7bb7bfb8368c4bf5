package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Store       StoreConfig       `mapstructure:"store"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Logger      LoggerConfig      `mapstructure:"logger"`
	Security    SecurityConfig    `mapstructure:"security"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
	Burial      BurialConfig      `mapstructure:"burial"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds relational database configuration.
// Driver is "postgres" or "sqlite3"; Path is only used by sqlite3.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StoreConfig selects the key-value backend that mirrors the task collection
type StoreConfig struct {
	Driver   string        `mapstructure:"driver"`
	Path     string        `mapstructure:"path"`
	InMemory bool          `mapstructure:"in_memory"`
	TaskKey  string        `mapstructure:"task_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret    string        `mapstructure:"secret"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
	Issuer    string        `mapstructure:"issuer"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	RateLimitRequests  int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// MaintenanceConfig tunes the maintenance task collection and the overdue sweep
type MaintenanceConfig struct {
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
	Timezone       string        `mapstructure:"timezone"`
	SeedSampleData bool          `mapstructure:"seed_sample_data"`
	UpcomingDays   int           `mapstructure:"upcoming_days"`
}

// BurialConfig holds burial record rules
type BurialConfig struct {
	DecisionPolicy string `mapstructure:"decision_policy"`
}

// Load loads configuration from various sources
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Gravekeeper")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)

	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "15s")

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "gravekeeper")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.path", "data/gravekeeper.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.conn_max_idle_time", "30s")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Store defaults
	v.SetDefault("store.driver", "badger")
	v.SetDefault("store.path", "data/store")
	v.SetDefault("store.in_memory", false)
	v.SetDefault("store.task_key", "graveyard_maintenance")
	v.SetDefault("store.timeout", "5s")

	// JWT defaults
	v.SetDefault("jwt.secret", "your-super-secret-jwt-key")
	v.SetDefault("jwt.expires_in", "24h")
	v.SetDefault("jwt.issuer", "gravekeeper-api")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.filename", "logs/gravekeeper.log")
	v.SetDefault("logger.max_size_mb", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age_days", 30)
	v.SetDefault("logger.compress", true)

	// Security defaults
	v.SetDefault("security.cors_allowed_origins", "*")
	v.SetDefault("security.rate_limit_requests", 100)
	v.SetDefault("security.rate_limit_window", "1m")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Maintenance defaults
	v.SetDefault("maintenance.sweep_interval", "60s")
	v.SetDefault("maintenance.timezone", "UTC")
	v.SetDefault("maintenance.seed_sample_data", true)
	v.SetDefault("maintenance.upcoming_days", 3)

	// Burial defaults
	v.SetDefault("burial.decision_policy", "allow_override")
}

var envBindings = map[string]string{
	// App
	"app.name":        "APP_NAME",
	"app.version":     "APP_VERSION",
	"app.environment": "APP_ENVIRONMENT",
	"app.debug":       "APP_DEBUG",

	// Server
	"server.port":             "SERVER_PORT",
	"server.host":             "SERVER_HOST",
	"server.read_timeout":     "SERVER_READ_TIMEOUT",
	"server.write_timeout":    "SERVER_WRITE_TIMEOUT",
	"server.idle_timeout":     "SERVER_IDLE_TIMEOUT",
	"server.request_timeout":  "SERVER_REQUEST_TIMEOUT",
	"server.shutdown_timeout": "SERVER_SHUTDOWN_TIMEOUT",

	// Database
	"database.driver":             "DB_DRIVER",
	"database.host":               "DB_HOST",
	"database.port":               "DB_PORT",
	"database.name":               "DB_NAME",
	"database.user":               "DB_USER",
	"database.password":           "DB_PASSWORD",
	"database.ssl_mode":           "DB_SSL_MODE",
	"database.path":               "DB_PATH",
	"database.max_open_conns":     "DB_MAX_OPEN_CONNS",
	"database.max_idle_conns":     "DB_MAX_IDLE_CONNS",
	"database.conn_max_lifetime":  "DB_CONN_MAX_LIFETIME",
	"database.conn_max_idle_time": "DB_CONN_MAX_IDLE_TIME",

	// Redis
	"redis.host":     "REDIS_HOST",
	"redis.port":     "REDIS_PORT",
	"redis.password": "REDIS_PASSWORD",
	"redis.db":       "REDIS_DB",

	// Store
	"store.driver":    "STORE_DRIVER",
	"store.path":      "STORE_PATH",
	"store.in_memory": "STORE_IN_MEMORY",
	"store.task_key":  "STORE_TASK_KEY",
	"store.timeout":   "STORE_TIMEOUT",

	// JWT
	"jwt.secret":     "JWT_SECRET",
	"jwt.expires_in": "JWT_EXPIRES_IN",
	"jwt.issuer":     "JWT_ISSUER",

	// Logger
	"logger.level":        "LOG_LEVEL",
	"logger.format":       "LOG_FORMAT",
	"logger.output":       "LOG_OUTPUT",
	"logger.filename":     "LOG_FILENAME",
	"logger.max_size_mb":  "LOG_MAX_SIZE_MB",
	"logger.max_backups":  "LOG_MAX_BACKUPS",
	"logger.max_age_days": "LOG_MAX_AGE_DAYS",
	"logger.compress":     "LOG_COMPRESS",

	// Security
	"security.cors_allowed_origins": "CORS_ALLOWED_ORIGINS",
	"security.rate_limit_requests":  "RATE_LIMIT_REQUESTS",
	"security.rate_limit_window":    "RATE_LIMIT_WINDOW",

	// Metrics
	"metrics.enabled": "ENABLE_METRICS",
	"metrics.port":    "METRICS_PORT",

	// Maintenance
	"maintenance.sweep_interval":   "MAINTENANCE_SWEEP_INTERVAL",
	"maintenance.timezone":         "MAINTENANCE_TIMEZONE",
	"maintenance.seed_sample_data": "MAINTENANCE_SEED_SAMPLE_DATA",
	"maintenance.upcoming_days":    "MAINTENANCE_UPCOMING_DAYS",

	// Burial
	"burial.decision_policy": "BURIAL_DECISION_POLICY",
}

func bindEnvVars(v *viper.Viper) error {
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

func validateConfig(cfg *Config) error {
	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if cfg.Database.Name == "" {
			return fmt.Errorf("database name is required")
		}
	case "sqlite3":
		if cfg.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite3")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	switch cfg.Store.Driver {
	case "badger":
		if !cfg.Store.InMemory && cfg.Store.Path == "" {
			return fmt.Errorf("store path is required unless store.in_memory is set")
		}
	case "redis":
	default:
		return fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}

	if cfg.Store.TaskKey == "" {
		return fmt.Errorf("store task key is required")
	}

	if cfg.JWT.Secret == "" || cfg.JWT.Secret == "your-super-secret-jwt-key" {
		return fmt.Errorf("JWT secret must be set and should not use default value")
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	if cfg.Maintenance.SweepInterval <= 0 {
		return fmt.Errorf("maintenance sweep interval must be positive")
	}

	if _, err := cfg.Maintenance.Location(); err != nil {
		return err
	}

	switch cfg.Burial.DecisionPolicy {
	case "allow_override", "final":
	default:
		return fmt.Errorf("burial decision policy must be allow_override or final, got %q", cfg.Burial.DecisionPolicy)
	}

	return nil
}

// GetDSN returns the driver-specific connection string
func (cfg *DatabaseConfig) GetDSN() string {
	if cfg.Driver == "sqlite3" {
		return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", cfg.Path)
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
}

// GetAddr returns the Redis address
func (cfg *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// Location resolves the time zone used to decide which calendar day it is
func (cfg *MaintenanceConfig) Location() (*time.Location, error) {
	if cfg.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid maintenance timezone %q: %w", cfg.Timezone, err)
	}
	return loc, nil
}

// IsDevelopment returns true if the environment is development
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}

// IsProduction returns true if the environment is production
func (cfg *AppConfig) IsProduction() bool {
	return cfg.Environment == "production"
}
