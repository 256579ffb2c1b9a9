// internal/pkg/config/config.go
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Asynq     AsynqConfig
	AWS       AWSConfig
	Security  SecurityConfig
	Server    ServerConfig
	Inventory InventoryConfig
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `required:"true"`
	Environment string // development, staging, production
	Version     string
	LogLevel    string
	LogFormat   string // json, text
	Debug       bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver             string `required:"true"`
	SQLitePath         string
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxConnections     int32
	MinConnections     int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	EnableQueryLogging bool
	AutoMigrate        bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	TTL          time.Duration
}

// AsynqConfig holds Asynq configuration
type AsynqConfig struct {
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	Concurrency     int
	Queues          map[string]int // queue name -> priority
	StrictPriority  bool
	RetryMax        int
	ShutdownTimeout time.Duration
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SecretName      string // Secrets Manager secret holding DB_PASSWORD / REDIS_PASSWORD
	S3Bucket        string
	S3Endpoint      string // For MinIO in development
	UsePathStyle    bool   // For MinIO compatibility
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimitRequests int
	RateLimitDuration time.Duration
	AllowedOrigins    []string
	TrustedProxies    []string
	SecureHeaders     bool
	RequestIDHeader   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string `required:"true"`
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	MaxBodyBytes    int64
	GracefulTimeout time.Duration
}

// InventoryConfig holds settings of the stock and notification features
type InventoryConfig struct {
	LowStockThreshold int64
	LowStockAlertTTL  time.Duration
	ChangesChannel    string
	ChangesQueue      string
	PriceExponent     int32 // prices are stored in minor units: 2 means cents
	NotifyRedis       bool
	NotifyQueue       bool
	ExportDir         string
}

// Load loads configuration from environment variables. When CONFIG_FILE
// is set the file is read first and the environment overrides it.
func Load(logger *slog.Logger) (*Config, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Load .env file in development
	if env == "development" || env == "local" {
		if err := godotenv.Load(); err != nil {
			logger.Warn("no .env file found, using environment variables",
				slog.String("error", err.Error()))
		} else {
			logger.Info(".env file loaded successfully")
		}
	}

	e, err := newEnvReader(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	redisHost := e.getEnv("REDIS_HOST", "localhost")
	redisPort := e.getEnv("REDIS_PORT", "6379")
	redisPassword := e.getEnv("REDIS_PASSWORD", "")

	cfg := &Config{
		App: AppConfig{
			Name:        e.getEnv("APP_NAME", "inventory-api"),
			Environment: env,
			Version:     e.getEnv("APP_VERSION", "dev"),
			LogLevel:    e.getEnv("LOG_LEVEL", "info"),
			LogFormat:   e.getEnv("LOG_FORMAT", "json"),
			Debug:       e.getBoolEnv("APP_DEBUG", env == "development"),
		},
		Database: DatabaseConfig{
			Driver:             strings.ToLower(e.getEnv("DB_DRIVER", DriverPostgres)),
			SQLitePath:         e.getEnv("SQLITE_PATH", "inventory.db"),
			Host:               e.getEnv("DB_HOST", "localhost"),
			Port:               e.getEnv("DB_PORT", "5432"),
			User:               e.getEnv("DB_USER", "inventory"),
			Password:           e.getEnv("DB_PASSWORD", "inventory_dev"),
			Name:               e.getEnv("DB_NAME", "inventory"),
			SSLMode:            e.getEnv("DB_SSL_MODE", "disable"),
			MaxConnections:     int32(e.getIntEnv("DB_MAX_CONNECTIONS", 25)),
			MinConnections:     int32(e.getIntEnv("DB_MIN_CONNECTIONS", 5)),
			MaxConnLifetime:    e.getDurationEnv("DB_CONNECTION_LIFETIME", time.Hour),
			MaxConnIdleTime:    e.getDurationEnv("DB_IDLE_TIME", 30*time.Minute),
			HealthCheckPeriod:  e.getDurationEnv("DB_HEALTH_CHECK_PERIOD", time.Minute),
			ConnectTimeout:     e.getDurationEnv("DB_CONNECT_TIMEOUT", 10*time.Second),
			EnableQueryLogging: e.getBoolEnv("DB_QUERY_LOGGING", false),
			AutoMigrate:        e.getBoolEnv("DB_AUTO_MIGRATE", env != "production"),
		},
		Redis: RedisConfig{
			Host:         redisHost,
			Port:         redisPort,
			Password:     redisPassword,
			DB:           e.getIntEnv("REDIS_DB", 0),
			MaxRetries:   e.getIntEnv("REDIS_MAX_RETRIES", 3),
			DialTimeout:  e.getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  e.getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: e.getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolSize:     e.getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: e.getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			TTL:          e.getDurationEnv("REDIS_TTL", time.Hour),
		},
		Asynq: AsynqConfig{
			RedisAddr:       fmt.Sprintf("%s:%s", redisHost, redisPort),
			RedisPassword:   redisPassword,
			RedisDB:         e.getIntEnv("ASYNQ_REDIS_DB", 0),
			Concurrency:     e.getIntEnv("ASYNQ_CONCURRENCY", 10),
			Queues:          parseQueues(e.getEnv("ASYNQ_QUEUES", "critical:6,default:3,low:1")),
			StrictPriority:  e.getBoolEnv("ASYNQ_STRICT_PRIORITY", false),
			RetryMax:        e.getIntEnv("ASYNQ_RETRY_MAX", 3),
			ShutdownTimeout: e.getDurationEnv("ASYNQ_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		AWS: AWSConfig{
			Region:          e.getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     e.getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: e.getEnv("AWS_SECRET_ACCESS_KEY", ""),
			SecretName:      e.getEnv("AWS_SECRET_NAME", ""),
			S3Bucket:        e.getEnv("AWS_S3_BUCKET", "inventory-exports"),
			S3Endpoint:      e.getEnv("AWS_S3_ENDPOINT", ""),
			UsePathStyle:    e.getBoolEnv("AWS_S3_PATH_STYLE", env == "development"),
		},
		Security: SecurityConfig{
			RateLimitRequests: e.getIntEnv("RATE_LIMIT_REQUESTS", 100),
			RateLimitDuration: e.getDurationEnv("RATE_LIMIT_DURATION", time.Minute),
			AllowedOrigins:    e.getSliceEnv("ALLOWED_ORIGINS", []string{"*"}),
			TrustedProxies:    e.getSliceEnv("TRUSTED_PROXIES", []string{}),
			SecureHeaders:     e.getBoolEnv("SECURE_HEADERS", env == "production"),
			RequestIDHeader:   e.getEnv("REQUEST_ID_HEADER", "X-Request-ID"),
		},
		Server: ServerConfig{
			Host:            e.getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            e.getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     e.getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    e.getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     e.getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
			MaxHeaderBytes:  e.getIntEnv("SERVER_MAX_HEADER_BYTES", 1<<20), // 1 MB
			MaxBodyBytes:    int64(e.getIntEnv("SERVER_MAX_BODY_BYTES", 1<<20)),
			GracefulTimeout: e.getDurationEnv("SERVER_GRACEFUL_TIMEOUT", 30*time.Second),
		},
		Inventory: InventoryConfig{
			LowStockThreshold: int64(e.getIntEnv("INVENTORY_LOW_STOCK_THRESHOLD", 10)),
			LowStockAlertTTL:  e.getDurationEnv("INVENTORY_LOW_STOCK_ALERT_TTL", 24*time.Hour),
			ChangesChannel:    e.getEnv("INVENTORY_CHANGES_CHANNEL", "inventory:changes"),
			ChangesQueue:      e.getEnv("INVENTORY_CHANGES_QUEUE", "default"),
			PriceExponent:     int32(e.getIntEnv("INVENTORY_PRICE_EXPONENT", 2)),
			NotifyRedis:       e.getBoolEnv("NOTIFY_REDIS", false),
			NotifyQueue:       e.getBoolEnv("NOTIFY_QUEUE", false),
			ExportDir:         e.getEnv("INVENTORY_EXPORT_DIR", os.TempDir()),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validateRequiredFields(c); err != nil {
		return err
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.MaxConnections < c.Database.MinConnections {
			return fmt.Errorf("max connections must be >= min connections")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Security.RateLimitRequests <= 0 {
		return fmt.Errorf("rate limit requests must be positive")
	}
	if c.Inventory.LowStockThreshold < 0 {
		return fmt.Errorf("low stock threshold must not be negative")
	}
	if c.Inventory.PriceExponent < 0 || c.Inventory.PriceExponent > 8 {
		return fmt.Errorf("price exponent must be between 0 and 8")
	}
	if c.Inventory.NotifyRedis && c.Inventory.ChangesChannel == "" {
		return fmt.Errorf("changes channel is required when redis notifications are enabled")
	}

	if c.IsProduction() {
		return (&ProductionValidator{}).Validate(c)
	}

	return nil
}

// GetDatabaseURL returns the formatted database connection string
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the formatted server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// GetRedisAddress returns host:port of the redis server
func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "local"
}

// envReader resolves keys through a private viper instance so that a
// config file and the process environment share one lookup.
type envReader struct {
	v *viper.Viper
}

func newEnvReader(file string) (*envReader, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	return &envReader{v: v}, nil
}

func (e *envReader) getEnv(key, defaultValue string) string {
	if value := e.v.GetString(key); value != "" {
		return value
	}
	return defaultValue
}

func (e *envReader) getBoolEnv(key string, defaultValue bool) bool {
	if value := e.v.GetString(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func (e *envReader) getIntEnv(key string, defaultValue int) int {
	if value := e.v.GetString(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

func (e *envReader) getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := e.v.GetString(key); value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}

func (e *envReader) getSliceEnv(key string, defaultValue []string) []string {
	if value := e.v.GetString(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func parseQueues(queuesStr string) map[string]int {
	queues := make(map[string]int)
	pairs := strings.Split(queuesStr, ",")
	for _, pair := range pairs {
		parts := strings.Split(pair, ":")
		if len(parts) == 2 {
			name := strings.TrimSpace(parts[0])
			priority, err := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err == nil {
				queues[name] = priority
			}
		}
	}
	if len(queues) == 0 {
		queues["default"] = 1
	}
	return queues
}
