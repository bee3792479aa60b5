package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultCookieName is the cookie carrying the access token
	DefaultCookieName = "access_token"

	// DefaultDatabaseName is the Mongo database used when MONGODB_DATABASE is unset
	DefaultDatabaseName = "poc_rear"

	StoreDriverMongo    = "mongo"
	StoreDriverPostgres = "postgres"

	KeySetCacheMemory = "memory"
	KeySetCacheRedis  = "redis"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Auth          AuthConfig
	Store         StoreConfig
	Redis         RedisConfig
	Security      SecurityConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	AllowedOrigins  []string
}

// AuthConfig holds the authentication gate configuration.
// Authority is the trusted issuer; its key set lives at <Authority>/.well-known/jwks.json.
type AuthConfig struct {
	DevMode        bool
	Authority      string
	CookieName     string
	JWKSTimeout    time.Duration
	JWKSCache      string
	JWKSCacheTTL   time.Duration
	JWKSMinRefresh time.Duration

	// Optional local signing key. When set the service issues RS256 tokens on
	// login and publishes its own key set.
	SigningKeyFile string
	SigningKeyID   string
	TokenTTL       time.Duration
}

// StoreConfig selects and configures the persistence backend
type StoreConfig struct {
	Driver       string
	QueryTimeout time.Duration
	Mongo        MongoConfig
	Postgres     DatabaseConfig
}

// MongoConfig holds MongoDB configuration
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// RedisConfig holds Redis configuration for the shared key-set cache
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SecurityConfig holds password hashing settings
type SecurityConfig struct {
	PasswordHashCost int
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// New creates a new Config instance by loading environment variables.
// Values that are set but cannot be parsed are reported instead of being
// replaced by defaults.
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	env := &envLoader{}
	environment := env.str("ENVIRONMENT", "development")

	cfg := &Config{
		Environment: environment,
		Server: ServerConfig{
			Host:            env.str("SERVER_HOST", "0.0.0.0"),
			Port:            env.port(),
			ReadTimeout:     env.duration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    env.duration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: env.duration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			RequestTimeout:  env.duration("SERVER_REQUEST_TIMEOUT", 60*time.Second),
			AllowedOrigins:  env.list("CORS_ALLOWED_ORIGINS", []string{"http://localhost:*"}),
		},
		Auth: AuthConfig{
			DevMode:        env.bool("DEV_MODE", isDevelopment(environment)),
			Authority:      env.str("AUTH_AUTHORITY", ""),
			CookieName:     env.str("AUTH_COOKIE_NAME", DefaultCookieName),
			JWKSTimeout:    env.duration("AUTH_JWKS_TIMEOUT", 5*time.Second),
			JWKSCache:      env.str("AUTH_JWKS_CACHE", KeySetCacheMemory),
			JWKSCacheTTL:   env.duration("AUTH_JWKS_CACHE_TTL", 10*time.Minute),
			JWKSMinRefresh: env.duration("AUTH_JWKS_MIN_REFRESH", 30*time.Second),
			SigningKeyFile: env.str("AUTH_SIGNING_KEY_FILE", ""),
			SigningKeyID:   env.str("AUTH_SIGNING_KEY_ID", ""),
			TokenTTL:       env.duration("AUTH_TOKEN_TTL", 24*time.Hour),
		},
		Store: StoreConfig{
			Driver:       env.str("STORE_DRIVER", StoreDriverMongo),
			QueryTimeout: env.duration("DB_QUERY_TIMEOUT", 3*time.Second),
			Mongo: MongoConfig{
				URI:            env.str("MONGODB_URI", "mongodb://localhost:27017"),
				Database:       env.str("MONGODB_DATABASE", DefaultDatabaseName),
				ConnectTimeout: env.duration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
			},
			Postgres: loadDatabaseConfig(env),
		},
		Redis: RedisConfig{
			Addr:     env.str("REDIS_ADDR", "localhost:6379"),
			Password: env.str("REDIS_PASSWORD", ""),
			DB:       env.int("REDIS_DB", 0),
		},
		Security: SecurityConfig{
			PasswordHashCost: env.int("PASSWORD_HASH_COST", 12),
		},
		Observability: ObservabilityConfig{
			LogLevel:  env.str("LOG_LEVEL", "info"),
			LogFormat: env.str("LOG_FORMAT", "json"),
		},
	}

	if err := errors.Join(env.errs...); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Auth.DevMode && c.IsProduction() {
		return fmt.Errorf("DEV_MODE cannot be enabled in production")
	}

	if c.Auth.CookieName == "" {
		return fmt.Errorf("auth cookie name is required")
	}

	if !c.Auth.DevMode {
		if c.Auth.Authority == "" {
			return fmt.Errorf("AUTH_AUTHORITY is required unless DEV_MODE is enabled")
		}
	}
	if c.Auth.Authority != "" {
		if err := validateAuthority(c.Auth.Authority); err != nil {
			return err
		}
	}

	if c.Auth.SigningKeyFile != "" && c.Auth.SigningKeyID == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY_ID is required when AUTH_SIGNING_KEY_FILE is set")
	}

	switch c.Auth.JWKSCache {
	case KeySetCacheMemory, KeySetCacheRedis:
	default:
		return fmt.Errorf("unsupported AUTH_JWKS_CACHE %q: want %s or %s", c.Auth.JWKSCache, KeySetCacheMemory, KeySetCacheRedis)
	}

	if c.Auth.JWKSTimeout <= 0 {
		return fmt.Errorf("AUTH_JWKS_TIMEOUT must be positive")
	}
	if c.Auth.JWKSCacheTTL < 0 {
		return fmt.Errorf("AUTH_JWKS_CACHE_TTL must not be negative")
	}

	switch c.Store.Driver {
	case StoreDriverMongo:
		if c.Store.Mongo.URI == "" || c.Store.Mongo.Database == "" {
			return fmt.Errorf("MONGODB_URI and MONGODB_DATABASE are required for the mongo store")
		}
	case StoreDriverPostgres:
		if c.Store.Postgres.ConnectionString == "" && c.Store.Postgres.Host == "" {
			return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q: want %s or %s", c.Store.Driver, StoreDriverMongo, StoreDriverPostgres)
	}

	if c.Store.QueryTimeout <= 0 {
		return fmt.Errorf("DB_QUERY_TIMEOUT must be positive")
	}

	if c.Security.PasswordHashCost < 4 || c.Security.PasswordHashCost > 31 {
		return fmt.Errorf("PASSWORD_HASH_COST must be between 4 and 31")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}
	if _, err := zapcore.ParseLevel(strings.ToLower(c.Observability.LogLevel)); err != nil {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Observability.LogLevel)
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return isDevelopment(c.Environment)
}

func isDevelopment(environment string) bool {
	return environment == "development" || environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// LogString returns the Mongo target without credentials
func (c *MongoConfig) LogString() string {
	u, err := url.Parse(c.URI)
	if err != nil {
		return "host=<from MONGODB_URI> database=" + c.Database
	}
	return fmt.Sprintf("host=%s database=%s", u.Host, c.Database)
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// validateAuthority requires an absolute http(s) URL with a host
func validateAuthority(authority string) error {
	u, err := url.Parse(authority)
	if err != nil {
		return fmt.Errorf("AUTH_AUTHORITY is not a valid URL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("AUTH_AUTHORITY must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("AUTH_AUTHORITY must include a host")
	}
	return nil
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars
func loadDatabaseConfig(env *envLoader) DatabaseConfig {
	dbURL := env.str("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     env.int("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     env.int("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  env.duration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Host:            env.str("DB_HOST", "localhost"),
		Port:            env.int("DB_PORT", 5432),
		User:            env.str("DB_USER", "dev"),
		Password:        env.str("DB_PASSWORD", ""),
		Database:        env.str("DB_NAME", DefaultDatabaseName),
		SSLMode:         env.str("DB_SSLMODE", "disable"),
		MaxOpenConns:    env.int("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    env.int("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: env.duration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Helper functions

// envLoader reads typed values and records every value it could not parse
type envLoader struct {
	errs []error
}

// port returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func (l *envLoader) port() int {
	if os.Getenv("PORT") != "" {
		return l.int("PORT", 8080)
	}
	return l.int("SERVER_PORT", 8080)
}

func (l *envLoader) str(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (l *envLoader) list(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func (l *envLoader) int(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s should be a valid integer, got %q", key, valueStr))
		return defaultValue
	}
	return value
}

func (l *envLoader) bool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s should be a valid bool, got %q", key, valueStr))
		return defaultValue
	}
	return value
}

func (l *envLoader) duration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s should be a valid duration, got %q", key, valueStr))
		return defaultValue
	}
	return value
}
