package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for our application
type Config struct {
	// Server configuration
	Port           string        `env:"PORT"             envDefault:"8080"`
	GinMode        string        `env:"GIN_MODE"         envDefault:"debug"`
	APIVersion     string        `env:"API_VERSION"      envDefault:"v1"`
	APIPrefix      string        `env:"API_PREFIX"       envDefault:"/api"`
	ReadTimeout    time.Duration `env:"READ_TIMEOUT"     envDefault:"15s"`
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT"    envDefault:"15s"`
	IdleTimeout    time.Duration `env:"IDLE_TIMEOUT"     envDefault:"60s"`
	MaxHeaderBytes int           `env:"MAX_HEADER_BYTES" envDefault:"1048576"`
	CORSOrigins    []string      `env:"CORS_ORIGINS"     envDefault:"*"`

	Database  DatabaseConfig  `envPrefix:"DB_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	JWT       JWTConfig       `envPrefix:"JWT_"`
	Auth      AuthConfig      `envPrefix:"AUTH_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	Kafka     KafkaConfig     `envPrefix:"KAFKA_"`
	Admin     AdminConfig     `envPrefix:"ADMIN_"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     string `env:"PORT"     envDefault:"5432"`
	Name     string `env:"NAME"     envDefault:"clientregistry"`
	User     string `env:"USER"     envDefault:"clientregistry"`
	Password string `env:"PASSWORD" envDefault:"clientregistry"`
	SSLMode  string `env:"SSLMODE"  envDefault:"disable"`
	DSN      string `env:"DSN"`

	MaxIdleConns    int           `env:"MAX_IDLE_CONNS"    envDefault:"10"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"    envDefault:"50"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"1h"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool   `env:"ENABLED"  envDefault:"true"`
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     string `env:"PORT"     envDefault:"6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
	Addr     string
}

// JWTConfig describes the RSA key material and token checks.
type JWTConfig struct {
	Issuer                   string        `env:"ISSUER"                      envDefault:"Api"`
	ClockSkew                time.Duration `env:"CLOCK_SKEW"                  envDefault:"0s"`
	PrivateKeyBase64         string        `env:"PRIVATE_KEY_BASE64"`
	PublicKeyBase64          string        `env:"PUBLIC_KEY_BASE64"`
	PrivateKeyFile           string        `env:"PRIVATE_KEY_FILE"`
	PublicKeyFile            string        `env:"PUBLIC_KEY_FILE"`
	PreviousPublicKeysBase64 []string      `env:"PREVIOUS_PUBLIC_KEYS_BASE64" envSeparator:";"`
}

// AuthConfig tunes credential checks and store lookups.
type AuthConfig struct {
	StoreTimeout      time.Duration `env:"STORE_TIMEOUT"       envDefault:"2s"`
	StoreMaxRetries   uint64        `env:"STORE_MAX_RETRIES"   envDefault:"2"`
	StoreRetryBackoff time.Duration `env:"STORE_RETRY_BACKOFF" envDefault:"100ms"`
	PasswordAlgorithm string        `env:"PASSWORD_ALGORITHM"  envDefault:"bcrypt"`
	BcryptCost        int           `env:"BCRYPT_COST"         envDefault:"10"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled         bool          `env:"ENABLED"          envDefault:"true"`
	WindowDuration  time.Duration `env:"WINDOW_DURATION"  envDefault:"60s"`
	DefaultRequests int           `env:"DEFAULT_REQUESTS" envDefault:"60"`
	AuthRequests    int           `env:"AUTH_REQUESTS"    envDefault:"10"`
	ClientRequests  int           `env:"CLIENT_REQUESTS"  envDefault:"100"`
	HealthRequests  int           `env:"HEALTH_REQUESTS"  envDefault:"300"`
	WhitelistedIPs  []string      `env:"WHITELISTED_IPS"`
}

// KafkaConfig controls the audit event sink. When disabled, audit events go
// to the log instead.
type KafkaConfig struct {
	Enabled    bool     `env:"ENABLED"     envDefault:"false"`
	Brokers    []string `env:"BROKERS"     envDefault:"localhost:9092"`
	AuditTopic string   `env:"AUDIT_TOPIC" envDefault:"clientregistry.audit"`
	BufferSize int      `env:"BUFFER_SIZE" envDefault:"256"`
}

// AdminConfig is the account bootstrapped at startup when absent.
type AdminConfig struct {
	Bootstrap bool   `env:"BOOTSTRAP" envDefault:"true"`
	Name      string `env:"NAME"      envDefault:"Administrator"`
	Email     string `env:"EMAIL"     envDefault:"admin@email.com"`
	Password  string `env:"PASSWORD"`
	Birthday  string `env:"BIRTHDAY"  envDefault:"2003-01-28"`
	Phone     string `env:"PHONE"     envDefault:"89994776644"`
	CPF       string `env:"CPF"       envDefault:"67283621008"`
}

// Load parses configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads the environment without validating, for tools that only need
// part of the configuration.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	// Build composite values
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	}
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.JWT.PrivateKeyBase64 == "" && c.JWT.PrivateKeyFile == "" {
		errs = append(errs, errors.New("JWT_PRIVATE_KEY_BASE64 or JWT_PRIVATE_KEY_FILE is required"))
	}
	if c.JWT.Issuer == "" {
		errs = append(errs, errors.New("JWT_ISSUER must not be empty"))
	}
	if c.JWT.ClockSkew < 0 || c.JWT.ClockSkew > 60*time.Second {
		errs = append(errs, fmt.Errorf("JWT_CLOCK_SKEW must be between 0s and 60s, got %s", c.JWT.ClockSkew))
	}

	if c.Auth.StoreTimeout <= 0 {
		errs = append(errs, errors.New("AUTH_STORE_TIMEOUT must be positive"))
	}
	if c.Auth.StoreMaxRetries > 10 {
		errs = append(errs, errors.New("AUTH_STORE_MAX_RETRIES must be at most 10"))
	}
	switch strings.ToLower(c.Auth.PasswordAlgorithm) {
	case "bcrypt", "argon2id":
	default:
		errs = append(errs, fmt.Errorf("AUTH_PASSWORD_ALGORITHM must be bcrypt or argon2id, got %q", c.Auth.PasswordAlgorithm))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("AUTH_BCRYPT_COST must be between 4 and 31, got %d", c.Auth.BcryptCost))
	}

	if c.RateLimit.Enabled && c.RateLimit.WindowDuration <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW_DURATION must be positive"))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED=true"))
	}
	if c.Admin.Bootstrap && c.Admin.Password != "" && len(c.Admin.Password) < 8 {
		errs = append(errs, errors.New("ADMIN_PASSWORD must have at least 8 characters"))
	}

	return errors.Join(errs...)
}

// buildDatabaseDSN builds the database connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}
