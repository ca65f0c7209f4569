package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_PRIVATE_KEY_FILE", "/run/secrets/jwt.pem")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Api", cfg.JWT.Issuer)
	assert.Zero(t, cfg.JWT.ClockSkew)
	assert.Equal(t, 2*time.Second, cfg.Auth.StoreTimeout)
	assert.Equal(t, "bcrypt", cfg.Auth.PasswordAlgorithm)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "host=localhost port=5432 user=clientregistry password=clientregistry dbname=clientregistry sslmode=disable", cfg.Database.DSN)
	assert.Equal(t, "/api/v1", cfg.GetAPIBasePath())
	assert.Equal(t, ":8080", cfg.GetServerAddress())
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_PRIVATE_KEY_BASE64", "LS0tLS1CRUdJTg==")
	t.Setenv("JWT_CLOCK_SKEW", "30s")
	t.Setenv("JWT_PREVIOUS_PUBLIC_KEYS_BASE64", "a;b")
	t.Setenv("DB_DSN", "postgres://u:p@db/clients")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("GIN_MODE", "release")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.JWT.ClockSkew)
	assert.Equal(t, []string{"a", "b"}, cfg.JWT.PreviousPublicKeysBase64)
	assert.Equal(t, "postgres://u:p@db/clients", cfg.Database.DSN)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		t.Setenv("JWT_PRIVATE_KEY_FILE", "key.pem")
		cfg, err := Parse()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing key", func(c *Config) { c.JWT.PrivateKeyFile = "" }, "JWT_PRIVATE_KEY_BASE64 or JWT_PRIVATE_KEY_FILE"},
		{"empty issuer", func(c *Config) { c.JWT.Issuer = "" }, "JWT_ISSUER"},
		{"skew too large", func(c *Config) { c.JWT.ClockSkew = 2 * time.Minute }, "JWT_CLOCK_SKEW"},
		{"negative skew", func(c *Config) { c.JWT.ClockSkew = -time.Second }, "JWT_CLOCK_SKEW"},
		{"store timeout", func(c *Config) { c.Auth.StoreTimeout = 0 }, "AUTH_STORE_TIMEOUT"},
		{"too many retries", func(c *Config) { c.Auth.StoreMaxRetries = 11 }, "AUTH_STORE_MAX_RETRIES"},
		{"unknown algorithm", func(c *Config) { c.Auth.PasswordAlgorithm = "md5" }, "AUTH_PASSWORD_ALGORITHM"},
		{"bcrypt cost", func(c *Config) { c.Auth.BcryptCost = 3 }, "AUTH_BCRYPT_COST"},
		{"rate window", func(c *Config) { c.RateLimit.WindowDuration = 0 }, "RATE_LIMIT_WINDOW_DURATION"},
		{"kafka brokers", func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Brokers = nil }, "KAFKA_BROKERS"},
		{"weak admin password", func(c *Config) { c.Admin.Password = "short" }, "ADMIN_PASSWORD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"JWT_PRIVATE_KEY", "JWT_ISSUER", "AUTH_STORE_TIMEOUT", "AUTH_PASSWORD_ALGORITHM", "AUTH_BCRYPT_COST"} {
		assert.Contains(t, err.Error(), want)
	}
}
