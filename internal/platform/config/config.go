// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, token service) via constructors.
  - Fail Fast: Missing secrets or nonsensical limits abort startup.
*/
package config

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/wafya/internal/platform/validate"
)

// # Configuration Schema

// Config holds all runtime configuration for the Wafya API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL      string        `env:"DATABASE_URL,required,notEmpty"`
	DBMaxConns       int           `env:"DB_MAX_CONNS"       envDefault:"20"`
	DBConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"5s"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL       string        `env:"REDIS_URL,required,notEmpty"`
	RedisPoolSize  int           `env:"REDIS_POOL_SIZE"  envDefault:"10"`
	RedisOpTimeout time.Duration `env:"REDIS_OP_TIMEOUT" envDefault:"2s"`

	// Token signing. Access and refresh secrets must differ.
	JWTSecret          string        `env:"JWT_SECRET,required,notEmpty"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET,required,notEmpty"`
	JWTExpiresIn       time.Duration `env:"JWT_EXPIRES_IN" envDefault:"168h"`
	JWTIssuer          string        `env:"JWT_ISSUER"     envDefault:"wafya"`

	// Credential protection
	MaxLoginAttempts int           `env:"MAX_LOGIN_ATTEMPTS" envDefault:"5"`
	LockoutDuration  time.Duration `env:"LOCKOUT_DURATION"   envDefault:"15m"`
	BcryptRounds     int           `env:"BCRYPT_ROUNDS"      envDefault:"12"`
	TwoFactorIssuer  string        `env:"TWO_FACTOR_ISSUER"  envDefault:"Wafya"`

	// RequireVerifiedEmail rejects authenticated requests from unverified accounts.
	RequireVerifiedEmail bool `env:"REQUIRE_VERIFIED_EMAIL" envDefault:"false"`

	// TrustedProxies lists the CIDRs whose X-Forwarded-For and X-Real-IP
	// headers are believed. Empty means the socket peer is the client.
	TrustedProxies []netip.Prefix `env:"TRUSTED_PROXIES" envSeparator:","`

	// Cross-Origin Resource Sharing
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// Per-IP throttling (global and credential endpoints)
	RateLimitRPS       float64 `env:"RATE_LIMIT_RPS"        envDefault:"100"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST"      envDefault:"150"`
	AuthRateLimitRPS   float64 `env:"AUTH_RATE_LIMIT_RPS"   envDefault:"0.2"`
	AuthRateLimitBurst int     `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates it.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	v := &validate.Validator{}

	v.OneOf("ENVIRONMENT", c.Environment, "development", "staging", "production", "test").
		Range("DB_MAX_CONNS", c.DBMaxConns, 1, 1000).
		Range("MAX_LOGIN_ATTEMPTS", c.MaxLoginAttempts, 1, 100).
		Range("BCRYPT_ROUNDS", c.BcryptRounds, bcrypt.MinCost, bcrypt.MaxCost).
		Custom("JWT_SECRET", len(c.JWTSecret) < 32 && c.IsProduction(), "Must be at least 32 characters in production").
		Custom("REFRESH_TOKEN_SECRET", c.RefreshTokenSecret == c.JWTSecret, "Must differ from JWT_SECRET").
		Custom("JWT_EXPIRES_IN", c.JWTExpiresIn <= 0, "Must be positive").
		Custom("LOCKOUT_DURATION", c.LockoutDuration <= 0, "Must be positive").
		Custom("DB_CONNECT_TIMEOUT", c.DBConnectTimeout <= 0, "Must be positive").
		Range("REDIS_POOL_SIZE", c.RedisPoolSize, 1, 1000).
		Custom("RATE_LIMIT_RPS", c.RateLimitRPS <= 0, "Must be positive").
		Custom("AUTH_RATE_LIMIT_RPS", c.AuthRateLimitRPS <= 0, "Must be positive").
		Required("JWT_ISSUER", c.JWTIssuer).
		Required("TWO_FACTOR_ISSUER", c.TwoFactorIssuer)

	return v.Err()
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
