// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Cleanup cadence for per-IP buckets.
  - Security: Token audiences, enrolment TTLs and header names.

Tunable values (secrets, lockout thresholds, bcrypt cost) live in the config
package instead, because operators change them per environment.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "wafya-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second

	// StartupTimeout bounds the dependency checks done before serving traffic.
	StartupTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute

	// RateLimitRetryAfterSeconds is advertised to throttled clients.
	RateLimitRetryAfterSeconds = 1
)

// # Authentication

const (
	// AccessAudienceSuffix is appended to the issuer to build the access token audience.
	AccessAudienceSuffix = "-users"

	// RefreshAudienceSuffix is appended to the issuer to build the refresh token audience.
	RefreshAudienceSuffix = "-refresh"

	// RefreshTokenTTL is fixed; only the access token lifetime is configurable.
	RefreshTokenTTL = 30 * 24 * time.Hour

	// BearerScheme is the expected Authorization header scheme.
	BearerScheme = "Bearer"

	// BackupCodeCount is how many recovery codes are issued when 2FA is enabled.
	BackupCodeCount = 10

	// TwoFactorEnrollmentTTL bounds how long a generated secret waits for confirmation.
	TwoFactorEnrollmentTTL = 10 * time.Minute
)

// # HTTP Headers

const (
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderRetryAfter    = "Retry-After"
)

// # JSON Field Identifiers

const (
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldDetail  = "detail"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldChecks  = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixTwoFactorEnrollment = "auth:2fa_enrollment:"
)
