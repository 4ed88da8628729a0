// Package config loads gateway configuration from a YAML file with
// environment variable overrides. The loaded Config is an immutable
// snapshot; runtime changes arrive only through Provider reloads which
// republish a fresh snapshot.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// MinSecretLength is the minimum signing secret length in bytes (256 bits).
const MinSecretLength = 32

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Auth      AuthConfig      `koanf:"auth"`
	Endpoints EndpointsConfig `koanf:"endpoints"`
	Limits    LimitsConfig    `koanf:"limits"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Routes    []RouteConfig   `koanf:"routes"`
	Breaker   BreakerConfig   `koanf:"breaker"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type AuthConfig struct {
	// Secret is the shared HMAC signing secret. Must be at least 32 bytes.
	Secret string `koanf:"secret"`
	// Lifetime is the token lifetime granted at issuance, e.g. "24h".
	// The gateway does not issue tokens; this is part of the shared
	// signing contract surfaced to operators in one place.
	Lifetime string `koanf:"lifetime"`
}

// EndpointsConfig holds the public endpoint sets. Everything not listed is
// protected by default.
type EndpointsConfig struct {
	PublicExact    []string `koanf:"public_exact"`
	PublicPrefixes []string `koanf:"public_prefixes"`
}

// LimitsConfig holds per-category request size thresholds in bytes.
type LimitsConfig struct {
	DefaultBytes int64 `koanf:"default_bytes"`
	UploadBytes  int64 `koanf:"upload_bytes"`
	BatchBytes   int64 `koanf:"batch_bytes"`
}

type RateLimitConfig struct {
	// Strategy selects the partition key resolver: tenant, user, ip, composite.
	Strategy string      `koanf:"strategy"`
	RPS      float64     `koanf:"rps"`
	Burst    int         `koanf:"burst"`
	Redis    RedisConfig `koanf:"redis"`
}

type RedisConfig struct {
	// Addr enables the Redis-backed counter store when non-empty.
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	// Window is the fixed counting window, e.g. "1s".
	Window string `koanf:"window"`
	Limit  int    `koanf:"limit"`
}

type RouteConfig struct {
	Prefix string `koanf:"prefix"`
	Target string `koanf:"target"`
}

// BreakerConfig is the circuit-breaker/time-limiter contract applied to
// every backend route.
type BreakerConfig struct {
	SlidingWindowSize    int     `koanf:"sliding_window_size"`
	MinimumCalls         int     `koanf:"minimum_calls"`
	HalfOpenCalls        int     `koanf:"half_open_calls"`
	OpenStateWait        string  `koanf:"open_state_wait"`
	FailureRateThreshold float64 `koanf:"failure_rate_threshold"`
	CallTimeout          string  `koanf:"call_timeout"`
}

// Default returns the built-in configuration. The public endpoint sets
// mirror the production protection list.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		Auth:   AuthConfig{Lifetime: "24h"},
		Endpoints: EndpointsConfig{
			PublicExact: []string{
				"/api/auth/signin",
				"/api/auth/signup",
				"/api/auth/login",
				"/api/auth/register",
				"/api/auth/refresh",
				"/api/auth/forgot-password",
				"/api/auth/reset-password",
				"/api/auth/verify",
				"/api/users/auth/signin",
				"/api/users/auth/signup",
				"/api/users/auth/login",
				"/api/users/auth/register",
				"/actuator/health",
				"/actuator/info",
				"/eureka",
				"/api/inventory/templates/items",
				"/api/inventory/templates/consumption",
				"/api/inventory/templates/info",
				"/api/inventory/upload/consumption/instructions",
				"/api/inventory/upload/items/instructions",
				"/swagger-ui",
				"/api-docs",
				"/v3/api-docs",
			},
			PublicPrefixes: []string{
				"/api/auth",
				"/api/users/auth",
				"/actuator",
				"/eureka",
				"/api/inventory/templates",
			},
		},
		Limits: LimitsConfig{
			DefaultBytes: 10 * 1024 * 1024,
			UploadBytes:  50 * 1024 * 1024,
			BatchBytes:   20 * 1024 * 1024,
		},
		RateLimit: RateLimitConfig{
			Strategy: "tenant",
			RPS:      50,
			Burst:    100,
			Redis: RedisConfig{
				Window: "1s",
				Limit:  100,
			},
		},
		Routes: []RouteConfig{
			{Prefix: "/api/users", Target: "http://localhost:8083"},
			{Prefix: "/api/inventory", Target: "http://localhost:8082"},
			{Prefix: "/api/analytics", Target: "http://localhost:8081"},
		},
		Breaker: BreakerConfig{
			SlidingWindowSize:    10,
			MinimumCalls:         5,
			HalfOpenCalls:        3,
			OpenStateWait:        "10s",
			FailureRateThreshold: 50,
			CallTimeout:          "10s",
		},
	}
}

// Load reads configuration from the given YAML file (if it exists) and
// applies GW_* environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	// Environment overrides, e.g. GW_AUTH_SECRET -> auth.secret
	if err := k.Load(env.Provider("GW_", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// snakeSegments restores the snake_case key segments the underscore to dot
// conversion cannot distinguish from separators, so
// GW_LIMITS_DEFAULT_BYTES reaches limits.default_bytes.
var snakeSegments = strings.NewReplacer(
	"public.exact", "public_exact",
	"public.prefixes", "public_prefixes",
	"default.bytes", "default_bytes",
	"upload.bytes", "upload_bytes",
	"batch.bytes", "batch_bytes",
	"sliding.window.size", "sliding_window_size",
	"minimum.calls", "minimum_calls",
	"half.open.calls", "half_open_calls",
	"open.state.wait", "open_state_wait",
	"failure.rate.threshold", "failure_rate_threshold",
	"call.timeout", "call_timeout",
)

func envKey(s string) string {
	key := strings.Replace(strings.ToLower(strings.TrimPrefix(s, "GW_")), "_", ".", -1)
	return snakeSegments.Replace(key)
}

// Validate rejects configurations the gateway must not start with.
func (c *Config) Validate() error {
	if len(c.Auth.Secret) < MinSecretLength {
		return fmt.Errorf("auth secret must be at least %d characters (256 bits), got %d",
			MinSecretLength, len(c.Auth.Secret))
	}
	if _, err := time.ParseDuration(c.Auth.Lifetime); err != nil {
		return fmt.Errorf("invalid auth lifetime %q: %w", c.Auth.Lifetime, err)
	}
	if c.Limits.DefaultBytes <= 0 || c.Limits.UploadBytes <= 0 || c.Limits.BatchBytes <= 0 {
		return fmt.Errorf("size limits must be positive")
	}
	if _, err := time.ParseDuration(c.Breaker.OpenStateWait); err != nil {
		return fmt.Errorf("invalid breaker open state wait %q: %w", c.Breaker.OpenStateWait, err)
	}
	if _, err := time.ParseDuration(c.Breaker.CallTimeout); err != nil {
		return fmt.Errorf("invalid breaker call timeout %q: %w", c.Breaker.CallTimeout, err)
	}
	if c.RateLimit.Redis.Addr != "" {
		if _, err := time.ParseDuration(c.RateLimit.Redis.Window); err != nil {
			return fmt.Errorf("invalid ratelimit redis window %q: %w", c.RateLimit.Redis.Window, err)
		}
	}
	return nil
}

// TokenLifetime returns the parsed token lifetime. Validate guarantees the
// value parses.
func (c *Config) TokenLifetime() time.Duration {
	d, _ := time.ParseDuration(c.Auth.Lifetime)
	return d
}

// CallTimeoutDuration returns the parsed per-call timeout of the breaker contract.
func (b *BreakerConfig) CallTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(b.CallTimeout)
	return d
}

// OpenStateWaitDuration returns the parsed open-state wait of the breaker contract.
func (b *BreakerConfig) OpenStateWaitDuration() time.Duration {
	d, _ := time.ParseDuration(b.OpenStateWait)
	return d
}
