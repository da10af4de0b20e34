package config

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// minSecretLength is the shortest accepted session or JWT secret.
const minSecretLength = 16

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	SessionSecret string        `mapstructure:"session_secret" yaml:"session_secret"`
	SessionMaxAge time.Duration `mapstructure:"session_max_age" yaml:"session_max_age"`
	CookieSecure  bool          `mapstructure:"cookie_secure" yaml:"cookie_secure"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`

	// SignInRateLimit caps sign-in attempts per client per minute. Zero disables the limit.
	SignInRateLimit int `mapstructure:"sign_in_rate_limit" yaml:"sign_in_rate_limit"`
	// TrustedProxies lists the IPs or CIDRs allowed to set X-Forwarded-For.
	// Empty means the client address is always the TCP peer.
	TrustedProxies []string `mapstructure:"trusted_proxies" yaml:"trusted_proxies"`

	FeedBuffer     int  `mapstructure:"feed_buffer" yaml:"feed_buffer"`
	MetricsEnabled bool `mapstructure:"metrics_enabled" yaml:"metrics_enabled"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "grams.db",
		LogLevel:          "info",
		LogFormat:         "console",
		SessionSecret:     "change-me-session-secret",
		SessionMaxAge:     7 * 24 * time.Hour,
		JWTSecret:         "change-me-jwt-secret-please",
		JWTIssuer:         "grams",
		JWTAudience:       "grams",
		JWTTTL:            24 * time.Hour,
		SignInRateLimit:   20,
		TrustedProxies:    []string{},
		FeedBuffer:        16,
		MetricsEnabled:    true,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required")
	}
	if c.DatabasePath == "" {
		return errors.New("database_path is required")
	}
	if len(c.SessionSecret) < minSecretLength {
		return fmt.Errorf("session_secret must be at least %d characters", minSecretLength)
	}
	if len(c.JWTSecret) < minSecretLength {
		return fmt.Errorf("jwt_secret must be at least %d characters", minSecretLength)
	}
	if c.JWTTTL <= 0 {
		return errors.New("jwt_ttl must be positive")
	}
	if c.FeedBuffer <= 0 {
		return errors.New("feed_buffer must be positive")
	}
	for _, proxy := range c.TrustedProxies {
		if net.ParseIP(proxy) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(proxy); err != nil {
			return fmt.Errorf("trusted_proxies: %q is not an IP or CIDR", proxy)
		}
	}
	return nil
}

// InsecureSecrets returns the secret keys still set to their built-in placeholders.
func (c *Config) InsecureSecrets() []string {
	defaults := Default()
	var keys []string
	if c.SessionSecret == defaults.SessionSecret {
		keys = append(keys, "session_secret")
	}
	if c.JWTSecret == defaults.JWTSecret {
		keys = append(keys, "jwt_secret")
	}
	return keys
}
