// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"errors"
	"time"
)

// Config holds runtime settings for the peek sync server.
//
// Fields:
//   - EndpointAddr: bind address for the HTTP API.
//   - SystemDSN: system database. A postgres:// or postgresql:// URL selects
//     Postgres (pgx); anything else is a SQLite path.
//   - DataDir: root of the per-user, per-profile tenant stores.
//   - SecretKey: key for hashing API keys. Required.
//   - RequestTimeout: per-request deadline.
//   - CORSOrigins: allowed origins; "*" allows any.
//   - RateLimit: ulule/limiter formatted rate, e.g. "20-S".
//   - RedisAddr: when set, the rate limiter keeps its counters in Redis.
//   - LogFile: when set, logs go to a rotating file instead of stdout.
type Config struct {
	EndpointAddr   string
	SystemDSN      string
	DataDir        string
	SecretKey      string
	RequestTimeout time.Duration
	CORSOrigins    []string
	RateLimit      string
	RedisAddr      string
	LogFile        string
	Debug          bool
}

// LoadDefaults populates Config with development defaults. SecretKey is
// left empty on purpose and must be supplied.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.SystemDSN = "peek-system.db"
	c.DataDir = "./data"
	c.RequestTimeout = 30 * time.Second
	c.CORSOrigins = []string{"*"}
	c.RateLimit = "20-S"
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required"))
	}
	if c.SystemDSN == "" {
		errs = append(errs, errors.New("system dsn is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data dir is required"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
