package config

import (
	"fmt"
	"time"
)

const (
	BackendSQLite = "sqlite"
	BackendObject = "object"
)

// Config holds runtime settings for the peek CLI.
type Config struct {
	ConfigFile  string
	DBPath      string
	Backend     string
	RedisAddr   string
	RedisPrefix string
	Profile     string
	Slug        string
	HTTPTimeout time.Duration
	ClientName  string
	Debug       bool
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.DBPath = "peek.db"
	c.Backend = BackendSQLite
	c.RedisPrefix = "peek"
	c.HTTPTimeout = 30 * time.Second
	c.ClientName = "peek-cli"
}

// Validate rejects settings the CLI cannot act on.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendObject:
	default:
		return fmt.Errorf("unknown backend %q, want %s or %s", c.Backend, BackendSQLite, BackendObject)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout)
	}
	return nil
}
