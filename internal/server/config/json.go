package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/peeksync/internal/flagx"
	"github.com/dmitrijs2005/peeksync/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration. Zero values
// leave the corresponding default untouched.
type JsonConfig struct {
	EndpointAddr   string         `json:"endpoint_addr"`
	SystemDSN      string         `json:"system_dsn"`
	DataDir        string         `json:"data_dir"`
	SecretKey      string         `json:"secret_key"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	CORSOrigins    []string       `json:"cors_origins"`
	RateLimit      string         `json:"rate_limit"`
	RedisAddr      string         `json:"redis_addr"`
	LogFile        string         `json:"log_file"`
	Debug          bool           `json:"debug"`
}

// parseJson loads the file named by -c or -config, if any, into config.
func parseJson(config *Config) error {
	return parseJsonFrom(config, flagx.JsonConfigFlags())
}

func parseJsonFrom(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.EndpointAddr, c.EndpointAddr)
	setString(&config.SystemDSN, c.SystemDSN)
	setString(&config.DataDir, c.DataDir)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.RateLimit, c.RateLimit)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.LogFile, c.LogFile)
	if c.RequestTimeout.Duration > 0 {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if len(c.CORSOrigins) > 0 {
		config.CORSOrigins = c.CORSOrigins
	}
	config.Debug = config.Debug || c.Debug
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// LoadFile overlays the JSON configuration at path onto config.
func LoadFile(config *Config, path string) error {
	return parseJsonFrom(config, path)
}
