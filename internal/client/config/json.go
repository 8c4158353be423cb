package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/peeksync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	DBPath      string         `json:"db_path"`
	Backend     string         `json:"backend"`
	RedisAddr   string         `json:"redis_addr"`
	RedisPrefix string         `json:"redis_prefix"`
	Profile     string         `json:"profile"`
	Slug        string         `json:"slug"`
	HTTPTimeout timex.Duration `json:"http_timeout"`
	ClientName  string         `json:"client_name"`
}

func readJson(path string) (*JsonConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &jc, nil
}

// apply copies the non-empty fields of jc into c, skipping those whose flag
// was set on the command line.
func (jc *JsonConfig) apply(c *Config, flagSet func(name string) bool) {
	set := func(flag, v string, dst *string) {
		if v != "" && !flagSet(flag) {
			*dst = v
		}
	}
	set("db", jc.DBPath, &c.DBPath)
	set("backend", jc.Backend, &c.Backend)
	set("redis", jc.RedisAddr, &c.RedisAddr)
	set("redis-prefix", jc.RedisPrefix, &c.RedisPrefix)
	set("profile", jc.Profile, &c.Profile)
	set("slug", jc.Slug, &c.Slug)
	if jc.ClientName != "" {
		c.ClientName = jc.ClientName
	}
	if jc.HTTPTimeout.Duration > 0 && !flagSet("timeout") {
		c.HTTPTimeout = jc.HTTPTimeout.Duration
	}
}
