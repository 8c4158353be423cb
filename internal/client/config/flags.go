package config

import (
	"github.com/spf13/pflag"
)

// BindFlags registers the persistent CLI flags onto fs, writing into c.
// Call LoadDefaults first so the defaults show up in help.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.ConfigFile, "config", "c", c.ConfigFile, "path to JSON config file")
	fs.StringVarP(&c.DBPath, "db", "d", c.DBPath, "path to the local database")
	fs.StringVar(&c.Backend, "backend", c.Backend, "local store backend: sqlite or object")
	fs.StringVar(&c.RedisAddr, "redis", c.RedisAddr, "redis address for the object backend (empty keeps objects in memory)")
	fs.StringVar(&c.RedisPrefix, "redis-prefix", c.RedisPrefix, "key prefix for the object backend")
	fs.StringVar(&c.Profile, "profile", c.Profile, "server profile id")
	fs.StringVar(&c.Slug, "slug", c.Slug, "server profile slug")
	fs.DurationVar(&c.HTTPTimeout, "timeout", c.HTTPTimeout, "HTTP request timeout")
	fs.BoolVarP(&c.Debug, "verbose", "v", c.Debug, "debug logging")
}

// Resolve overlays the JSON file named by --config under the flags the
// user set explicitly, then validates the result. fs must already be
// parsed.
func (c *Config) Resolve(fs *pflag.FlagSet) error {
	if c.ConfigFile != "" {
		jc, err := readJson(c.ConfigFile)
		if err != nil {
			return err
		}
		jc.apply(c, func(name string) bool {
			f := fs.Lookup(name)
			return f != nil && f.Changed
		})
	}
	return c.Validate()
}
