// Package config loads runtime configuration for the peek CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file given with -c / --config.
//  3. Command-line flags the user set explicitly.
//
// # JSON schema
//
// Durations use timex.Duration, so they may be strings like "30s" or
// integer nanoseconds:
//
//	{
//	  "db_path": "peek.db",
//	  "backend": "sqlite",
//	  "redis_addr": "",
//	  "redis_prefix": "peek",
//	  "profile": "",
//	  "slug": "work",
//	  "http_timeout": "30s",
//	  "client_name": "peek-cli"
//	}
//
// Sync settings (server URL, API key, last sync time) are not part of this
// file; they live in the local store next to the data they describe.
package config
