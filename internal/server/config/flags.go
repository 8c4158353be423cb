package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/peeksync/internal/flagx"
)

var knownFlags = []string{"-a", "-d", "-f", "-s", "-t", "-o", "-r", "-x", "-l", "-v"}

// parseFlags populates server Config fields from os.Args.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-d string   system database DSN
//	-f string   tenant data directory
//	-s string   API key hashing secret
//	-t int      request timeout, seconds
//	-o string   comma separated CORS origins
//	-r string   rate limit, e.g. "20-S" or "1000-H"
//	-x string   redis address for the rate limiter
//	-l string   log file (rotated)
//	-v          debug logging
func parseFlags(config *Config) error {
	return parseFlagsFrom(config, os.Args[1:])
}

func parseFlagsFrom(config *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.SystemDSN, "d", config.SystemDSN, "system database DSN")
	fs.StringVar(&config.DataDir, "f", config.DataDir, "tenant data directory")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	timeout := fs.Int("t", int(config.RequestTimeout.Seconds()), "request timeout (in seconds)")
	origins := fs.String("o", strings.Join(config.CORSOrigins, ","), "allowed CORS origins")
	fs.StringVar(&config.RateLimit, "r", config.RateLimit, "rate limit per user")
	fs.StringVar(&config.RedisAddr, "x", config.RedisAddr, "redis address for rate limiting")
	fs.StringVar(&config.LogFile, "l", config.LogFile, "log file")
	fs.BoolVar(&config.Debug, "v", config.Debug, "debug logging")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.RequestTimeout = time.Duration(*timeout) * time.Second
	config.CORSOrigins = flagx.SplitList(*origins)
	return nil
}
