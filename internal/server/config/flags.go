package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/goproj/internal/flagx"
)

var serverFlags = []string{"-a", "-d", "-s", "-t", "-r", "-u", "-p", "-b", "-g", "-e", "-o", "-w", "-k", "-l", "-x"}

// parseFlags overrides Config fields from command-line flags.
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-d string   PostgreSQL DSN
//	-s string   token HMAC secret
//	-t int      session TTL, minutes
//	-r int      "remember me" session TTL, minutes
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-o string   comma separated CORS origins
//	-w string   session sweep cron schedule
//	-k bool     Secure attribute on the session cookie
//	-l string   log level
//	-x string   OTLP collector endpoint
//
// Only the flags above are picked out of os.Args, so other components may
// define their own. Durations are given in whole minutes.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "session TTL (in minutes)")
	rememberTTL := fs.Int("r", int(config.RememberTTL.Minutes()), "remember-me session TTL (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	origins := fs.String("o", strings.Join(config.CORSOrigins, ","), "allowed CORS origins, comma separated")
	fs.StringVar(&config.SweepSchedule, "w", config.SweepSchedule, "expired session sweep schedule")
	fs.BoolVar(&config.SecureCookie, "k", config.SecureCookie, "set Secure on the session cookie")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.OTLPEndpoint, "x", config.OTLPEndpoint, "OTLP collector endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
	config.RememberTTL = time.Duration(*rememberTTL) * time.Minute
	config.CORSOrigins = splitOrigins(*origins)
}

func splitOrigins(s string) []string {
	out := []string{}
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
