package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/goproj/internal/flagx"
	"github.com/dmitrijs2005/goproj/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept "1h" style strings or integer nanoseconds. Pointer fields are only
// applied when present so a partial file keeps the remaining defaults.
type JsonConfig struct {
	HTTPAddr       string          `json:"http_addr"`
	DatabaseDSN    string          `json:"database_dsn"`
	SecretKey      string          `json:"secret_key"`
	SessionTTL     *timex.Duration `json:"session_ttl"`
	RememberTTL    *timex.Duration `json:"remember_ttl"`
	S3RootUser     string          `json:"s3_root_user"`
	S3RootPassword string          `json:"s3_root_password"`
	S3Bucket       string          `json:"s3_bucket"`
	S3Region       string          `json:"s3_region"`
	S3BaseEndpoint string          `json:"s3_base_endpoint"`
	CORSOrigins    []string        `json:"cors_origins"`
	SweepSchedule  string          `json:"sweep_schedule"`
	SecureCookie   *bool           `json:"secure_cookie"`
	LogLevel       string          `json:"log_level"`
	OTLPEndpoint   string          `json:"otlp_endpoint"`
}

// parseJson overlays values from the file named by -c/-config (or the
// GOPROJ_CONFIG variable). Nothing happens when no file is named.
// An unreadable or malformed file panics.
func parseJson(config *Config) {
	path := flagx.ConfigPath()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.SweepSchedule, c.SweepSchedule)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.OTLPEndpoint, c.OTLPEndpoint)

	if c.SessionTTL != nil {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.RememberTTL != nil {
		config.RememberTTL = c.RememberTTL.Duration
	}
	if c.CORSOrigins != nil {
		config.CORSOrigins = c.CORSOrigins
	}
	if c.SecureCookie != nil {
		config.SecureCookie = *c.SecureCookie
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
