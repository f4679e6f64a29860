package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:9090", "-d", "db", "-s", "secret",
				"-t", "30", "-r", "120", "-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
				"-o", "https://a.example, https://b.example", "-w", "@hourly", "-k=false", "-l", "debug", "-x", "otel:4317",
			},
			expected: &Config{
				HTTPAddr:       "127.0.0.1:9090",
				DatabaseDSN:    "db",
				SecretKey:      "secret",
				SessionTTL:     30 * time.Minute,
				RememberTTL:    2 * time.Hour,
				S3RootUser:     "user",
				S3RootPassword: "password",
				S3Bucket:       "bucket",
				S3Region:       "us-west-1",
				S3BaseEndpoint: "http://endpoint",
				CORSOrigins:    []string{"https://a.example", "https://b.example"},
				SweepSchedule:  "@hourly",
				SecureCookie:   false,
				LogLevel:       "debug",
				OTLPEndpoint:   "otel:4317",
			},
		},
		{
			name:        "non-numeric duration",
			args:        []string{"cmd", "-t", "soon"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origArgs := os.Args
			t.Cleanup(func() { os.Args = origArgs })
			os.Args = tt.args

			config := &Config{}
			config.LoadDefaults()

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t, []string{}, splitOrigins(""))
	assert.Equal(t, []string{"a", "b"}, splitOrigins(" a ,, b "))
}
