// Package config provides configuration management functionality for the sigclock application.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/connorhough/sigclock/internal/sigv4"
)

// Default values used when the config file and environment are silent
const (
	DefaultRegion     = "us-east-1"
	DefaultNTPServer  = "pool.ntp.org"
	DefaultNTPTimeout = 5 * time.Second
)

// GetValue retrieves a configuration value by key
func GetValue(key string) (string, error) {
	if !viper.IsSet(key) {
		return "", fmt.Errorf("key '%s' not found in configuration", key)
	}
	return viper.GetString(key), nil
}

// SetValue sets a configuration value by key and persists it to the config file
func SetValue(key string, value string) error {
	viper.Set(key, value)
	return viper.WriteConfig()
}

// AWSConfig holds what is needed to sign and send requests
type AWSConfig struct {
	Region      string
	Credentials sigv4.Credentials
	// Endpoints overrides the public endpoint per service name (kms, s3, ...)
	Endpoints map[string]string
}

// NTPConfig holds the reference clock settings
type NTPConfig struct {
	Server  string
	Timeout time.Duration
}

// ResolveAWSConfig resolves AWS settings.
// Precedence: config file / SIGCLOCK_* env -> standard AWS_* env -> defaults
// Flags are handled separately in command layer
func ResolveAWSConfig() *AWSConfig {
	cfg := &AWSConfig{
		Region: firstNonEmpty(viper.GetString("region"), os.Getenv("AWS_REGION"), os.Getenv("AWS_DEFAULT_REGION"), DefaultRegion),
		Credentials: sigv4.Credentials{
			AccessKeyID:     firstNonEmpty(viper.GetString("credentials.access_key_id"), os.Getenv("AWS_ACCESS_KEY_ID")),
			SecretAccessKey: firstNonEmpty(viper.GetString("credentials.secret_access_key"), os.Getenv("AWS_SECRET_ACCESS_KEY")),
			SessionToken:    firstNonEmpty(viper.GetString("credentials.session_token"), os.Getenv("AWS_SESSION_TOKEN")),
		},
		Endpoints: viper.GetStringMapString("endpoints"),
	}
	return cfg
}

// ApplyFlags applies flag overrides to config (called from command layer)
func (c *AWSConfig) ApplyFlags(regionFlag string) {
	if regionFlag != "" {
		c.Region = regionFlag
	}
}

// Endpoint returns the configured endpoint override for service, if any
func (c *AWSConfig) Endpoint(service string) string {
	return c.Endpoints[service]
}

// Validate checks that credentials are present
func (c *AWSConfig) Validate() error {
	if c.Credentials.AccessKeyID == "" || c.Credentials.SecretAccessKey == "" {
		return fmt.Errorf("AWS credentials not configured: set credentials.access_key_id and credentials.secret_access_key or AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY")
	}
	return nil
}

// ResolveNTPConfig resolves the NTP server used by the check command
func ResolveNTPConfig() *NTPConfig {
	cfg := &NTPConfig{
		Server:  viper.GetString("ntp.server"),
		Timeout: viper.GetDuration("ntp.timeout"),
	}
	if cfg.Server == "" {
		cfg.Server = DefaultNTPServer
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultNTPTimeout
	}
	return cfg
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
