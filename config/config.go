// Package config holds the settings of a content service client.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bitrise-io/go-fcs/stepconf"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/docker/go-units"
)

// Defaults.
const (
	DefaultChunkSize        int64 = 10 * 1024 * 1024
	DefaultUploadAttempts         = 3
	DefaultUploadRetryDelay       = 1000 * time.Millisecond
	DefaultClientID               = "GOSDK"
	DefaultConnectTimeout         = 60 * time.Second
	DefaultLowSpeedLimit    int64 = 1024
	DefaultLowSpeedTime           = 120 * time.Second
)

// Environment variables read by FromEnv.
const (
	URLEnvKey              = "FCS_URL"
	AccessKeyEnvKey        = "FCS_ACCESS_KEY"
	AccessSecretEnvKey     = "FCS_ACCESS_SECRET"
	ClientIDEnvKey         = "FCS_CLIENT_ID"
	ChunkSizeEnvKey        = "FCS_CHUNK_SIZE"
	UploadAttemptsEnvKey   = "FCS_UPLOAD_ATTEMPTS"
	UploadRetryDelayEnvKey = "FCS_UPLOAD_RETRY_DELAY_MS"
	DebugEnvKey            = "FCS_DEBUG"
	LogPathEnvKey          = "FCS_LOG_PATH"
	UploadDebugEnvKey      = "FCS_UPLOAD_DEBUG"
	UploadProgressEnvKey   = "FCS_UPLOAD_PROGRESS"
)

// Config is the configuration of one client instance.
type Config struct {
	// URL is the base URL of the service. Its path is the base path prefix of every signed path.
	URL          string          `env:"FCS_URL,required"`
	AccessKey    string          `env:"FCS_ACCESS_KEY,required"`
	AccessSecret stepconf.Secret `env:"FCS_ACCESS_SECRET,required"`
	// ClientID is the last component of the Authorization token.
	ClientID string `env:"FCS_CLIENT_ID"`

	ChunkSize        int64         `env:"FCS_CHUNK_SIZE"`
	UploadAttempts   int           `env:"FCS_UPLOAD_ATTEMPTS"`
	UploadRetryDelay time.Duration `env:"FCS_UPLOAD_RETRY_DELAY_MS"`

	// ConnectTimeout bounds establishing a connection of a chunk upload attempt.
	ConnectTimeout time.Duration
	// A chunk upload attempt is aborted when its throughput stays below LowSpeedLimit
	// bytes per second for LowSpeedTime.
	LowSpeedLimit int64
	LowSpeedTime  time.Duration

	Debug          bool   `env:"FCS_DEBUG"`
	LogPath        string `env:"FCS_LOG_PATH"`
	UploadDebug    bool   `env:"FCS_UPLOAD_DEBUG"`
	UploadProgress bool   `env:"FCS_UPLOAD_PROGRESS"`
}

// ConfigurationError is returned when required settings are missing or invalid.
type ConfigurationError struct {
	Missing []string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required settings: "+strings.Join(e.Missing, ", "))
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	return "invalid client configuration: " + strings.Join(parts, "; ")
}

// WithDefaults returns a copy of c with every unset optional setting defaulted.
func (c Config) WithDefaults() Config {
	c.URL = strings.TrimRight(c.URL, "/")
	if c.ClientID == "" {
		c.ClientID = DefaultClientID
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.UploadAttempts <= 0 {
		c.UploadAttempts = DefaultUploadAttempts
	}
	if c.UploadRetryDelay <= 0 {
		c.UploadRetryDelay = DefaultUploadRetryDelay
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.LowSpeedLimit <= 0 {
		c.LowSpeedLimit = DefaultLowSpeedLimit
	}
	if c.LowSpeedTime <= 0 {
		c.LowSpeedTime = DefaultLowSpeedTime
	}
	return c
}

// Validate checks the settings a client cannot work without.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.URL) == "" {
		missing = append(missing, "url")
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		missing = append(missing, "access key")
	}
	if strings.TrimSpace(c.AccessSecret.Reveal()) == "" {
		missing = append(missing, "access secret")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}

	u, err := url.Parse(c.URL)
	if err != nil {
		return &ConfigurationError{Reason: fmt.Sprintf("parse url: %s", err)}
	}
	if !u.IsAbs() || u.Host == "" {
		return &ConfigurationError{Reason: fmt.Sprintf("url is not absolute: %s", c.URL)}
	}
	if u.RawQuery != "" {
		return &ConfigurationError{Reason: "url must not carry a query string"}
	}
	return nil
}

// BasePath returns the path of the service URL without a trailing slash.
func (c Config) BasePath() string {
	u, err := url.Parse(strings.TrimRight(c.URL, "/"))
	if err != nil {
		return ""
	}
	return strings.TrimRight(u.Path, "/")
}

// FromEnv reads the configuration from the environment and applies the defaults.
// The result is validated.
func FromEnv(repo env.Repository) (Config, error) {
	cfg := Config{
		URL:          strings.TrimSpace(repo.Get(URLEnvKey)),
		AccessKey:    strings.TrimSpace(repo.Get(AccessKeyEnvKey)),
		AccessSecret: stepconf.Secret(strings.TrimSpace(repo.Get(AccessSecretEnvKey))),
		ClientID:     strings.TrimSpace(repo.Get(ClientIDEnvKey)),
		LogPath:      strings.TrimSpace(repo.Get(LogPathEnvKey)),
	}

	if s := strings.TrimSpace(repo.Get(ChunkSizeEnvKey)); s != "" {
		size, err := ParseSize(s)
		if err != nil {
			return Config{}, &ConfigurationError{Reason: fmt.Sprintf("%s: %s", ChunkSizeEnvKey, err)}
		}
		cfg.ChunkSize = size
	}

	if s := strings.TrimSpace(repo.Get(UploadAttemptsEnvKey)); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return Config{}, &ConfigurationError{Reason: fmt.Sprintf("%s: not a positive integer: %s", UploadAttemptsEnvKey, s)}
		}
		cfg.UploadAttempts = n
	}

	if s := strings.TrimSpace(repo.Get(UploadRetryDelayEnvKey)); s != "" {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil || ms < 0 {
			return Config{}, &ConfigurationError{Reason: fmt.Sprintf("%s: not a number of milliseconds: %s", UploadRetryDelayEnvKey, s)}
		}
		cfg.UploadRetryDelay = time.Duration(ms) * time.Millisecond
	}

	var err error
	if cfg.Debug, err = envBool(repo, DebugEnvKey); err != nil {
		return Config{}, err
	}
	if cfg.UploadDebug, err = envBool(repo, UploadDebugEnvKey); err != nil {
		return Config{}, err
	}
	if cfg.UploadProgress, err = envBool(repo, UploadProgressEnvKey); err != nil {
		return Config{}, err
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseSize parses a byte count such as "10485760", "10MB" or "8MiB". Decimal suffixes
// are read as binary multiples, as the chunk size has always been configured.
func ParseSize(s string) (int64, error) {
	size, err := units.RAMInBytes(s)
	if err != nil {
		return 0, err
	}
	if size <= 0 {
		return 0, fmt.Errorf("size must be positive: %s", s)
	}
	return size, nil
}

func envBool(repo env.Repository, key string) (bool, error) {
	s := strings.ToLower(strings.TrimSpace(repo.Get(key)))
	switch s {
	case "":
		return false, nil
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, &ConfigurationError{Reason: fmt.Sprintf("%s: not a boolean: %s", key, s)}
	}
	return b, nil
}
