package chunkuploader

import (
	"io"
	"net"
	"net/http"
	"time"

	"github.com/bitrise-io/go-fcs/config"
)

// Config holds configuration for the chunk uploader.
type Config struct {
	// ChunkSize is the size of every chunk but the last one.
	// Default: 10 MiB
	ChunkSize int64

	// MaxAttempts is the number of attempts per chunk, the first one included.
	// Default: 3
	MaxAttempts int

	// RetryDelay is the fixed wait between two attempts of the same chunk.
	// Default: 1 second
	RetryDelay time.Duration

	// ConnectTimeout bounds establishing the connection of an attempt.
	// Default: 60 seconds
	ConnectTimeout time.Duration

	// An attempt is aborted when fewer than LowSpeedLimit bytes per second are sent for
	// LowSpeedTime. A zero LowSpeedTime disables the check.
	// Default: 1024 bytes per second for 120 seconds
	LowSpeedLimit int64
	LowSpeedTime  time.Duration

	// Verbose logs every attempt at info level instead of debug level.
	Verbose bool

	// Progress renders a progress bar to ProgressOutput (stderr when nil).
	Progress       bool
	ProgressOutput io.Writer

	// HTTPClient is the HTTP client used by the HTTP sender.
	// If nil, DefaultHTTPClient(ConnectTimeout) is used.
	HTTPClient *http.Client

	// OnEvent, when set, is called on every state change of an upload session.
	OnEvent func(Event)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		ChunkSize:      config.DefaultChunkSize,
		MaxAttempts:    config.DefaultUploadAttempts,
		RetryDelay:     config.DefaultUploadRetryDelay,
		ConnectTimeout: config.DefaultConnectTimeout,
		LowSpeedLimit:  config.DefaultLowSpeedLimit,
		LowSpeedTime:   config.DefaultLowSpeedTime,
	}
}

// ConfigFrom returns the uploader configuration of a client configuration.
func ConfigFrom(cfg config.Config) Config {
	cfg = cfg.WithDefaults()
	return Config{
		ChunkSize:      cfg.ChunkSize,
		MaxAttempts:    cfg.UploadAttempts,
		RetryDelay:     cfg.UploadRetryDelay,
		ConnectTimeout: cfg.ConnectTimeout,
		LowSpeedLimit:  cfg.LowSpeedLimit,
		LowSpeedTime:   cfg.LowSpeedTime,
		Verbose:        cfg.UploadDebug,
		Progress:       cfg.UploadProgress,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	return c
}

// DefaultHTTPClient creates an HTTP client for chunk uploads.
func DefaultHTTPClient(connectTimeout time.Duration) *http.Client {
	return &http.Client{
		// No timeout - a slow but progressing chunk is bounded by the stall check instead
		Timeout: 0,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   connectTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   connectTimeout,
			ExpectContinueTimeout: time.Second,
		},
	}
}
