package chunkuploader

import (
	"net/http"
	"testing"
	"time"

	"github.com/bitrise-io/go-fcs/config"
	"github.com/stretchr/testify/assert"
)

func configWithUploadSettings() config.Config {
	return config.Config{
		URL:              "https://fcs.example.com/api",
		AccessKey:        "key",
		AccessSecret:     "s3cr3t",
		ChunkSize:        5 * mib,
		UploadAttempts:   5,
		UploadRetryDelay: 2 * time.Second,
		UploadDebug:      true,
	}
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	assert.Equal(t, int64(10*mib), c.ChunkSize)
	assert.Equal(t, 3, c.MaxAttempts)
	assert.Equal(t, time.Second, c.RetryDelay)
	assert.Equal(t, 60*time.Second, c.ConnectTimeout)
	assert.Equal(t, int64(1024), c.LowSpeedLimit)
	assert.Equal(t, 120*time.Second, c.LowSpeedTime)
}

func TestConfig_withDefaults(t *testing.T) {
	c := Config{RetryDelay: -time.Second}.withDefaults()

	assert.Equal(t, int64(10*mib), c.ChunkSize)
	assert.Equal(t, 3, c.MaxAttempts)
	assert.Equal(t, time.Duration(0), c.RetryDelay)
	assert.Equal(t, time.Duration(0), c.LowSpeedTime, "the stall check stays disabled unless configured")
}

func TestDefaultHTTPClient(t *testing.T) {
	client := DefaultHTTPClient(5 * time.Second)

	assert.Equal(t, time.Duration(0), client.Timeout)
	transport, ok := client.Transport.(*http.Transport)
	assert.True(t, ok)
	assert.Equal(t, 5*time.Second, transport.TLSHandshakeTimeout)
}
