package debuglog

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_MirrorsLeveledMessages(t *testing.T) {
	var buf bytes.Buffer
	l := New(log.NewLogger(), &buf)
	l.now = func() time.Time { return time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC) }

	l.Debugf("FCS Sending Request: %s", "assets/new")
	l.Infof("uploading %d chunks", 3)
	l.Errorf("failed: %s", "boom")

	want := "[2024-05-01T10:30:00Z] [DEBUG] FCS Sending Request: assets/new\n" +
		"[2024-05-01T10:30:00Z] [INFO] uploading 3 chunks\n" +
		"[2024-05-01T10:30:00Z] [ERROR] failed: boom\n"
	assert.Equal(t, want, buf.String())
}

func TestOpen_AppendsToFile(t *testing.T) {
	pth := filepath.Join(t.TempDir(), "fcs.log")
	require.NoError(t, os.WriteFile(pth, []byte("existing\n"), 0644))

	l, err := Open(log.NewLogger(), pth)
	require.NoError(t, err)
	l.Warnf("retrying chunk %d", 1)
	require.NoError(t, l.Close())

	content, err := os.ReadFile(pth)
	require.NoError(t, err)
	assert.Contains(t, string(content), "existing\n")
	assert.Contains(t, string(content), "[WARN] retrying chunk 1\n")
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(log.NewLogger(), filepath.Join(t.TempDir(), "missing", "dir", "fcs.log"))
	assert.Error(t, err)
}
