// Package debuglog mirrors log messages into a debug log file.
package debuglog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
)

// Logger is a log.Logger that also appends every leveled message to a writer as
// "[<RFC 3339 time>] [<LEVEL>] <message>" lines.
type Logger struct {
	log.Logger

	mu     sync.Mutex
	out    io.Writer
	closer io.Closer
	now    func() time.Time
}

// New wraps base and mirrors its messages to w.
func New(base log.Logger, w io.Writer) *Logger {
	return &Logger{
		Logger: base,
		out:    w,
		now:    time.Now,
	}
}

// Open wraps base and appends its messages to the file at path, creating it if needed.
func Open(base log.Logger, path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open debug log: %w", err)
	}

	l := New(base, f)
	l.closer = f
	return l, nil
}

// Close closes the debug log file opened by Open.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Debugf ...
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.Logger.Debugf(format, v...)
	l.write("debug", format, v...)
}

// Infof ...
func (l *Logger) Infof(format string, v ...interface{}) {
	l.Logger.Infof(format, v...)
	l.write("info", format, v...)
}

// Warnf ...
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.Logger.Warnf(format, v...)
	l.write("warn", format, v...)
}

// Errorf ...
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.Logger.Errorf(format, v...)
	l.write("error", format, v...)
}

// Donef ...
func (l *Logger) Donef(format string, v ...interface{}) {
	l.Logger.Donef(format, v...)
	l.write("info", format, v...)
}

func (l *Logger) write(level, format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	line := fmt.Sprintf("[%s] [%s] %s\n", l.now().Format(time.RFC3339), strings.ToUpper(level), msg)

	l.mu.Lock()
	defer l.mu.Unlock()
	// Write errors are ignored.
	_, _ = io.WriteString(l.out, line)
}
