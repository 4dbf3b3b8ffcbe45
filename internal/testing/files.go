package testing

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// PatternBytes returns size bytes of a repeating, position dependent pattern, so that a
// byte range read from the wrong offset never matches the expected one.
func PatternBytes(size int64) []byte {
	b := make([]byte, size)
	for i := range b {
		b[i] = byte((i*7 + i/251) % 256)
	}
	return b
}

// WriteFile writes PatternBytes(size) to name inside a fresh temp dir and returns the path
// and the written content.
func WriteFile(t testing.TB, name string, size int64) (string, []byte) {
	t.Helper()

	content := PatternBytes(size)
	pth := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(pth, content, 0644); err != nil {
		t.Fatalf("write %s: %s", pth, err)
	}
	return pth, content
}

// FileChecker allows chaining multiple checks on a file path.
type FileChecker struct {
	Path   string
	Checks []func(string) error
}

// NewFileChecker creates a FileChecker for the given path.
func NewFileChecker(path string) *FileChecker {
	return &FileChecker{Path: path}
}

// Check runs all checks and returns the first failure.
func (fc *FileChecker) Check() error {
	for _, check := range fc.Checks {
		if err := check(fc.Path); err != nil {
			return err
		}
	}
	return nil
}

// IsFile adds a check that the path is a regular file.
func (fc *FileChecker) IsFile() *FileChecker {
	fc.Checks = append(fc.Checks, func(path string) error {
		info, err := os.Lstat(path)
		if err != nil {
			return fmt.Errorf("lstat %s: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("expected regular file: %s", path)
		}
		return nil
	})
	return fc
}

// Content adds a check that the file has the specified content.
func (fc *FileChecker) Content(content []byte) *FileChecker {
	fc.Checks = append(fc.Checks, func(path string) error {
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if string(b) != string(content) {
			return fmt.Errorf("file %s content mismatch: want %d bytes, got %d bytes", path, len(content), len(b))
		}
		return nil
	})
	return fc
}
