package fcs

import (
	"os"
	"path/filepath"
)

func writeFile(pth string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(pth), 0755); err != nil {
		return err
	}
	return os.WriteFile(pth, content, 0644)
}
