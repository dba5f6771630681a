package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// SafeSaveIOToFile streams r into a temp file next to dst and renames it over
// the target, so an interrupted download never leaves a truncated file behind.
func SafeSaveIOToFile(dst string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create directory failed: %w", err)
	}
	tmp := fmt.Sprintf("%s.%s.partial", dst, uuid.NewString())
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create tmp file failed: %w", err)
	}
	defer os.Remove(tmp)
	_, err = io.Copy(f, r)
	cerr := f.Close()
	if err != nil {
		return fmt.Errorf("copy stream to tmp file failed: %w", err)
	}
	if cerr != nil {
		return fmt.Errorf("close tmp file failed: %w", cerr)
	}
	if err := os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("rename tmp file to target failed: %w", err)
	}
	return nil
}
