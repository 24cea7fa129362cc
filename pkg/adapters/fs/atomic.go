package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	// TempFilePrefix is the prefix used for temporary atomic write files.
	// Files carrying it are never reported as nodes.
	TempFilePrefix = ".bpmx-tmp-"
)

// writeAtomic streams r into filename through a temp file in the same
// directory followed by a rename. It returns the number of bytes written.
func writeAtomic(filename string, r io.Reader, perm os.FileMode) (int64, error) {
	dir := filepath.Dir(filename)

	tmpFile, err := os.CreateTemp(dir, TempFilePrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name()) // no-op after a successful rename

	n, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return n, fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return n, fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return n, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpFile.Name(), perm); err != nil {
		return n, fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), filename); err != nil {
		return n, fmt.Errorf("failed to rename temp file to %s: %w", filename, err)
	}
	return n, nil
}

func isTempFile(name string) bool {
	return strings.HasPrefix(filepath.Base(name), TempFilePrefix)
}
