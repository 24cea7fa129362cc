package fs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
)

func TestWriteAtomic(t *testing.T) {
	t.Run("Streams Reader Into New File", func(t *testing.T) {
		tmpDir := t.TempDir()
		filename := filepath.Join(tmpDir, "process.bpmn")

		n, err := writeAtomic(filename, strings.NewReader("<definitions/>"), 0644)
		if err != nil {
			t.Fatalf("writeAtomic failed: %v", err)
		}
		if n != int64(len("<definitions/>")) {
			t.Errorf("expected %d bytes written, got %d", len("<definitions/>"), n)
		}

		got, err := os.ReadFile(filename)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		if string(got) != "<definitions/>" {
			t.Errorf("unexpected content %q", got)
		}
	})

	t.Run("Keeps Old Content When Reader Fails", func(t *testing.T) {
		tmpDir := t.TempDir()
		filename := filepath.Join(tmpDir, "keep.txt")
		if err := os.WriteFile(filename, []byte("original"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := writeAtomic(filename, iotest.ErrReader(errors.New("boom")), 0644)
		if err == nil {
			t.Fatal("expected error from failing reader")
		}

		got, _ := os.ReadFile(filename)
		if string(got) != "original" {
			t.Errorf("content changed to %q", got)
		}

		entries, _ := os.ReadDir(tmpDir)
		for _, e := range entries {
			if isTempFile(e.Name()) {
				t.Errorf("temp file %s left behind", e.Name())
			}
		}
	})

	t.Run("Fails if Directory Missing", func(t *testing.T) {
		tmpDir := t.TempDir()
		filename := filepath.Join(tmpDir, "missing_folder", "test.txt")

		if _, err := writeAtomic(filename, strings.NewReader("fail"), 0644); err == nil {
			t.Error("expected error when directory is missing, got nil")
		}
	})
}
