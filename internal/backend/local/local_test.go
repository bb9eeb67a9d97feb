package local

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitCreatesDirAndReady(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "served")
	gw := New(discardLogger(), dir, "http://localhost:8000/")

	if gw.Describe(context.Background()).Available {
		t.Fatalf("available before init")
	}
	if err := gw.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("serve dir not created: %v", err)
	}
	status := gw.Describe(context.Background())
	if !status.Available {
		t.Fatalf("not available after init")
	}
	if status.Account != dir {
		t.Fatalf("account = %q, want serve dir", status.Account)
	}
}

func TestInitWithoutDirGoesUnavailable(t *testing.T) {
	t.Parallel()

	gw := New(discardLogger(), "  ", "http://localhost:8000")
	if err := gw.Init(context.Background()); err == nil {
		t.Fatalf("init accepted a blank dir")
	}
	if gw.Describe(context.Background()).Available {
		t.Fatalf("available after failed init")
	}
}

func TestStoreCopiesAndBuildsURL(t *testing.T) {
	t.Parallel()

	served := filepath.Join(t.TempDir(), "served")
	gw := New(discardLogger(), served, "http://files.example.com")
	if err := gw.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	staged := filepath.Join(t.TempDir(), "1712345678_abcd1234_my report.pdf")
	payload := []byte("pdf bytes")
	if err := os.WriteFile(staged, payload, 0o644); err != nil {
		t.Fatalf("write staged: %v", err)
	}

	locator, err := gw.Store(context.Background(), staged, "my report.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if locator.ID != "1712345678_abcd1234_my report.pdf" {
		t.Fatalf("locator id = %q", locator.ID)
	}
	if len(locator.URLs) != 1 {
		t.Fatalf("want exactly one URL, got %v", locator.URLs)
	}
	url := locator.URLs[0]
	if !strings.HasPrefix(url, "http://files.example.com/download/") {
		t.Fatalf("url = %q", url)
	}
	if strings.Contains(url, " ") {
		t.Fatalf("url not escaped: %q", url)
	}

	copied, err := os.ReadFile(filepath.Join(served, locator.ID))
	if err != nil {
		t.Fatalf("read served copy: %v", err)
	}
	if !bytes.Equal(copied, payload) {
		t.Fatalf("served copy differs from staged bytes")
	}
}

func TestStoreRejectsDuplicateName(t *testing.T) {
	t.Parallel()

	served := filepath.Join(t.TempDir(), "served")
	gw := New(discardLogger(), served, "http://localhost:8000")
	if err := gw.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	staged := filepath.Join(t.TempDir(), "dup.bin")
	if err := os.WriteFile(staged, []byte("x"), 0o644); err != nil {
		t.Fatalf("write staged: %v", err)
	}
	if _, err := gw.Store(context.Background(), staged, "dup.bin", ""); err != nil {
		t.Fatalf("first store: %v", err)
	}
	if _, err := gw.Store(context.Background(), staged, "dup.bin", ""); err == nil {
		t.Fatalf("second store with the same staged name succeeded")
	}
}

func TestStoreMissingStagedFile(t *testing.T) {
	t.Parallel()

	served := filepath.Join(t.TempDir(), "served")
	gw := New(discardLogger(), served, "http://localhost:8000")
	if err := gw.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := gw.Store(context.Background(), filepath.Join(served, "nope.bin"), "nope.bin", ""); err == nil {
		t.Fatalf("store of a missing staged file succeeded")
	}
}
