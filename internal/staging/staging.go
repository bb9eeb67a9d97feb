// Package staging owns the local temporary files a transfer writes between
// fetch and upload. Every staged file belongs to exactly one transfer attempt
// and is removed when that attempt ends, whatever the outcome.
package staging

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrCapExceeded reports that an origin stream carried more bytes than the
// configured ceiling allows.
var ErrCapExceeded = errors.New("staged content exceeds size cap")

// maxAcquireAttempts bounds the collision retry loop. Same display name in
// the same second is the only way to collide, so a handful of retries is
// plenty.
const maxAcquireAttempts = 100

// Dir is a staging directory shared by concurrent transfers. Paths are unique
// per attempt, so transfers never contend on a file.
type Dir struct {
	root string
}

// New creates the staging directory if needed and returns it.
func New(root string) (*Dir, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("staging root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Dir{root: root}, nil
}

// Root returns the staging directory path.
func (d *Dir) Root() string {
	return d.root
}

// Acquire creates a uniquely named empty file for one transfer attempt. The
// name is derived from the current timestamp and a hash of the display name;
// exclusive creation catches the same-name-same-second case and retries with
// an attempt counter.
func (d *Dir) Acquire(displayName string) (*StagedFile, error) {
	name := SafeName(displayName)
	sum := md5.Sum([]byte(name))
	prefix := fmt.Sprintf("%d_%s", time.Now().Unix(), hex.EncodeToString(sum[:])[:8])
	for attempt := 0; attempt < maxAcquireAttempts; attempt++ {
		candidate := prefix + "_" + name
		if attempt > 0 {
			candidate = fmt.Sprintf("%s-%d_%s", prefix, attempt, name)
		}
		path := filepath.Join(d.root, candidate)
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create staging file: %w", err)
		}
		return &StagedFile{Path: path, file: file}, nil
	}
	return nil, fmt.Errorf("staging name collision for %q", name)
}

// Stats returns the number of staged files and their total size.
func (d *Dir) Stats() (int, int64, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return 0, 0, fmt.Errorf("read staging dir: %w", err)
	}
	count := 0
	var total int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		count++
		total += info.Size()
	}
	return count, total, nil
}

// SweepOlderThan removes staged files whose modification time is older than
// maxAge. Live transfers are orders of magnitude younger than any sane age,
// so the sweep only ever collects crash orphans.
func (d *Dir) SweepOlderThan(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return 0, fmt.Errorf("read staging dir: %w", err)
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(d.root, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// StagedFile is one transfer attempt's exclusively owned temporary file.
type StagedFile struct {
	Path       string
	ByteLength int64

	file *os.File
}

// Fill streams the origin bytes into the staged file, bounded by maxBytes,
// and records the actual on-disk size. The stat result, not the copy counter
// and never the origin's claim, is what ByteLength reports.
func (f *StagedFile) Fill(r io.Reader, maxBytes int64) error {
	if f.file == nil {
		return errors.New("staged file already filled")
	}
	limited := &io.LimitedReader{R: r, N: maxBytes + 1}
	written, err := io.Copy(f.file, limited)
	closeErr := f.file.Close()
	f.file = nil
	if err != nil {
		return fmt.Errorf("copy to staging file: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("close staging file: %w", closeErr)
	}
	if written > maxBytes {
		return fmt.Errorf("%w: max %d bytes", ErrCapExceeded, maxBytes)
	}
	info, err := os.Stat(f.Path)
	if err != nil {
		return fmt.Errorf("stat staging file: %w", err)
	}
	f.ByteLength = info.Size()
	return nil
}

// Release deletes the staged file. It is idempotent; an already removed file
// is a successful release.
func (f *StagedFile) Release() error {
	if f.file != nil {
		_ = f.file.Close()
		f.file = nil
	}
	err := os.Remove(f.Path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("remove staging file: %w", err)
}

// SafeName reduces a display name to a single path element safe to join under
// the staging root: path separators and control characters become
// underscores, and empty or dot-only names fall back to "file".
func SafeName(displayName string) string {
	name := strings.TrimSpace(displayName)
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.FromSlash(name))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20:
			return '_'
		case r == ':', r == '*', r == '?', r == '"', r == '<', r == '>', r == '|':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return "file"
	}
	return name
}
