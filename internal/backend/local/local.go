// Package local implements the Gateway that keeps files on this host, in a
// directory served by the ferry HTTP server.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fileferry/ferry/internal/backend"
)

// Gateway copies staged files into a served directory and links them through
// the public download endpoint.
type Gateway struct {
	backend.Lifecycle

	dir     string
	baseURL string
	logger  *slog.Logger
}

// New creates a local gateway storing under dir and building links on
// baseURL (e.g. http://localhost:8000).
func New(log *slog.Logger, dir, baseURL string) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  log.With(slog.String("backend", "local")),
	}
}

// Name implements backend.Gateway.
func (g *Gateway) Name() string {
	return "local"
}

// Dir returns the served directory.
func (g *Gateway) Dir() string {
	return g.dir
}

// Init creates the served directory. The local gateway has no credentials;
// a writable directory is all the authentication it needs.
func (g *Gateway) Init(_ context.Context) error {
	g.StartAuth()
	if strings.TrimSpace(g.dir) == "" {
		g.SetUnavailable("serve dir not configured")
		return errors.New("local: serve dir not configured")
	}
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		g.SetUnavailable(err.Error())
		return fmt.Errorf("local: create serve dir: %w", err)
	}
	g.SetReady()
	g.logger.Info("ready", slog.String("dir", g.dir))
	return nil
}

// Store copies the staged file into the served directory under the staged
// file's unique base name and returns the public download URL. A failed copy
// leaves nothing behind.
func (g *Gateway) Store(ctx context.Context, localPath, displayName, mimeHint string) (backend.Locator, error) {
	if err := ctx.Err(); err != nil {
		return backend.Locator{}, err
	}
	name := filepath.Base(localPath)
	dst := filepath.Join(g.dir, name)

	src, err := os.Open(localPath)
	if err != nil {
		return backend.Locator{}, fmt.Errorf("local: open staged file: %w", err)
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return backend.Locator{}, fmt.Errorf("local: destination %s already exists", name)
		}
		return backend.Locator{}, fmt.Errorf("local: create destination: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return backend.Locator{}, fmt.Errorf("local: copy: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return backend.Locator{}, fmt.Errorf("local: close destination: %w", err)
	}

	return backend.Locator{
		ID:   name,
		URLs: []string{g.baseURL + "/download/" + url.PathEscape(name)},
	}, nil
}

// Describe implements backend.Gateway.
func (g *Gateway) Describe(_ context.Context) backend.Status {
	return backend.Status{
		Available: g.Ready(),
		Account:   g.dir,
	}
}
