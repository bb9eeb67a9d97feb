// Package mega implements the Gateway storing files on Mega.nz through the
// real client protocol (login, node tree walk, upload, public export).
package mega

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	megaclient "github.com/t3rm1n4l/go-mega"

	"github.com/fileferry/ferry/internal/backend"
)

// Config carries Mega account credentials and the destination folder path
// (slash-separated, created when missing).
type Config struct {
	Email      string
	Password   string
	FolderPath string
}

// Gateway uploads staged files to a Mega folder and exports public links.
// The Mega session carries sequenced protocol state, so Store calls are
// serialized internally; callers never see that constraint.
type Gateway struct {
	backend.Lifecycle

	cfg    Config
	client *megaclient.Mega
	logger *slog.Logger

	mu sync.Mutex

	folderOnce sync.Once
	folder     *megaclient.Node
	folderErr  error
}

// New creates an uninitialized Mega gateway.
func New(log *slog.Logger, cfg Config) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		cfg:    cfg,
		logger: log.With(slog.String("backend", "mega")),
	}
}

// Name implements backend.Gateway.
func (g *Gateway) Name() string {
	return "mega"
}

// Init logs into the Mega account. A failed login leaves the gateway
// unavailable until the process is restarted.
func (g *Gateway) Init(_ context.Context) error {
	g.StartAuth()
	if g.cfg.Email == "" || g.cfg.Password == "" {
		g.SetUnavailable("email and password are required")
		return errors.New("mega: email and password are required")
	}
	client := megaclient.New()
	if err := client.Login(g.cfg.Email, g.cfg.Password); err != nil {
		g.SetUnavailable(err.Error())
		return fmt.Errorf("mega: login: %w", err)
	}
	g.client = client
	g.SetReady()
	g.logger.Info("ready", slog.String("account", g.cfg.Email))
	return nil
}

// Store uploads the file into the configured folder and exports a public
// link. Upload commits before the export call, so an export failure can
// leave an unshared file behind; the store is reported as failed either way.
func (g *Gateway) Store(ctx context.Context, localPath, displayName, _ string) (backend.Locator, error) {
	if err := ctx.Err(); err != nil {
		return backend.Locator{}, err
	}
	folder, err := g.ensureFolder()
	if err != nil {
		return backend.Locator{}, fmt.Errorf("mega: resolve folder: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	node, err := g.client.UploadFile(localPath, folder, displayName, nil)
	if err != nil {
		return backend.Locator{}, fmt.Errorf("mega: upload: %w", err)
	}
	link, err := g.client.Link(node, true)
	if err != nil {
		g.logger.Warn("export failed, uploaded file stays private",
			slog.String("name", displayName), slog.Any("error", err))
		return backend.Locator{}, fmt.Errorf("mega: export link: %w", err)
	}
	return backend.Locator{ID: node.GetHash(), URLs: []string{link}}, nil
}

// ensureFolder resolves the configured folder path once, creating missing
// components. An empty path stores into the cloud drive root.
func (g *Gateway) ensureFolder() (*megaclient.Node, error) {
	g.folderOnce.Do(func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.folder, g.folderErr = g.resolveFolder()
	})
	return g.folder, g.folderErr
}

func (g *Gateway) resolveFolder() (*megaclient.Node, error) {
	root := g.client.FS.GetRoot()
	path := strings.Trim(strings.TrimSpace(g.cfg.FolderPath), "/")
	if path == "" {
		return root, nil
	}
	current := root
	for _, part := range strings.Split(path, "/") {
		child, err := g.findFolder(current, part)
		if err != nil {
			return nil, err
		}
		if child == nil {
			child, err = g.client.CreateDir(part, current)
			if err != nil {
				return nil, fmt.Errorf("create folder %q: %w", part, err)
			}
			g.logger.Info("created folder", slog.String("name", part))
		}
		current = child
	}
	return current, nil
}

func (g *Gateway) findFolder(parent *megaclient.Node, name string) (*megaclient.Node, error) {
	children, err := g.client.FS.GetChildren(parent)
	if err != nil {
		return nil, fmt.Errorf("list folder: %w", err)
	}
	for _, child := range children {
		if child.GetType() == megaclient.FOLDER && child.GetName() == name {
			return child, nil
		}
	}
	return nil, nil
}

// Describe implements backend.Gateway.
func (g *Gateway) Describe(_ context.Context) backend.Status {
	return backend.Status{
		Available: g.Ready(),
		Account:   g.cfg.Email,
	}
}
