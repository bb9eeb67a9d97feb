// Package drive implements the Gateway storing files on Google Drive. Both
// service-account and OAuth2 refresh-token credentials are supported; the
// destination folder is resolved lazily and memoized for the process
// lifetime.
package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/fileferry/ferry/internal/backend"
)

// Auth mode names accepted in configuration.
const (
	AuthServiceAccount = "service_account"
	AuthOAuth          = "oauth"
)

// Config carries Drive credentials and the destination folder name. With
// AuthServiceAccount only CredentialsFile is read; with AuthOAuth the client
// id/secret and a previously issued refresh token are used.
type Config struct {
	Auth            string
	CredentialsFile string
	ClientID        string
	ClientSecret    string
	RefreshToken    string
	FolderName      string
}

// Gateway uploads files to Google Drive and shares them with a public reader
// permission.
type Gateway struct {
	backend.Lifecycle

	cfg     Config
	svc     *drive.Service
	account string
	logger  *slog.Logger

	folderOnce sync.Once
	folderID   string
	folderErr  error
}

// New creates an uninitialized Drive gateway.
func New(log *slog.Logger, cfg Config) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		cfg:    cfg,
		logger: log.With(slog.String("backend", "drive")),
	}
}

// Name implements backend.Gateway.
func (g *Gateway) Name() string {
	return "drive"
}

// Init authenticates against Drive and probes the account identity. A failure
// leaves the gateway unavailable until the process is restarted.
func (g *Gateway) Init(ctx context.Context) error {
	g.StartAuth()
	client, err := g.httpClient(ctx)
	if err != nil {
		g.SetUnavailable(err.Error())
		return fmt.Errorf("drive: %w", err)
	}
	svc, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		g.SetUnavailable(err.Error())
		return fmt.Errorf("drive: create service: %w", err)
	}
	about, err := svc.About.Get().Fields("user(emailAddress)").Context(ctx).Do()
	if err != nil {
		g.SetUnavailable(err.Error())
		return fmt.Errorf("drive: probe account: %w", err)
	}
	g.svc = svc
	if about.User != nil {
		g.account = about.User.EmailAddress
	}
	g.SetReady()
	g.logger.Info("ready", slog.String("account", g.account))
	return nil
}

func (g *Gateway) httpClient(ctx context.Context) (*http.Client, error) {
	switch g.cfg.Auth {
	case AuthServiceAccount:
		data, err := os.ReadFile(g.cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		jwtConfig, err := google.JWTConfigFromJSON(data, drive.DriveScope)
		if err != nil {
			return nil, fmt.Errorf("parse service account credentials: %w", err)
		}
		return jwtConfig.Client(ctx), nil
	case AuthOAuth:
		if g.cfg.ClientID == "" || g.cfg.ClientSecret == "" || g.cfg.RefreshToken == "" {
			return nil, errors.New("oauth requires client_id, client_secret, refresh_token")
		}
		oauthConfig := &oauth2.Config{
			ClientID:     g.cfg.ClientID,
			ClientSecret: g.cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{drive.DriveScope},
		}
		token := &oauth2.Token{RefreshToken: g.cfg.RefreshToken}
		return oauthConfig.Client(ctx, token), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", g.cfg.Auth)
	}
}

// Store uploads the file and then grants anyone-with-the-link read access.
// Drive commits the upload before the permission call, so a permission
// failure can leave an orphaned private file; the orphan is logged and the
// store reported as failed.
func (g *Gateway) Store(ctx context.Context, localPath, displayName, mimeHint string) (backend.Locator, error) {
	folderID, err := g.ensureFolder(ctx)
	if err != nil {
		return backend.Locator{}, fmt.Errorf("drive: resolve folder: %w", err)
	}

	file, err := os.Open(localPath)
	if err != nil {
		return backend.Locator{}, fmt.Errorf("drive: open staged file: %w", err)
	}
	defer file.Close()

	meta := &drive.File{Name: displayName}
	if folderID != "" {
		meta.Parents = []string{folderID}
	}
	created, err := g.svc.Files.Create(meta).
		Media(file, googleapi.ContentType(mimeHint)).
		Fields("id, webViewLink, webContentLink").
		Context(ctx).
		Do()
	if err != nil {
		return backend.Locator{}, fmt.Errorf("drive: upload: %w", err)
	}

	permission := &drive.Permission{Type: "anyone", Role: "reader"}
	if _, err := g.svc.Permissions.Create(created.Id, permission).Context(ctx).Do(); err != nil {
		g.logger.Warn("share failed, uploaded file stays private",
			slog.String("file_id", created.Id), slog.Any("error", err))
		return backend.Locator{}, fmt.Errorf("drive: share: %w", err)
	}

	urls := make([]string, 0, 2)
	if created.WebContentLink != "" {
		urls = append(urls, created.WebContentLink)
	}
	if created.WebViewLink != "" {
		urls = append(urls, created.WebViewLink)
	}
	if len(urls) == 0 {
		urls = append(urls, "https://drive.google.com/uc?id="+created.Id+"&export=download")
	}
	return backend.Locator{ID: created.Id, URLs: urls}, nil
}

// ensureFolder resolves the configured folder name to an ID once, creating
// the folder when it does not exist. An empty folder name stores into the
// Drive root.
func (g *Gateway) ensureFolder(ctx context.Context) (string, error) {
	g.folderOnce.Do(func() {
		g.folderID, g.folderErr = g.resolveFolder(ctx)
	})
	return g.folderID, g.folderErr
}

func (g *Gateway) resolveFolder(ctx context.Context) (string, error) {
	name := strings.TrimSpace(g.cfg.FolderName)
	if name == "" {
		return "", nil
	}
	escaped := strings.ReplaceAll(name, `'`, `\'`)
	query := fmt.Sprintf("mimeType='application/vnd.google-apps.folder' and name='%s' and trashed=false", escaped)
	list, err := g.svc.Files.List().Q(query).Fields("files(id)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("list folders: %w", err)
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}
	created, err := g.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: "application/vnd.google-apps.folder",
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}
	g.logger.Info("created folder", slog.String("name", name), slog.String("id", created.Id))
	return created.Id, nil
}

// Describe implements backend.Gateway.
func (g *Gateway) Describe(_ context.Context) backend.Status {
	return backend.Status{
		Available: g.Ready(),
		Account:   g.account,
	}
}
