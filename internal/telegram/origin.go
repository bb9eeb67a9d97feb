package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Origin fetches file bytes from the Bot API file servers. It resolves the
// short-lived direct URL for a file handle and streams the response body.
type Origin struct {
	api    *tgbotapi.BotAPI
	client *http.Client
	logger *slog.Logger
}

// NewOrigin creates an origin backed by the given bot session.
func NewOrigin(log *slog.Logger, api *tgbotapi.BotAPI) *Origin {
	if log == nil {
		log = slog.Default()
	}
	return &Origin{
		api: api,
		// No overall timeout: large files stream for minutes. Dial and
		// header latency are still bounded.
		client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 30 * time.Second,
			},
		},
		logger: log.With(slog.String("service", "origin")),
	}
}

// Open resolves the handle to a direct URL and starts the download. The
// returned body must be closed by the caller.
func (o *Origin) Open(ctx context.Context, sourceHandle string) (io.ReadCloser, error) {
	url, err := o.api.GetFileDirectURL(sourceHandle)
	if err != nil {
		return nil, fmt.Errorf("resolve file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	o.logger.Debug("fetching", slog.String("handle", sourceHandle))
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("download: unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}
