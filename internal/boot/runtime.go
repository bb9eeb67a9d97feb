// Package boot provides runtime configuration parsing for the bot process.
package boot

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fileferry/ferry/internal/config"
)

// RuntimeConfig holds parsed runtime settings (token, limits, addresses).
// Values may be overridden by environment variables (BOT_TOKEN, HTTP_ADDR,
// PUBLIC_BASE_URL).
type RuntimeConfig struct {
	BotToken         string
	MaxFileBytes     int64
	MaxConcurrent    int
	PerChatPerMinute int
	ServerAddr       string
	PublicBaseURL    string
	StagingDir       string
	JanitorInterval  time.Duration
	StagingMaxAge    time.Duration
}

// ProvideRuntimeConfig builds RuntimeConfig from the given config and applies
// env overrides.
func ProvideRuntimeConfig(cfg config.Config) (*RuntimeConfig, error) {
	token := cfg.Bot.Token
	if value := os.Getenv("BOT_TOKEN"); value != "" {
		token = value
	}
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("bot token is required")
	}

	if cfg.Bot.MaxFileMB <= 0 {
		return nil, fmt.Errorf("invalid max_file_mb: %d", cfg.Bot.MaxFileMB)
	}
	maxConcurrent := cfg.Bot.MaxConcurrentTransfers
	if maxConcurrent <= 0 {
		maxConcurrent = config.DefaultMaxConcurrent
	}

	janitorInterval, err := time.ParseDuration(cfg.Staging.JanitorInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid janitor_interval: %w", err)
	}
	stagingMaxAge, err := time.ParseDuration(cfg.Staging.MaxAge)
	if err != nil {
		return nil, fmt.Errorf("invalid staging max_age: %w", err)
	}

	ret := &RuntimeConfig{
		BotToken:         token,
		MaxFileBytes:     cfg.Bot.MaxFileMB * 1024 * 1024,
		MaxConcurrent:    maxConcurrent,
		PerChatPerMinute: cfg.Bot.PerChatPerMinute,
		ServerAddr:       cfg.Server.Addr,
		PublicBaseURL:    strings.TrimRight(cfg.Server.PublicBaseURL, "/"),
		StagingDir:       cfg.Staging.Dir,
		JanitorInterval:  janitorInterval,
		StagingMaxAge:    stagingMaxAge,
	}

	if value := os.Getenv("HTTP_ADDR"); value != "" {
		ret.ServerAddr = value
	}
	if value := os.Getenv("PUBLIC_BASE_URL"); value != "" {
		ret.PublicBaseURL = strings.TrimRight(value, "/")
	}
	return ret, nil
}
