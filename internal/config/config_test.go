package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, int64(DefaultMaxFileMB), cfg.Bot.MaxFileMB)
	assert.Equal(t, DefaultMaxConcurrent, cfg.Bot.MaxConcurrentTransfers)
	assert.Equal(t, DefaultPerChatPerMinute, cfg.Bot.PerChatPerMinute)
	assert.Equal(t, DefaultStagingDir, cfg.Staging.Dir)
	assert.Equal(t, DefaultJanitorInterval, cfg.Staging.JanitorInterval)
	assert.Equal(t, DefaultHTTPAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultPublicBaseURL, cfg.Server.PublicBaseURL)
	assert.Equal(t, DefaultBackendKind, cfg.Backend.Kind)
	assert.Equal(t, DefaultLocalDir, cfg.Backend.Local.Dir)
	assert.Equal(t, DefaultDriveAuth, cfg.Backend.Drive.Auth)
	assert.Equal(t, DefaultS3Region, cfg.Backend.S3.Region)
	assert.Equal(t, DefaultS3LinkExpiry, cfg.Backend.S3.LinkExpiry)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[log]
level = "debug"
format = "json"

[bot]
token = "123:abc"
max_file_mb = 50
max_concurrent_transfers = 2

[staging]
dir = "/var/ferry/staging"
max_age = "1h"

[server]
addr = ":9000"
public_base_url = "https://files.example.com/"

[backend]
kind = "mega"

[backend.mega]
email = "user@example.com"
password = "secret"
folder_path = "bot/files"
`
	err := os.WriteFile(path, []byte(data), 0o644)
	assert.NoError(t, err)

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "123:abc", cfg.Bot.Token)
	assert.Equal(t, int64(50), cfg.Bot.MaxFileMB)
	assert.Equal(t, 2, cfg.Bot.MaxConcurrentTransfers)
	assert.Equal(t, "/var/ferry/staging", cfg.Staging.Dir)
	assert.Equal(t, "1h", cfg.Staging.MaxAge)
	assert.Equal(t, DefaultJanitorInterval, cfg.Staging.JanitorInterval)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "https://files.example.com/", cfg.Server.PublicBaseURL)
	assert.Equal(t, "mega", cfg.Backend.Kind)
	assert.Equal(t, "user@example.com", cfg.Backend.Mega.Email)
	assert.Equal(t, "secret", cfg.Backend.Mega.Password)
	assert.Equal(t, "bot/files", cfg.Backend.Mega.FolderPath)
	assert.Equal(t, DefaultLocalDir, cfg.Backend.Local.Dir)
}

func TestLoad_PartialSectionKeepsOtherDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[bot]
token = "123:abc"
`
	err := os.WriteFile(path, []byte(data), 0o644)
	assert.NoError(t, err)

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Bot.Token)
	assert.Equal(t, int64(DefaultMaxFileMB), cfg.Bot.MaxFileMB)
	assert.Equal(t, DefaultBackendKind, cfg.Backend.Kind)
}

func TestLoad_MalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	err := os.WriteFile(path, []byte("bot = {"), 0o644)
	assert.NoError(t, err)

	_, err = Load(path)
	assert.Error(t, err)
}
