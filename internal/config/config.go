// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath       = "config.toml"
	DefaultHTTPAddr         = ":8000"
	DefaultPublicBaseURL    = "http://localhost:8000"
	DefaultMaxFileMB        = 2000
	DefaultMaxConcurrent    = 4
	DefaultPerChatPerMinute = 3
	DefaultStagingDir       = "staging"
	DefaultJanitorInterval  = "30m"
	DefaultStagingMaxAge    = "24h"
	DefaultBackendKind      = "local"
	DefaultLocalDir         = "downloads"
	DefaultDriveAuth        = "service_account"
	DefaultDriveFolder      = "TelegramFiles"
	DefaultS3Region         = "us-east-1"
	DefaultS3LinkExpiry     = "24h"
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Bot     BotConfig     `toml:"bot"`
	Staging StagingConfig `toml:"staging"`
	Server  ServerConfig  `toml:"server"`
	Backend BackendConfig `toml:"backend"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// BotConfig holds the bot token and transfer limits.
type BotConfig struct {
	Token                  string `toml:"token"`
	MaxFileMB              int64  `toml:"max_file_mb"`
	MaxConcurrentTransfers int    `toml:"max_concurrent_transfers"`
	PerChatPerMinute       int    `toml:"per_chat_per_minute"`
}

// StagingConfig holds the staging directory and janitor schedule. Durations
// are Go duration strings (e.g. 30m, 24h).
type StagingConfig struct {
	Dir             string `toml:"dir"`
	JanitorInterval string `toml:"janitor_interval"`
	MaxAge          string `toml:"max_age"`
}

// ServerConfig holds the HTTP listen address and the base URL under which
// download links are published.
type ServerConfig struct {
	Addr          string `toml:"addr"`
	PublicBaseURL string `toml:"public_base_url"`
}

// BackendConfig selects the storage backend and carries per-provider settings.
type BackendConfig struct {
	Kind  string      `toml:"kind"`
	Local LocalConfig `toml:"local"`
	Drive DriveConfig `toml:"drive"`
	Mega  MegaConfig  `toml:"mega"`
	S3    S3Config    `toml:"s3"`
}

// LocalConfig holds the directory stored files are served from.
type LocalConfig struct {
	Dir string `toml:"dir"`
}

// DriveConfig holds Google Drive credentials. Auth is "service_account"
// (credentials_file points at the JSON key) or "oauth" (client id/secret plus
// a refresh token).
type DriveConfig struct {
	Auth            string `toml:"auth"`
	CredentialsFile string `toml:"credentials_file"`
	ClientID        string `toml:"client_id"`
	ClientSecret    string `toml:"client_secret"`
	RefreshToken    string `toml:"refresh_token"`
	FolderName      string `toml:"folder_name"`
}

// MegaConfig holds Mega account credentials and the destination folder path.
type MegaConfig struct {
	Email      string `toml:"email"`
	Password   string `toml:"password"`
	FolderPath string `toml:"folder_path"`
}

// S3Config holds object store connectivity. Endpoint is only needed for
// S3-compatible stores (MinIO and friends). LinkExpiry is a Go duration.
type S3Config struct {
	Region     string `toml:"region"`
	Bucket     string `toml:"bucket"`
	Endpoint   string `toml:"endpoint"`
	AccessKey  string `toml:"access_key"`
	SecretKey  string `toml:"secret_key"`
	LinkExpiry string `toml:"link_expiry"`
}

// Load reads and parses the TOML config file at path and applies default
// values for missing fields.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Bot: BotConfig{
			MaxFileMB:              DefaultMaxFileMB,
			MaxConcurrentTransfers: DefaultMaxConcurrent,
			PerChatPerMinute:       DefaultPerChatPerMinute,
		},
		Staging: StagingConfig{
			Dir:             DefaultStagingDir,
			JanitorInterval: DefaultJanitorInterval,
			MaxAge:          DefaultStagingMaxAge,
		},
		Server: ServerConfig{
			Addr:          DefaultHTTPAddr,
			PublicBaseURL: DefaultPublicBaseURL,
		},
		Backend: BackendConfig{
			Kind: DefaultBackendKind,
			Local: LocalConfig{
				Dir: DefaultLocalDir,
			},
			Drive: DriveConfig{
				Auth:       DefaultDriveAuth,
				FolderName: DefaultDriveFolder,
			},
			S3: S3Config{
				Region:     DefaultS3Region,
				LinkExpiry: DefaultS3LinkExpiry,
			},
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
