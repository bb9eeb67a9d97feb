package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/fileferry/ferry/internal/backend"
	"github.com/fileferry/ferry/internal/backend/drive"
	"github.com/fileferry/ferry/internal/backend/local"
	"github.com/fileferry/ferry/internal/backend/mega"
	"github.com/fileferry/ferry/internal/backend/s3"
	"github.com/fileferry/ferry/internal/boot"
	"github.com/fileferry/ferry/internal/config"
	"github.com/fileferry/ferry/internal/logger"
	"github.com/fileferry/ferry/internal/relay"
	"github.com/fileferry/ferry/internal/server"
	"github.com/fileferry/ferry/internal/staging"
	"github.com/fileferry/ferry/internal/telegram"
	"github.com/fileferry/ferry/internal/version"
)

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	return logger.Init(cfg.Log.Level, cfg.Log.Format)
}

func provideStagingDir(runtimeConfig *boot.RuntimeConfig) (*staging.Dir, error) {
	return staging.New(runtimeConfig.StagingDir)
}

func provideJanitor(log *slog.Logger, dir *staging.Dir, runtimeConfig *boot.RuntimeConfig) (*staging.Janitor, error) {
	return staging.NewJanitor(log, dir, runtimeConfig.JanitorInterval, runtimeConfig.StagingMaxAge)
}

func provideGateway(log *slog.Logger, cfg config.Config, runtimeConfig *boot.RuntimeConfig) (backend.Gateway, error) {
	switch cfg.Backend.Kind {
	case "local":
		return local.New(log, cfg.Backend.Local.Dir, runtimeConfig.PublicBaseURL), nil
	case "drive":
		return drive.New(log, drive.Config{
			Auth:            cfg.Backend.Drive.Auth,
			CredentialsFile: cfg.Backend.Drive.CredentialsFile,
			ClientID:        cfg.Backend.Drive.ClientID,
			ClientSecret:    cfg.Backend.Drive.ClientSecret,
			RefreshToken:    cfg.Backend.Drive.RefreshToken,
			FolderName:      cfg.Backend.Drive.FolderName,
		}), nil
	case "mega":
		return mega.New(log, mega.Config{
			Email:      cfg.Backend.Mega.Email,
			Password:   cfg.Backend.Mega.Password,
			FolderPath: cfg.Backend.Mega.FolderPath,
		}), nil
	case "s3":
		expiry, err := time.ParseDuration(cfg.Backend.S3.LinkExpiry)
		if err != nil {
			return nil, fmt.Errorf("invalid s3 link_expiry: %w", err)
		}
		return s3.New(log, s3.Config{
			Endpoint:   cfg.Backend.S3.Endpoint,
			Region:     cfg.Backend.S3.Region,
			Bucket:     cfg.Backend.S3.Bucket,
			AccessKey:  cfg.Backend.S3.AccessKey,
			SecretKey:  cfg.Backend.S3.SecretKey,
			LinkExpiry: expiry,
		}), nil
	default:
		return nil, fmt.Errorf("unknown backend kind %q", cfg.Backend.Kind)
	}
}

func provideBotAPI(runtimeConfig *boot.RuntimeConfig) (*tgbotapi.BotAPI, error) {
	return telegram.NewAPI(runtimeConfig.BotToken)
}

func providePipeline(log *slog.Logger, origin *telegram.Origin, dir *staging.Dir, runtimeConfig *boot.RuntimeConfig) *relay.Pipeline {
	return relay.NewPipeline(log, origin, dir, runtimeConfig.MaxFileBytes)
}

func provideRunner(log *slog.Logger, pipeline *relay.Pipeline, gw backend.Gateway, runtimeConfig *boot.RuntimeConfig) *relay.Runner {
	return relay.NewRunner(log, pipeline, gw, int64(runtimeConfig.MaxConcurrent))
}

func provideBot(log *slog.Logger, api *tgbotapi.BotAPI, runner *relay.Runner, dir *staging.Dir, runtimeConfig *boot.RuntimeConfig) *telegram.Bot {
	return telegram.NewBot(log, api, runner, dir, runtimeConfig.MaxFileBytes, runtimeConfig.PerChatPerMinute)
}

func provideFilesHandler(log *slog.Logger, cfg config.Config) *server.FilesHandler {
	return server.NewFilesHandler(log, cfg.Backend.Local.Dir)
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	RuntimeConfig  *boot.RuntimeConfig
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.RuntimeConfig.ServerAddr, params.ServerHandlers...)
}

func main() {
	fx.New(
		fx.Provide(
			provideConfig,
			boot.ProvideRuntimeConfig,
			provideLogger,

			provideStagingDir,
			provideJanitor,
			provideGateway,

			provideBotAPI,
			telegram.NewOrigin,
			providePipeline,
			provideRunner,
			provideBot,

			provideServerHandler(provideFilesHandler),
			provideServerHandler(server.NewStatusHandler),

			provideServer,
		),
		fx.Invoke(
			startGateway,
			startServer,
			startJanitor,
			registerRunnerDrain,
			startBot,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

// startGateway authenticates the storage backend. A failed init leaves the
// gateway unavailable rather than aborting the process; transfers are
// rejected until a restart while commands and the HTTP surface stay up.
func startGateway(lc fx.Lifecycle, gw backend.Gateway, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			initializer, ok := gw.(backend.Initializer)
			if !ok {
				return nil
			}
			if err := initializer.Init(ctx); err != nil {
				logger.Error("backend init failed",
					slog.String("backend", gw.Name()), slog.Any("error", err))
			}
			return nil
		},
	})
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	fmt.Printf("Starting Ferry %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil { // block until server is stopped
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown() // shutdown the application if the server fails to start
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}

func startJanitor(lc fx.Lifecycle, janitor *staging.Janitor) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			janitor.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			janitor.Stop()
			return nil
		},
	})
}

// registerRunnerDrain is appended after the server and before the bot so the
// reversed OnStop order is: stop intake, drain transfers, stop the janitor
// and HTTP surface.
func registerRunnerDrain(lc fx.Lifecycle, runner *relay.Runner) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return runner.Close(ctx)
		},
	})
}

func startBot(lc fx.Lifecycle, bot *telegram.Bot) {
	lc.Append(fx.Hook{
		OnStart: bot.Start,
		OnStop:  bot.Stop,
	})
}
