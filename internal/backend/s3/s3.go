// Package s3 implements the Gateway on any S3-compatible object store,
// handing out presigned GET links.
package s3

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/fileferry/ferry/internal/backend"
	"github.com/fileferry/ferry/internal/staging"
)

// Config carries object store connectivity. Endpoint is optional; when set
// (MinIO and friends) path-style addressing is enabled.
type Config struct {
	Endpoint   string
	Region     string
	Bucket     string
	AccessKey  string
	SecretKey  string
	LinkExpiry time.Duration
}

// Gateway uploads staged files as bucket objects and returns presigned GET
// URLs that expire after Config.LinkExpiry.
type Gateway struct {
	backend.Lifecycle

	cfg     Config
	client  *awss3.Client
	presign *awss3.PresignClient
	logger  *slog.Logger
}

// New creates an uninitialized S3 gateway.
func New(log *slog.Logger, cfg Config) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	if cfg.LinkExpiry <= 0 {
		cfg.LinkExpiry = 24 * time.Hour
	}
	return &Gateway{
		cfg:    cfg,
		logger: log.With(slog.String("backend", "s3")),
	}
}

// Name implements backend.Gateway.
func (g *Gateway) Name() string {
	return "s3"
}

// Init builds the client and probes the bucket. A failed probe leaves the
// gateway unavailable until the process is restarted.
func (g *Gateway) Init(ctx context.Context) error {
	g.StartAuth()
	if g.cfg.Bucket == "" {
		g.SetUnavailable("bucket is required")
		return errors.New("s3: bucket is required")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(g.cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(g.cfg.AccessKey, g.cfg.SecretKey, ""),
		),
	)
	if err != nil {
		g.SetUnavailable(err.Error())
		return fmt.Errorf("s3: load config: %w", err)
	}

	g.client = awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		if g.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(g.cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	g.presign = awss3.NewPresignClient(g.client)

	if _, err := g.client.HeadBucket(ctx, &awss3.HeadBucketInput{
		Bucket: aws.String(g.cfg.Bucket),
	}); err != nil {
		g.SetUnavailable(err.Error())
		return fmt.Errorf("s3: head bucket %q: %w", g.cfg.Bucket, err)
	}

	g.SetReady()
	g.logger.Info("ready", slog.String("bucket", g.cfg.Bucket))
	return nil
}

// Store puts the file under a date-and-uuid-prefixed key and presigns a GET
// link for it.
func (g *Gateway) Store(ctx context.Context, localPath, displayName, mimeHint string) (backend.Locator, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return backend.Locator{}, fmt.Errorf("s3: open staged file: %w", err)
	}
	defer file.Close()

	key := fmt.Sprintf("%s/%s/%s",
		time.Now().UTC().Format("2006/01"), uuid.NewString(), staging.SafeName(displayName))

	if _, err := g.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(g.cfg.Bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(mimeHint),
	}); err != nil {
		return backend.Locator{}, fmt.Errorf("s3: put object: %w", err)
	}

	req, err := g.presign.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(g.cfg.Bucket),
		Key:    aws.String(key),
	}, awss3.WithPresignExpires(g.cfg.LinkExpiry))
	if err != nil {
		return backend.Locator{}, fmt.Errorf("s3: presign link: %w", err)
	}

	return backend.Locator{ID: key, URLs: []string{req.URL}}, nil
}

// Describe implements backend.Gateway.
func (g *Gateway) Describe(_ context.Context) backend.Status {
	return backend.Status{
		Available: g.Ready(),
		Account:   g.cfg.Bucket,
	}
}
