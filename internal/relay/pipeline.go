package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fileferry/ferry/internal/backend"
	"github.com/fileferry/ferry/internal/staging"
)

// Origin supplies the bytes behind a descriptor's source handle.
type Origin interface {
	Open(ctx context.Context, sourceHandle string) (io.ReadCloser, error)
}

// Pipeline runs one transfer attempt end to end: size gate, stage, fetch,
// verify, upload, release. It is the only component that converts failures
// into the transfer error kinds.
type Pipeline struct {
	origin   Origin
	staging  *staging.Dir
	maxBytes int64
	logger   *slog.Logger
}

// NewPipeline creates a pipeline fetching from origin, staging under dir, and
// refusing files larger than maxBytes.
func NewPipeline(log *slog.Logger, origin Origin, dir *staging.Dir, maxBytes int64) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		origin:   origin,
		staging:  dir,
		maxBytes: maxBytes,
		logger:   log.With(slog.String("service", "pipeline")),
	}
}

// MaxBytes returns the configured size ceiling.
func (p *Pipeline) MaxBytes() int64 {
	return p.maxBytes
}

// Transfer moves one file from the origin to the gateway. The staged copy is
// released on every exit path; a failed release is logged and never changes
// the reported outcome.
func (p *Pipeline) Transfer(ctx context.Context, desc FileDescriptor, gw backend.Gateway) (TransferResult, error) {
	log := p.logger.With(
		slog.String("transfer_id", uuid.NewString()),
		slog.String("file", desc.DisplayName),
		slog.String("category", string(desc.Category)),
		slog.String("backend", gw.Name()),
	)

	if desc.DeclaredSize > p.maxBytes {
		log.Warn("declared size over ceiling",
			slog.Int64("declared", desc.DeclaredSize),
			slog.Int64("ceiling", p.maxBytes))
		return TransferResult{}, fmt.Errorf("%w: declared %d bytes, ceiling %d",
			ErrFileTooLarge, desc.DeclaredSize, p.maxBytes)
	}

	if status := gw.Describe(ctx); !status.Available {
		log.Warn("backend not ready")
		return TransferResult{}, fmt.Errorf("%w: %s", ErrBackendUnavailable, gw.Name())
	}

	staged, err := p.staging.Acquire(desc.DisplayName)
	if err != nil {
		log.Warn("staging failed", slog.Any("error", err))
		return TransferResult{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer func() {
		if err := staged.Release(); err != nil {
			log.Warn("staging cleanup failed",
				slog.String("path", staged.Path), slog.Any("error", err))
		}
	}()

	source, err := p.origin.Open(ctx, desc.SourceHandle)
	if err != nil {
		log.Warn("fetch failed", slog.Any("error", err))
		return TransferResult{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	err = staged.Fill(source, p.maxBytes)
	_ = source.Close()
	if err != nil {
		if errors.Is(err, staging.ErrCapExceeded) {
			log.Warn("actual size over ceiling", slog.Int64("ceiling", p.maxBytes))
			return TransferResult{}, fmt.Errorf("%w: %v", ErrFileTooLarge, err)
		}
		log.Warn("fetch failed", slog.Any("error", err))
		return TransferResult{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	locator, err := gw.Store(ctx, staged.Path, desc.DisplayName, desc.MimeHint())
	if err != nil {
		log.Warn("upload failed", slog.Any("error", err))
		return TransferResult{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	log.Info("transfer complete",
		slog.Int64("bytes", staged.ByteLength),
		slog.String("locator", locator.ID))
	return TransferResult{
		Locator:         locator,
		Backend:         gw.Name(),
		FinalByteLength: staged.ByteLength,
	}, nil
}
