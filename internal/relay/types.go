// Package relay implements the file transfer pipeline: an inbound file
// descriptor is staged to a local temporary file, uploaded to the configured
// storage backend, and the staged copy is removed regardless of outcome.
package relay

import (
	"path"
	"strings"

	"github.com/fileferry/ferry/internal/backend"
)

// Category classifies the kind of inbound file.
type Category string

const (
	CategoryDocument Category = "document"
	CategoryPhoto    Category = "photo"
	CategoryVideo    Category = "video"
	CategoryAudio    Category = "audio"
	CategoryVoice    Category = "voice"
)

// SizeUnknown marks a descriptor whose origin did not report a byte count.
const SizeUnknown int64 = -1

// FileDescriptor describes one inbound file before transfer. SourceHandle is
// only valid for the lifetime of the originating update and is never persisted.
type FileDescriptor struct {
	SourceHandle string
	DisplayName  string
	DeclaredSize int64
	Category     Category
}

// TransferResult is the outcome of one successful transfer attempt.
// FinalByteLength is the size measured on disk after fetch, not the size the
// origin claimed.
type TransferResult struct {
	Locator         backend.Locator
	Backend         string
	FinalByteLength int64
}

// Extension returns the conventional file extension for the category, used
// when the origin provides no filename. Documents keep whatever extension
// their name carries, so the category itself has none.
func (c Category) Extension() string {
	switch c {
	case CategoryPhoto:
		return ".jpg"
	case CategoryVideo:
		return ".mp4"
	case CategoryAudio:
		return ".mp3"
	case CategoryVoice:
		return ".ogg"
	default:
		return ""
	}
}

// MimeHint derives the MIME type passed to the backend. Category decides for
// media kinds; documents fall back to the display name extension.
func (d FileDescriptor) MimeHint() string {
	switch d.Category {
	case CategoryPhoto:
		return "image/jpeg"
	case CategoryVideo:
		return "video/mp4"
	case CategoryAudio:
		return "audio/mpeg"
	case CategoryVoice:
		return "audio/ogg"
	}
	return MimeByExtension(path.Ext(d.DisplayName))
}

// MimeByExtension maps a file extension to a MIME type, falling back to
// application/octet-stream.
func MimeByExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}
