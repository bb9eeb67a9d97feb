package server

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fileferry/ferry/internal/relay"
)

// FilesHandler serves stored files from the local backend directory, with
// single-range request support so download managers can resume.
type FilesHandler struct {
	dir    string
	logger *slog.Logger
}

// NewFilesHandler creates a handler serving files from dir.
func NewFilesHandler(log *slog.Logger, dir string) *FilesHandler {
	if log == nil {
		log = slog.Default()
	}
	return &FilesHandler{
		dir:    dir,
		logger: log.With(slog.String("handler", "files")),
	}
}

// Register mounts GET /download/:filename on the Echo instance.
func (h *FilesHandler) Register(e *echo.Echo) {
	e.GET("/download/:filename", h.Download)
}

// Download streams the named file. A valid Range header yields 206 with the
// requested span; an unsatisfiable one yields 416.
func (h *FilesHandler) Download(c echo.Context) error {
	name, err := url.PathUnescape(c.Param("filename"))
	if err != nil || name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return c.String(http.StatusBadRequest, "invalid filename")
	}

	path := filepath.Join(h.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return c.String(http.StatusNotFound, "file not found")
	}
	total := info.Size()

	header := c.Response().Header()
	header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	header.Set("Accept-Ranges", "bytes")
	header.Set("Cache-Control", "no-cache")
	contentType := relay.MimeByExtension(filepath.Ext(name))

	rangeHeader := c.Request().Header.Get("Range")
	if rangeHeader == "" {
		file, err := os.Open(path)
		if err != nil {
			return c.String(http.StatusInternalServerError, "open failed")
		}
		defer file.Close()
		header.Set(echo.HeaderContentLength, strconv.FormatInt(total, 10))
		return c.Stream(http.StatusOK, contentType, file)
	}

	start, end, ok := parseRange(rangeHeader, total)
	if !ok {
		header.Set("Content-Range", fmt.Sprintf("bytes */%d", total))
		return c.NoContent(http.StatusRequestedRangeNotSatisfiable)
	}

	file, err := os.Open(path)
	if err != nil {
		return c.String(http.StatusInternalServerError, "open failed")
	}
	defer file.Close()
	if _, err := file.Seek(start, io.SeekStart); err != nil {
		return c.String(http.StatusInternalServerError, "seek failed")
	}

	span := end - start + 1
	header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, total))
	header.Set(echo.HeaderContentLength, strconv.FormatInt(span, 10))
	return c.Stream(http.StatusPartialContent, contentType, io.LimitReader(file, span))
}

// parseRange interprets a single bytes range against the file size. A blank
// end means through end of file; a blank start means a suffix of end bytes.
// Malformed and unsatisfiable ranges return ok=false.
func parseRange(header string, total int64) (start, end int64, ok bool) {
	ranges, found := strings.CutPrefix(header, "bytes=")
	if !found || strings.Contains(ranges, ",") {
		return 0, 0, false
	}
	startStr, endStr, found := strings.Cut(ranges, "-")
	if !found {
		return 0, 0, false
	}
	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	if startStr == "" {
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 || total == 0 {
			return 0, 0, false
		}
		if n > total {
			n = total
		}
		return total - n, total - 1, true
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 || start >= total {
		return 0, 0, false
	}
	end = total - 1
	if endStr != "" {
		v, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || v < start {
			return 0, 0, false
		}
		if v < end {
			end = v
		}
	}
	return start, end, true
}
