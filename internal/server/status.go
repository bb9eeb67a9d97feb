package server

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fileferry/ferry/internal/backend"
	"github.com/fileferry/ferry/internal/staging"
	"github.com/fileferry/ferry/internal/version"
)

// StatusHandler serves liveness and a status snapshot of the gateway and the
// staging area.
type StatusHandler struct {
	gateway backend.Gateway
	staging *staging.Dir
	logger  *slog.Logger
}

// NewStatusHandler creates a status handler.
func NewStatusHandler(log *slog.Logger, gw backend.Gateway, dir *staging.Dir) *StatusHandler {
	if log == nil {
		log = slog.Default()
	}
	return &StatusHandler{
		gateway: gw,
		staging: dir,
		logger:  log.With(slog.String("handler", "status")),
	}
}

// Register mounts GET /healthz and GET /status on the Echo instance.
func (h *StatusHandler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/status", h.Status)
}

// Health returns 200 JSON {"status":"ok"}.
func (h *StatusHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

type statusResponse struct {
	Backend     string `json:"backend"`
	Available   bool   `json:"available"`
	Account     string `json:"account,omitempty"`
	StagedFiles int    `json:"staged_files"`
	StagedBytes int64  `json:"staged_bytes"`
	Version     string `json:"version"`
}

// Status reports the backend name, its availability, and staging area usage.
func (h *StatusHandler) Status(c echo.Context) error {
	status := h.gateway.Describe(c.Request().Context())
	count, total, err := h.staging.Stats()
	if err != nil {
		h.logger.Warn("staging stats failed", slog.Any("error", err))
	}
	return c.JSON(http.StatusOK, statusResponse{
		Backend:     h.gateway.Name(),
		Available:   status.Available,
		Account:     status.Account,
		StagedFiles: count,
		StagedBytes: total,
		Version:     version.GetInfo(),
	})
}
