package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wilhelmsk/core/internal/adapters/delta"
	"github.com/wilhelmsk/core/internal/application/services"
	"github.com/wilhelmsk/core/internal/infrastructure/logger"
)

// MetadataHandler serves the read-only path and metadata routes
type MetadataHandler struct {
	metadataService *services.MetadataService
	logger          *logger.Logger
}

// NewMetadataHandler creates a new metadata handler
func NewMetadataHandler(metadataService *services.MetadataService, logger *logger.Logger) *MetadataHandler {
	return &MetadataHandler{
		metadataService: metadataService,
		logger:          logger,
	}
}

func (h *MetadataHandler) Switches(c echo.Context) error {
	return c.JSON(http.StatusOK, h.metadataService.Switches())
}

func (h *MetadataHandler) MultiSwitches(c echo.Context) error {
	return c.JSON(http.StatusOK, h.metadataService.MultiSwitches())
}

func (h *MetadataHandler) PutPaths(c echo.Context) error {
	return c.JSON(http.StatusOK, h.metadataService.PutPaths())
}

func (h *MetadataHandler) AllPaths(c echo.Context) error {
	return c.JSON(http.StatusOK, h.metadataService.AllPaths())
}

func (h *MetadataHandler) Paths(c echo.Context) error {
	return c.JSON(http.StatusOK, h.metadataService.Paths())
}

// Meta returns the metadata of the dotted path in the route
func (h *MetadataHandler) Meta(c echo.Context) error {
	meta, err := h.metadataService.Meta(c.Param("path"))
	if err != nil {
		return errorResponse(h.logger, c, err)
	}
	return c.JSON(http.StatusOK, meta)
}

// StreamHandler upgrades to a websocket carrying every published delta
type StreamHandler struct {
	stream *delta.Stream
	logger *logger.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(stream *delta.Stream, logger *logger.Logger) *StreamHandler {
	return &StreamHandler{stream: stream, logger: logger}
}

func (h *StreamHandler) Stream(c echo.Context) error {
	// The upgrader has already answered the client when Serve fails.
	if err := h.stream.Serve(c.Response(), c.Request()); err != nil {
		h.logger.Debugw("Stream upgrade failed", "error", err, "remote_ip", c.RealIP())
	}
	return nil
}
