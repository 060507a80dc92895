package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wilhelmsk/core/internal/application/services"
	"github.com/wilhelmsk/core/internal/domain/docpath"
	"github.com/wilhelmsk/core/internal/infrastructure/logger"
)

// DefaultsHandler handles path-addressed default values. The path is the
// wildcard tail of the route with "/" separators, e.g.
// /save/vessels/self/tanks/0/level addresses vessels.self.tanks.0.level.
type DefaultsHandler struct {
	defaultsService *services.DefaultsService
	logger          *logger.Logger
}

// NewDefaultsHandler creates a new defaults handler
func NewDefaultsHandler(defaultsService *services.DefaultsService, logger *logger.Logger) *DefaultsHandler {
	return &DefaultsHandler{
		defaultsService: defaultsService,
		logger:          logger,
	}
}

func wildcardPath(c echo.Context) (string, error) {
	return docpath.Normalize(c.Param("*"), "/")
}

// GetDefault godoc
// @Summary Read a default value
// @Tags defaults
// @Produce json
// @Param path path string true "slash separated path"
// @Success 200 {object} interface{}
// @Failure 400 {string} string "Invalid Request"
// @Failure 404 {string} string "Not found"
// @Router /get/{path} [get]
func (h *DefaultsHandler) GetDefault(c echo.Context) error {
	path, err := wildcardPath(c)
	if err != nil {
		return errorResponse(h.logger, c, err)
	}

	value, err := h.defaultsService.GetDefault(c.Request().Context(), path)
	if err != nil {
		return errorResponse(h.logger, c, err)
	}

	return c.JSONBlob(http.StatusOK, value)
}

// SaveDefault godoc
// @Summary Store a default value
// @Description The body is any JSON value. Paths under vessels/self are also published as a delta.
// @Tags defaults
// @Accept json
// @Produce plain
// @Param path path string true "slash separated path"
// @Success 200 {string} string "Defaults Saved"
// @Failure 400 {string} string "Invalid Request"
// @Failure 500 {string} string
// @Router /save/{path} [post]
func (h *DefaultsHandler) SaveDefault(c echo.Context) error {
	path, err := wildcardPath(c)
	if err != nil {
		return errorResponse(h.logger, c, err)
	}

	body, err := readBody(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, MsgInvalidRequest)
	}

	if err := h.defaultsService.SaveDefault(c.Request().Context(), path, body); err != nil {
		return errorResponse(h.logger, c, err)
	}

	return c.String(http.StatusOK, MsgDefaultsSaved)
}

// DeleteDefault godoc
// @Summary Remove a default value
// @Description Paths under vessels/self publish a delta with a null value.
// @Tags defaults
// @Produce plain
// @Param path path string true "slash separated path"
// @Success 200 {string} string "Default Removed"
// @Failure 400 {string} string "Invalid Request"
// @Failure 404 {string} string "Not found"
// @Failure 500 {string} string
// @Router /delete/{path} [get]
func (h *DefaultsHandler) DeleteDefault(c echo.Context) error {
	path, err := wildcardPath(c)
	if err != nil {
		return errorResponse(h.logger, c, err)
	}

	if err := h.defaultsService.DeleteDefault(c.Request().Context(), path); err != nil {
		return errorResponse(h.logger, c, err)
	}

	return c.String(http.StatusOK, MsgDefaultRemoved)
}
