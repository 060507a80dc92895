package http

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wilhelmsk/core/internal/application/services"
	"github.com/wilhelmsk/core/internal/infrastructure/logger"
)

// GaugeHandler handles gauge requests
type GaugeHandler struct {
	gaugeService *services.GaugeService
	logger       *logger.Logger
}

// NewGaugeHandler creates a new gauge handler
func NewGaugeHandler(gaugeService *services.GaugeService, logger *logger.Logger) *GaugeHandler {
	return &GaugeHandler{
		gaugeService: gaugeService,
		logger:       logger,
	}
}

// GetGauges godoc
// @Summary List gauges
// @Description Returns every saved gauge keyed by title
// @Tags gauges
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {string} string
// @Router /get/gauges [get]
func (h *GaugeHandler) GetGauges(c echo.Context) error {
	gauges, err := h.gaugeService.ListGauges(c.Request().Context())
	if err != nil {
		return errorResponse(h.logger, c, err)
	}
	return c.JSON(http.StatusOK, gauges)
}

// SaveGauge godoc
// @Summary Save a gauge
// @Description Stores the posted record under its title, replacing any gauge with the same title
// @Tags gauges
// @Accept json
// @Produce plain
// @Success 200 {string} string "Gauge Saved"
// @Failure 400 {string} string "Invalid Request"
// @Failure 500 {string} string
// @Router /save/gauge [post]
func (h *GaugeHandler) SaveGauge(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, MsgInvalidRequest)
	}

	var req GaugeTitleRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, MsgInvalidRequest)
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, MsgInvalidRequest)
	}

	if _, err := h.gaugeService.SaveGauge(c.Request().Context(), body); err != nil {
		return errorResponse(h.logger, c, err)
	}

	return c.String(http.StatusOK, MsgGaugeSaved)
}

// DeleteGauge godoc
// @Summary Delete a gauge
// @Description Removes the gauge whose title is posted as {"title": ...}
// @Tags gauges
// @Accept json
// @Produce plain
// @Success 200 {string} string "Gauge Removed"
// @Failure 400 {string} string "Invalid Request"
// @Failure 404 {string} string "Not found"
// @Failure 500 {string} string
// @Router /delete/gauge [post]
func (h *GaugeHandler) DeleteGauge(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, MsgInvalidRequest)
	}

	var req GaugeTitleRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, MsgInvalidRequest)
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, MsgInvalidRequest)
	}

	if err := h.gaugeService.DeleteGauge(c.Request().Context(), req.Title); err != nil {
		return errorResponse(h.logger, c, err)
	}

	return c.String(http.StatusOK, MsgGaugeRemoved)
}
