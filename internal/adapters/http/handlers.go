package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wilhelmsk/core/internal/domain/entities"
	"github.com/wilhelmsk/core/internal/infrastructure/logger"
)

// Status strings returned by the compatibility routes. Clients match on
// these, so they must not change.
const (
	MsgInvalidRequest = "Invalid Request"
	MsgNotFound       = "Not found"
	MsgGaugeSaved     = "Gauge Saved"
	MsgGaugeRemoved   = "Gauge Removed"
	MsgDefaultsSaved  = "Defaults Saved"
	MsgDefaultRemoved = "Default Removed"
)

// errorResponse maps a service error onto the status table shared by all
// routes. Anything that is not a client error is a 500 carrying the error
// text.
func errorResponse(log *logger.Logger, c echo.Context, err error) error {
	switch {
	case errors.Is(err, entities.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, MsgNotFound)
	case errors.Is(err, entities.ErrInvalidRequest):
		log.Debugw("Invalid request", "error", err, "path", c.Request().URL.Path)
		return echo.NewHTTPError(http.StatusBadRequest, MsgInvalidRequest)
	default:
		log.Errorw("Request failed", "error", err, "path", c.Request().URL.Path)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
}

// readBody returns the raw request body. The body limit middleware caps its
// size before it gets here.
func readBody(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Request/Response types
type GaugeTitleRequest struct {
	Title string `json:"title" validate:"required"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}
