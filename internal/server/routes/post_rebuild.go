package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lorebase/lorebase/internal/queue"
	"github.com/lorebase/lorebase/internal/server/middleware"
	"github.com/lorebase/lorebase/pkg/logger"
)

// RebuildGazetteerHandler queues a gazetteer rebuild with an explicit
// name list.
func RebuildGazetteerHandler(c echo.Context) error {
	type rebuildBody struct {
		Names []string `json:"names" validate:"required,min=1"`
	}

	type rebuildResponse struct {
		Message string `json:"message"`
	}

	data := new(rebuildBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, rebuildResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, rebuildResponse{
			Message: "Invalid request body",
		})
	}

	msg := queue.RebuildMsg{
		Message: "Rebuild requested",
		Names:   data.Names,
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		logger.Error("Failed to marshal rebuild message", "err", err)
		return c.JSON(http.StatusInternalServerError, rebuildResponse{
			Message: "Internal server error",
		})
	}

	app := c.(*middleware.AppContext).App
	if err := queue.PublishFIFO(app.Queue, queue.RebuildQueue, msgBytes); err != nil {
		logger.Error("Failed to queue rebuild", "err", err)
		return c.JSON(http.StatusInternalServerError, rebuildResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, rebuildResponse{
		Message: "Queued",
	})
}

// ReloadGazetteerHandler reloads the in-memory matcher from storage.
// Called after a rebuild has been processed by a worker.
func ReloadGazetteerHandler(c echo.Context) error {
	type reloadResponse struct {
		Message string `json:"message"`
		Names   int    `json:"names"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	if err := app.Gazetteer.Reload(ctx); err != nil {
		logger.Error("Failed to reload gazetteer", "err", err)
		return c.JSON(http.StatusInternalServerError, reloadResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, reloadResponse{
		Message: "OK",
		Names:   app.Gazetteer.Index().Len(),
	})
}
