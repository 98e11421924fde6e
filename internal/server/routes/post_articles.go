package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lorebase/lorebase/internal/queue"
	"github.com/lorebase/lorebase/internal/server/middleware"
	"github.com/lorebase/lorebase/pkg/common"
	"github.com/lorebase/lorebase/pkg/logger"
)

// IngestArticlesHandler queues a batch of articles for chunking and
// embedding.
func IngestArticlesHandler(c echo.Context) error {
	type ingestBody struct {
		Articles         []common.Article `json:"articles" validate:"required,min=1,dive"`
		RebuildGazetteer bool             `json:"rebuild_gazetteer"`
	}

	type ingestResponse struct {
		Message string `json:"message"`
		Queued  int    `json:"queued,omitempty"`
	}

	data := new(ingestBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, ingestResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, ingestResponse{
			Message: "Invalid request body",
		})
	}

	msg := queue.IngestMsg{
		Message:          "Ingest articles",
		Articles:         data.Articles,
		RebuildGazetteer: data.RebuildGazetteer,
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		logger.Error("Failed to marshal ingest message", "err", err)
		return c.JSON(http.StatusInternalServerError, ingestResponse{
			Message: "Internal server error",
		})
	}

	app := c.(*middleware.AppContext).App
	if err := queue.PublishFIFO(app.Queue, queue.IngestQueue, msgBytes); err != nil {
		logger.Error("Failed to queue article batch", "err", err)
		return c.JSON(http.StatusInternalServerError, ingestResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, ingestResponse{
		Message: "Queued",
		Queued:  len(data.Articles),
	})
}
