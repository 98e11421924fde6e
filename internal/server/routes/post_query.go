package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lorebase/lorebase/internal/server/middleware"
	"github.com/lorebase/lorebase/pkg/common"
	"github.com/lorebase/lorebase/pkg/logger"
)

// QueryHandler answers a lore question over the retrieved graph context.
func QueryHandler(c echo.Context) error {
	type queryBody struct {
		Query string `json:"query" validate:"required"`
	}

	type queryResponse struct {
		Message   string            `json:"message"`
		Answer    string            `json:"answer,omitempty"`
		Documents []common.Document `json:"documents,omitempty"`
	}

	data := new(queryBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	answer, docs, err := app.Retriever.Answer(ctx, data.Query)
	if err != nil {
		logger.Error("Failed to answer query", "err", err)
		return c.JSON(http.StatusInternalServerError, queryResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, queryResponse{
		Message:   "OK",
		Answer:    answer,
		Documents: docs,
	})
}
