package routes

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lorebase/lorebase/internal/server/middleware"
)

// SuggestHandler returns gazetteer names ranked against a partial query.
func SuggestHandler(c echo.Context) error {
	type suggestResponse struct {
		Message     string   `json:"message"`
		Suggestions []string `json:"suggestions"`
	}

	query := c.QueryParam("q")
	if query == "" {
		return c.JSON(http.StatusBadRequest, suggestResponse{
			Message: "Missing query parameter q",
		})
	}

	limit := 10
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	index := c.(*middleware.AppContext).App.Gazetteer.Index()

	return c.JSON(http.StatusOK, suggestResponse{
		Message:     "OK",
		Suggestions: index.Suggest(query, limit),
	})
}
