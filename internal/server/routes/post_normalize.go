package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lorebase/lorebase/internal/server/middleware"
	"github.com/lorebase/lorebase/pkg/gazetteer"
)

// NormalizeHandler rewrites entity mentions in free text to their
// canonical gazetteer spelling and reports the resolved spans.
func NormalizeHandler(c echo.Context) error {
	type normalizeBody struct {
		Text string `json:"text" validate:"required"`
	}

	type normalizeResponse struct {
		Message   string           `json:"message"`
		Corrected string           `json:"corrected,omitempty"`
		Spans     []gazetteer.Span `json:"spans,omitempty"`
	}

	data := new(normalizeBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, normalizeResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, normalizeResponse{
			Message: "Invalid request body",
		})
	}

	matcher := c.(*middleware.AppContext).App.Gazetteer.Matcher()

	return c.JSON(http.StatusOK, normalizeResponse{
		Message:   "OK",
		Corrected: matcher.Correct(data.Text, nil),
		Spans:     matcher.Extract(data.Text),
	})
}
