package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lorebase/lorebase/internal/server/middleware"
	"github.com/lorebase/lorebase/pkg/ai"
)

// MetricsHandler reports accumulated AI usage metrics.
func MetricsHandler(c echo.Context) error {
	type metricsResponse struct {
		Message string          `json:"message"`
		Metrics ai.ModelMetrics `json:"metrics"`
	}

	app := c.(*middleware.AppContext).App

	return c.JSON(http.StatusOK, metricsResponse{
		Message: "OK",
		Metrics: app.AIClient.GetMetrics(),
	})
}
