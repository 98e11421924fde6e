package server

import (
	"github.com/labstack/echo/v4"

	"github.com/lorebase/lorebase/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Query routes
	apiRoutes.POST("/query", routes.QueryHandler)

	// Gazetteer routes
	apiRoutes.POST("/normalize", routes.NormalizeHandler)
	apiRoutes.GET("/gazetteer/suggest", routes.SuggestHandler)
	apiRoutes.POST("/gazetteer/rebuild", routes.RebuildGazetteerHandler)
	apiRoutes.POST("/gazetteer/reload", routes.ReloadGazetteerHandler)

	// Ingestion routes
	apiRoutes.POST("/articles", routes.IngestArticlesHandler)

	// Metrics
	apiRoutes.GET("/metrics", routes.MetricsHandler)
}
