// Package middleware carries the per-request application context for the
// HTTP layer.
package middleware

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/lorebase/lorebase/pkg/ai"
	"github.com/lorebase/lorebase/pkg/gazetteer"
	"github.com/lorebase/lorebase/pkg/retrieval"
	"github.com/lorebase/lorebase/pkg/store/base"
)

// App bundles the long-lived service dependencies handed to routes.
type App struct {
	DBConn    *pgxpool.Pool
	Queue     *amqp091.Channel
	Storage   base.Storage
	Retriever *retrieval.Retriever
	Gazetteer *gazetteer.Provider
	AIClient  ai.LoreAIClient
}

// AppContext wraps the echo context with the application dependencies.
type AppContext struct {
	echo.Context
	App *App
}

// AppContextMiddleware injects the App into every request context.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{
				Context: c,
				App:     app,
			})
		}
	}
}
