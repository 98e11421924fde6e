// Package server hosts the HTTP API: querying, text normalization,
// gazetteer management and ingestion endpoints.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/lorebase/lorebase/internal/queue"
	mid "github.com/lorebase/lorebase/internal/server/middleware"
	"github.com/lorebase/lorebase/internal/util"
	"github.com/lorebase/lorebase/pkg/gazetteer"
	neo4jstore "github.com/lorebase/lorebase/pkg/graphstore/neo4j"
	"github.com/lorebase/lorebase/pkg/logger"
	"github.com/lorebase/lorebase/pkg/optimizer"
	"github.com/lorebase/lorebase/pkg/relevance"
	"github.com/lorebase/lorebase/pkg/retrieval"
	pgstore "github.com/lorebase/lorebase/pkg/store/pgx"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func runMigrations() {
	m, err := migrate.New("file://migrations", util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Failed to initialize migrations", "err", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("Failed to run migrations", "err", err)
	}
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runMigrations()

	conn, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()
	conn.Config().AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	graphClient, err := util.Retry(3, func() (*neo4jstore.Client, error) {
		return neo4jstore.NewClient(ctx, neo4jstore.NewClientParams{
			URI:      util.GetEnv("NEO4J_URI"),
			Username: util.GetEnv("NEO4J_USER"),
			Password: util.GetEnv("NEO4J_PASSWORD"),
		})
	})
	if err != nil {
		logger.Fatal("Failed to connect to graph database", "err", err)
	}
	defer graphClient.Close(ctx)

	aiClient := util.NewAIClientFromEnv()
	storage := pgstore.NewStoreWithConnection(conn, aiClient)

	provider := gazetteer.NewProvider(storage.GazetteerNames, gazetteer.DefaultCutoff)
	if err := provider.Reload(ctx); err != nil {
		logger.Warn("Gazetteer unavailable at startup, starting empty", "err", err)
	}

	retriever := retrieval.NewRetriever(retrieval.NewRetrieverParams{
		Store:     storage,
		Graph:     graphClient,
		Scorer:    relevance.NewScorer(relevance.NewScorerParams{Store: graphClient}),
		Optimizer: optimizer.NewOptimizer(optimizer.NewOptimizerParams{Engine: aiClient, Store: graphClient}),
		Engine:    aiClient,
		Gazetteer: provider,
	})

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	if err := queue.SetupQueues(ch, queue.Queues); err != nil {
		logger.Fatal("Failed to declare queues", "err", err)
	}

	app := &mid.App{
		DBConn:    conn,
		Queue:     ch,
		Storage:   storage,
		Retriever: retriever,
		Gazetteer: provider,
		AIClient:  aiClient,
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(echomw.CORS())
	e.Use(echomw.Recover())

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
