package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/hibiken/asynq"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"docintake/docs"
	"docintake/internal/config"
	"docintake/internal/content"
	"docintake/internal/database"
	"docintake/internal/database/migration"
	handlers "docintake/internal/http/handler"
	"docintake/internal/http/middleware"
	"docintake/internal/otel"
	"docintake/internal/queue"
	"docintake/internal/ratelimit"
	"docintake/internal/repository/postgres"
	"docintake/internal/service"
	"docintake/internal/storage"
)

// @title Document Intake API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.UTC

	shutdownTracing, err := otel.Init(context.Background(), loc, "docintake")
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(context.Background(), db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}
	contents := content.New(objStore, cfg.MaxContentBytes)

	docRepo := postgres.NewDocumentPostgres(db)
	ledgerRepo := postgres.NewLedgerPostgres(db)
	feedbackRepo := postgres.NewFeedbackPostgres(db)

	limiter := ratelimit.New(cfg.RateLimit.PerMinute, cfg.RateLimit.Enabled)
	stopPrune := make(chan struct{})
	go limiter.Run(stopPrune)
	defer close(stopPrune)

	queueClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer queueClient.Close()

	ingestSvc := service.NewIngestService(contents, docRepo, ledgerRepo, limiter, queue.NewClient(queueClient), cfg.APIKeys)
	statusSvc := service.NewStatusService(docRepo, ledgerRepo, feedbackRepo)

	app := fiber.New(fiber.Config{
		BodyLimit:    int(cfg.MaxContentBytes) + 1<<20, // request overhead on top of the content cap
		ErrorHandler: handlers.ErrorHandler(),
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())

	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	handlers.RegisterRoutes(app, db, objStore, contents, ingestSvc, statusSvc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
