package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"docintake/internal/content"
	"docintake/internal/service"
	"docintake/internal/storage"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers stay
// thin; everything that touches state lives in the services.
func RegisterRoutes(app *fiber.App, db *sql.DB, store storage.Storage, contents *content.Store, ingest service.IngestService, status service.StatusService) {
	app.Get("/health", HealthCheck(db, store))
	app.Get("/healthz", LivenessProbe())

	app.Post("/documents", SubmitDocument(ingest, contents))
	app.Get("/status/:document_id", GetStatus(status))
	app.Post("/feedback/:document_id", SubmitFeedback(status))
}
