package handler

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"docintake/internal/content"
	"docintake/internal/model"
	"docintake/internal/service"
	"docintake/internal/storage"
)

// textSubmission is the JSON body for text-channel submissions.
type textSubmission struct {
	Text    string `json:"text"`
	Sender  string `json:"sender"`
	Subject string `json:"subject"`
}

// SubmitDocument handles document intake on both channels. Multipart requests
// carry a PDF in the "file" field; JSON requests carry free text.
//
// @Summary Submit a document for extraction
// @Accept multipart/form-data,json
// @Produce json
// @Success 202 {object} service.SubmitResult
// @Router /documents [post]
func SubmitDocument(svc service.IngestService, contents *content.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := service.SubmitRequest{
			ClientKey: c.IP(),
			APIKey:    c.Get("X-API-Key"),
		}

		contentType := c.Get(fiber.HeaderContentType)
		switch {
		case strings.HasPrefix(contentType, fiber.MIMEMultipartForm):
			fh, err := c.FormFile("file")
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
			}
			// Fail fast on the declared size before reading anything.
			if err := contents.CheckDeclaredSize(fh.Size); err != nil {
				return writeDomainError(c, err)
			}
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer f.Close()
			data, err := contents.ReadAll(f)
			if err != nil {
				if errors.Is(err, model.ErrTooLarge) {
					return writeDomainError(c, err)
				}
				return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "cannot read uploaded file")
			}
			req.Channel = model.ChannelUpload
			req.Filename = fh.Filename
			req.ContentType = fh.Header.Get("Content-Type")
			req.Data = data
			req.Sender = c.FormValue("sender")
			req.Subject = c.FormValue("subject")
		case strings.HasPrefix(contentType, fiber.MIMEApplicationJSON):
			var body textSubmission
			if err := c.BodyParser(&body); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
			}
			req.Channel = model.ChannelText
			req.ContentType = fiber.MIMETextPlain
			req.Data = []byte(body.Text)
			req.Sender = body.Sender
			req.Subject = body.Subject
		default:
			return writeError(c, fiber.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "expected multipart/form-data or application/json")
		}

		result, err := svc.Submit(c.UserContext(), req)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(result)
	}
}

// GetStatus returns the current state and full transition history of a document.
//
// @Summary Get document status and history
// @Produce json
// @Param document_id path string true "Document ID"
// @Success 200 {object} service.StatusResult
// @Router /status/{document_id} [get]
func GetStatus(svc service.StatusService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("document_id")
		result, err := svc.GetStatus(c.UserContext(), id)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(result)
	}
}

// SubmitFeedback records reviewer corrections against a completed document.
//
// @Summary Submit feedback for a completed document
// @Accept json
// @Produce json
// @Param document_id path string true "Document ID"
// @Success 200 {object} map[string]string
// @Router /feedback/{document_id} [post]
func SubmitFeedback(svc service.StatusService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("document_id")
		var req service.FeedbackRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		if err := svc.SubmitFeedback(c.UserContext(), id, req); err != nil {
			return writeDomainError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "flagged", "document_id": id})
	}
}

// HealthCheck reports readiness: the database and the content store backend
// must both answer.
//
// @Summary Readiness probe
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func HealthCheck(db *sql.DB, store storage.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "database unavailable")
		}
		if err := store.Health(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "object storage unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a bare liveness check.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
