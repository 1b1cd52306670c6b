package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

// lifecycle_events is append-only: rows are only ever inserted, with seq giving
// the per-document observation order. There is deliberately no foreign key from
// events to documents — rejected submissions record a terminal event without a
// document row.
var steps = []migrationStep{
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id           TEXT        PRIMARY KEY,
  content_hash TEXT        NOT NULL,
  channel      TEXT        NOT NULL,
  storage_ref  TEXT        NOT NULL,
  filename     TEXT        NOT NULL DEFAULT '',
  sender       TEXT        NOT NULL DEFAULT '',
  subject      TEXT        NOT NULL DEFAULT '',
  size         BIGINT      NOT NULL CHECK (size >= 0),
  received_at  TIMESTAMPTZ NOT NULL
);`,
	},
	{
		Name: "create_index_documents_content_hash",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_content_hash ON documents (content_hash);`,
	},
	{
		Name: "create_table_lifecycle_events",
		SQL: `CREATE TABLE IF NOT EXISTS lifecycle_events (
  seq         BIGSERIAL   PRIMARY KEY,
  document_id TEXT        NOT NULL,
  from_state  TEXT        NOT NULL,
  to_state    TEXT        NOT NULL,
  ts          TIMESTAMPTZ NOT NULL,
  agent       TEXT        NOT NULL,
  notes       TEXT        NOT NULL DEFAULT ''
);`,
	},
	{
		Name: "create_index_lifecycle_events_document",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_lifecycle_events_document ON lifecycle_events (document_id, seq);`,
	},
	{
		Name: "create_table_feedback",
		SQL: `CREATE TABLE IF NOT EXISTS feedback (
  id           BIGSERIAL   PRIMARY KEY,
  document_id  TEXT        NOT NULL,
  corrections  JSONB,
  comment      TEXT        NOT NULL DEFAULT '',
  submitted_at TIMESTAMPTZ NOT NULL
);`,
	},
	{
		Name: "create_index_feedback_document",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_feedback_document ON feedback (document_id);`,
	},
}

// EnsureMigrated checks if the 'documents' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.documents') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
