package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	_ "github.com/joho/godotenv/autoload"

	"docintake/internal/config"
	"docintake/internal/content"
	"docintake/internal/database"
	"docintake/internal/database/migration"
	"docintake/internal/extractor"
	"docintake/internal/otel"
	"docintake/internal/repository/postgres"
	"docintake/internal/storage"
	"docintake/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	loc := time.UTC

	shutdownTracing, err := otel.Init(ctx, loc, "docintake-worker")
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}
	contents := content.New(objStore, cfg.MaxContentBytes)

	ledgerRepo := postgres.NewLedgerPostgres(db)
	ex := extractor.NewHTTP(cfg.Extractor)

	server := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, asynq.Config{
		Concurrency: cfg.DispatchPool,
	})
	processor := worker.NewProcessor(ledgerRepo, contents, ex)
	mux := processor.Handler()

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	if err := server.Run(mux); err != nil {
		log.Printf("worker stopped: %v", err)
		os.Exit(1)
	}
}
