// Command import loads a municipality file (csv or xlsx) into the registry.
// Diff recording is disabled for the run, matching bulk initialisation use.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"georegistry/internal/config"
	"georegistry/internal/db"
	"georegistry/internal/ingestion"
	"georegistry/internal/logger"
	"georegistry/internal/repository"
	"georegistry/internal/versioning"
	"georegistry/migrations"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("usage: %s [-config dir] <file.csv|file.xlsx>", filepath.Base(os.Args[0]))
	}
	fileName := flag.Arg(0)

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	appLogger := logger.New(cfg.Log.Level, cfg.Log.Format)

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	if err := db.RunMigrations(migrations.FS, cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	recordRepo := repository.NewRecordRepository(conn.Pool)
	snapshotRepo := repository.NewSnapshotRepository(conn.Pool)
	diffRepo := repository.NewDiffRepository(conn.Pool)
	redirectRepo := repository.NewRedirectRepository(conn)

	snapshots := versioning.NewSnapshots(snapshotRepo)
	redirects := versioning.NewRedirectIndex(redirectRepo, nil)
	diffs := versioning.NewDiffEngine(diffRepo, redirects, appLogger)
	controller := versioning.NewController(recordRepo, snapshots, diffs, appLogger,
		versioning.WithDiffingDisabled())
	service := ingestion.NewService(controller, recordRepo, appLogger)

	file, err := os.Open(fileName)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", fileName, err)
	}
	defer file.Close()

	summary, err := service.ImportMunicipalities(ctx, ingestion.Request{
		FileName: fileName,
		Data:     file,
	})
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	appLogger.Info("import finished",
		"file", fileName,
		"rows", summary.TotalRows,
		"created", summary.Created,
		"updated", summary.Updated,
		"unchanged", summary.Unchanged,
		"invalid", summary.InvalidRows)
}
