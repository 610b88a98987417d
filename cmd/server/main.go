package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"

	"georegistry/internal/api"
	"georegistry/internal/changefeed"
	"georegistry/internal/config"
	"georegistry/internal/db"
	"georegistry/internal/export"
	"georegistry/internal/ingestion"
	"georegistry/internal/logger"
	"georegistry/internal/metrics"
	"georegistry/internal/repository"
	"georegistry/internal/versioning"
	"georegistry/migrations"
)

func main() {
	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	appLogger := logger.New(cfg.Log.Level, cfg.Log.Format)

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(migrations.FS, cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create repositories
	recordRepo := repository.NewRecordRepository(conn.Pool)
	snapshotRepo := repository.NewSnapshotRepository(conn.Pool)
	diffRepo := repository.NewDiffRepository(conn.Pool)
	redirectRepo := repository.NewRedirectRepository(conn)
	flagRepo := repository.NewFlagRepository(conn.Pool)
	sessionRepo := repository.NewSessionRepository(conn)

	// Create services
	registry := metrics.New(prometheus.DefaultRegisterer)
	publisher, err := changefeed.New(cfg.Redis.URL, cfg.Redis.Channel, appLogger)
	if err != nil {
		log.Fatalf("Failed to connect changefeed publisher: %v", err)
	}

	snapshots := versioning.NewSnapshots(snapshotRepo)
	redirects := versioning.NewRedirectIndex(redirectRepo, registry)
	diffOpts := []versioning.DiffOption{versioning.WithDiffMetrics(registry)}
	if publisher != nil {
		defer publisher.Close()
		diffOpts = append(diffOpts, versioning.WithPublisher(publisher))
	}
	diffs := versioning.NewDiffEngine(diffRepo, redirects, appLogger, diffOpts...)
	controller := versioning.NewController(recordRepo, snapshots, diffs, appLogger,
		versioning.WithMetrics(registry))
	flags := versioning.NewFlagRegistry(flagRepo, registry)
	resolver := versioning.NewResolver(recordRepo, redirects)

	// Bulk imports skip diff recording.
	importController := versioning.NewController(recordRepo, snapshots, diffs, appLogger,
		versioning.WithMetrics(registry), versioning.WithDiffingDisabled())
	importService := ingestion.NewService(importController, recordRepo, appLogger)
	exportService := export.NewService(snapshots)

	handlers := api.NewHandlers(controller, snapshots, diffs, flags, resolver, recordRepo)
	router := api.NewRouter(
		handlers,
		sessionRepo,
		export.NewHTTPHandler(exportService),
		ingestion.NewHTTPHandler(importService),
		appLogger,
	)

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		appLogger.Info("starting registry server", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	appLogger.Info("server exited")
}
