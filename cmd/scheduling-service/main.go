package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/physiocare/clinic/internal/scheduling"
	"github.com/physiocare/clinic/pkg/config"
	"github.com/physiocare/clinic/pkg/database"
	"github.com/physiocare/clinic/pkg/interfaces"
	"github.com/physiocare/clinic/pkg/logger"
	"github.com/physiocare/clinic/pkg/monitoring"
	"github.com/physiocare/clinic/pkg/repository"
)

func main() {
	// A missing .env is fine outside local development
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	repo, health, closeStore, err := openStore(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatalf("Failed to open %s store: %v", cfg.Database.Driver, err)
	}
	defer closeStore()

	opts := []scheduling.Option{scheduling.WithHealthManager(health)}

	var tracing *monitoring.TracingManager
	if cfg.Monitoring.TracingEnabled {
		tracing, err = monitoring.NewTracingManager(context.Background(), &monitoring.TracingConfig{
			ServiceName:    cfg.Monitoring.ServiceName,
			ServiceVersion: "1.0.0",
			OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
			Environment:    os.Getenv("ENVIRONMENT"),
			SamplingRate:   cfg.Monitoring.SamplingRate,
		})
		if err != nil {
			logger.Fatalf("Failed to initialise tracing: %v", err)
		}
		opts = append(opts, scheduling.WithTracing(tracing))
	}

	// Initialize Scheduling Service
	service, err := scheduling.New(cfg, logger, repo, opts...)
	if err != nil {
		logger.Fatalf("Failed to create Scheduling Service: %v", err)
	}

	// Start service in a goroutine
	go func() {
		logger.Infof("Starting Scheduling Service on %s", cfg.Server.Addr())
		if err := service.Start(cfg.Server.Addr()); err != nil {
			logger.Fatalf("Failed to start Scheduling Service: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Scheduling Service...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := service.Stop(shutdownCtx); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
	if tracing != nil {
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Error flushing traces: %v", err)
		}
	}
	logger.Info("Scheduling Service stopped")
}

// openStore builds the configured repository and the health checks that watch it
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (interfaces.ClinicRepository, *monitoring.HealthManager, func(), error) {
	health := monitoring.NewHealthManager(cfg.Monitoring.ServiceName, "1.0.0")

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := database.NewConnection(ctx, &cfg.Database, log)
		if err != nil {
			return nil, nil, nil, err
		}
		if cfg.Database.CreateSchema {
			if err := db.CreateSchema(ctx); err != nil {
				db.Close()
				return nil, nil, nil, err
			}
		}

		repo := repository.NewPostgresRepository(db, log)
		if cfg.Clinic.SeedDemoData {
			if err := repository.Seed(ctx, repo); err != nil {
				log.WithError(err).Warn("Demo data not loaded, store already seeded")
			}
		}

		health.RegisterChecker("store", monitoring.NewStoreHealthChecker(repo, cfg.Database.Driver))
		health.RegisterChecker("database", monitoring.NewDatabaseHealthChecker(db.DB))
		return repo, health, func() { db.Close() }, nil

	default:
		repo := repository.NewMemoryRepository()
		if cfg.Clinic.SeedDemoData {
			if err := repository.Seed(ctx, repo); err != nil {
				return nil, nil, nil, err
			}
		}

		health.RegisterChecker("store", monitoring.NewStoreHealthChecker(repo, cfg.Database.Driver))
		return repo, health, func() {}, nil
	}
}
