package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"leafscan/internal/config"
	"leafscan/internal/reconciler"
	"leafscan/internal/repository"
	"leafscan/internal/server"
	"leafscan/internal/vision_client"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err) // Should not happen in development
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	// Load configuration
	cfgPath := os.Getenv("LEAFSCAN_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Database connection
	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	repository.MigrateDB(db, logger)

	// Initialize vision service client (optional - the filename classifier
	// covers every upload when the service is disabled or unreachable)
	var visionClient *vision_client.Client
	if cfg.VisionService.Enabled {
		visionClient = vision_client.NewClient(cfg.VisionService.URL)
		logger.Info("Vision service enabled", zap.String("url", cfg.VisionService.URL))
	}

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run the vision reconciler in a goroutine (if enabled)
	if visionClient != nil {
		analysisRepo := repository.NewAnalysisRepository(db, logger)
		rec := reconciler.NewReconciler(visionClient, analysisRepo, logger,
			cfg.VisionService.PollInterval, cfg.VisionService.BatchSize)
		go rec.Run(ctx)
	}

	// Initialize and run the server
	srv := server.NewServer(db, cfg, logger, visionClient)
	srv.Run(cfg.Server.Port)

	<-ctx.Done()
	logger.Info("Application stopped.")
}
