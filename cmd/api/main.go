package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ThiagoRGoveia/dock-operations/internal/config"
	"github.com/ThiagoRGoveia/dock-operations/internal/database"
	"github.com/ThiagoRGoveia/dock-operations/internal/logging"
	"github.com/ThiagoRGoveia/dock-operations/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warnf("could not load .env file: %v", err)
	}

	cfg, err := config.New()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.RequireDatabase(); err != nil {
		logrus.Fatal(err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := database.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to the database: %v", err)
	}
	defer dbpool.Close()

	dbManager := database.NewPostgresDBManager(dbpool, logger)
	if err := dbManager.CreateOperationsTable(ctx); err != nil {
		logger.Fatalf("Failed to setup database: %v", err)
	}

	router := server.SetupRoutes(server.NewOperationService(dbManager, cfg.DefaultSide, logger))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.APIPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Failed to shut down server")
		}
	}()

	logger.Infof("Server starting on port %s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("Failed to start server: %v", err)
	}
	logger.Info("Server stopped")
}
