package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/address-dedupe/app/bootstrap"
	"github.com/address-dedupe/app/config"
	"github.com/address-dedupe/app/controllers"
	"github.com/address-dedupe/routes"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	if err := bootstrap.LoadConfig(); err != nil {
		log.Fatal("Cannot load dedupe config:", err)
	}

	logger := bootstrap.InitLogger()
	defer logger.Sync()

	logger.Info("Starting Address Dedupe API...")

	app, err := bootstrap.Build(context.Background(), config.C, logger)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer app.Close()

	dedupeController := controllers.NewDedupeController(app.Dedupe, logger)
	adminController := controllers.NewAdminController(app.Admin, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	routes.SetupAllRoutes(router, dedupeController, adminController)

	srv := &http.Server{
		Addr:    ":" + viper.GetString("app.port"),
		Handler: router,
	}
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}
