package main

import (
	"context"
	"log"

	"github.com/address-dedupe/app/bootstrap"
	"github.com/address-dedupe/app/config"
	"github.com/address-dedupe/app/controllers"
	"github.com/address-dedupe/routes"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	if err := bootstrap.LoadConfig(); err != nil {
		log.Fatal("Cannot load dedupe config:", err)
	}

	// 2. Logger
	logger := bootstrap.InitLogger()
	defer logger.Sync()

	logger.Info("Starting Address Dedupe Service")

	// 3. Core, stores and search index
	app, err := bootstrap.Build(context.Background(), config.C, logger)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer app.Close()

	// 4. Controllers
	dedupeController := controllers.NewDedupeController(app.Dedupe, logger)
	adminController := controllers.NewAdminController(app.Admin, logger)

	// 5. Router
	if viper.GetString("app.env") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupAllRoutes(router, dedupeController, adminController)

	// 6. Serve
	port := viper.GetString("app.port")
	logger.Info("Address Dedupe Service starting", zap.String("port", port))

	if err := router.Run(":" + port); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
