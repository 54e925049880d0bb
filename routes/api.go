package routes

import (
	"net/http"

	"github.com/address-dedupe/app/controllers"
	"github.com/gin-gonic/gin"
)

// SetupAPIRoutes registers the /v1 endpoints.
func SetupAPIRoutes(router *gin.Engine, dedupeController *controllers.DedupeController, adminController *controllers.AdminController) {
	v1 := router.Group("/v1")
	{
		dedupe := v1.Group("/dedupe")
		{
			dedupe.POST("/field", dedupeController.ClassifyField)
			dedupe.POST("/fuzzy", dedupeController.ClassifyFuzzy)
			dedupe.POST("/toponym", dedupeController.ClassifyToponym)
			dedupe.POST("/hashes", dedupeController.Hashes)
			dedupe.POST("/names", dedupeController.Names)
			dedupe.POST("/languages", dedupeController.Languages)
			dedupe.POST("/expand", dedupeController.Expand)
			dedupe.POST("/parse", dedupeController.Parse)
			dedupe.POST("/batch", dedupeController.Batch)
			dedupe.POST("/jobs", dedupeController.SubmitJob)
			dedupe.GET("/jobs/:jobID", dedupeController.GetJob)
			// keys contain '|' and may contain '/'
			dedupe.GET("/blocks/*key", dedupeController.GetBlock)
		}

		reviews := v1.Group("/reviews")
		{
			reviews.GET("", dedupeController.ListReviews)
			reviews.POST("/:id/approve", dedupeController.ApproveReview)
			reviews.POST("/:id/reject", dedupeController.RejectReview)
		}

		admin := v1.Group("/admin")
		{
			admin.POST("/seed", adminController.SeedRecords)
			admin.POST("/index/configure", adminController.ConfigureIndex)
			admin.POST("/search", adminController.Search)
			admin.POST("/blocks/clear", adminController.ClearBlocks)
			admin.GET("/stats", adminController.GetStats)
		}

		v1.GET("/health", dedupeController.HealthCheck)
	}
}

// SetupHealthRoutes registers the probes.
func SetupHealthRoutes(router *gin.Engine, dedupeController *controllers.DedupeController) {
	router.GET("/health", dedupeController.HealthCheck)
	router.GET("/ready", dedupeController.HealthCheck)
	router.GET("/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive"})
	})
}

// SetupAllRoutes installs middleware and every route group.
func SetupAllRoutes(router *gin.Engine, dedupeController *controllers.DedupeController, adminController *controllers.AdminController) {
	setupMiddleware(router)

	SetupWebRoutes(router)
	SetupHealthRoutes(router, dedupeController)
	SetupAPIRoutes(router, dedupeController, adminController)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "Route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})
}

func setupMiddleware(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
}

