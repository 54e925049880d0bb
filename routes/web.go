package routes

import (
	"net/http"

	"github.com/address-dedupe/app/controllers"
	"github.com/gin-gonic/gin"
)

// SetupWebRoutes serves the service index and a short endpoint listing.
func SetupWebRoutes(router *gin.Engine) {
	web := router.Group("/")
	{
		web.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message": "Address Dedupe Service",
				"version": controllers.Version,
				"docs":    "/docs",
			})
		})

		web.GET("/docs", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"api": "Address Dedupe API v1",
				"endpoints": map[string]string{
					"field":     "POST /v1/dedupe/field",
					"fuzzy":     "POST /v1/dedupe/fuzzy",
					"toponym":   "POST /v1/dedupe/toponym",
					"hashes":    "POST /v1/dedupe/hashes",
					"names":     "POST /v1/dedupe/names",
					"languages": "POST /v1/dedupe/languages",
					"expand":    "POST /v1/dedupe/expand",
					"parse":     "POST /v1/dedupe/parse",
					"batch":     "POST /v1/dedupe/batch",
					"jobs":      "POST /v1/dedupe/jobs, GET /v1/dedupe/jobs/:jobID",
					"blocks":    "GET /v1/dedupe/blocks/:key",
					"reviews":   "GET /v1/reviews, POST /v1/reviews/:id/approve|reject",
					"health":    "GET /v1/health",
				},
			})
		})
	}
}
