package controllers

import (
	"net/http"
	"os"
	"time"

	"github.com/address-dedupe/app/requests"
	"github.com/address-dedupe/app/responses"
	"github.com/address-dedupe/app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminController serves reference-data seeding, index management and stats.
type AdminController struct {
	adminService *services.AdminService
	logger       *zap.Logger
}

func NewAdminController(adminService *services.AdminService, logger *zap.Logger) *AdminController {
	return &AdminController{
		adminService: adminService,
		logger:       logger,
	}
}

// SeedRecords stores reference records and indexes them for name search.
// With ?dry_run=true the records are only validated.
func (ac *AdminController) SeedRecords(c *gin.Context) {
	var req requests.SeedRecordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if c.Query("dry_run") == "true" {
		validation := ac.adminService.ValidateRecords(req.Records)
		c.JSON(http.StatusOK, responses.SeedRecordsResponse{
			ValidationPassed: validation.Passed,
			Warnings:         validation.Warnings,
			DryRun:           true,
			Message:          "validation finished",
		})
		return
	}

	result, err := ac.adminService.SeedRecords(c.Request.Context(), req.Records, req.ConfigureIndex)
	if err != nil {
		ac.logger.Error("Record seed failed", zap.Error(err))
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.SeedRecordsResponse{
		ValidationPassed: true,
		Result:           result,
		Message:          "records seeded",
	})
}

// ConfigureIndex reapplies the search index settings.
func (ac *AdminController) ConfigureIndex(c *gin.Context) {
	startTime := time.Now()

	if err := ac.adminService.ConfigureIndex(); err != nil {
		ac.logger.Error("Index configuration failed", zap.Error(err))
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "index configured",
		Data: map[string]interface{}{
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// Search looks up indexed records by name.
func (ac *AdminController) Search(c *gin.Context) {
	var req requests.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	candidates, err := ac.adminService.SearchCandidates(req.Name, req.Postcode, req.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.SearchResponse{Candidates: candidates})
}

// ClearBlocks empties the blocking index.
func (ac *AdminController) ClearBlocks(c *gin.Context) {
	if err := ac.adminService.ClearBlocks(c.Request.Context()); err != nil {
		ac.logger.Error("Failed to clear blocks", zap.Error(err))
		abortWithError(c, err)
		return
	}

	ac.logger.Info("Blocking index cleared")
	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success:   true,
		Message:   "blocks cleared",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// GetStats reports uptime, memory and store counters.
func (ac *AdminController) GetStats(c *gin.Context) {
	stats, err := ac.adminService.GetSystemStats(c.Request.Context())
	if err != nil {
		ac.logger.Error("Failed to collect stats", zap.Error(err))
		abortWithError(c, err)
		return
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	c.JSON(http.StatusOK, responses.SystemStatsResponse{
		SystemStats: stats,
		Version:     Version,
		Environment: env,
	})
}
