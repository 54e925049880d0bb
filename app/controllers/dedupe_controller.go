package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/address-dedupe/app/config"
	"github.com/address-dedupe/app/requests"
	"github.com/address-dedupe/app/responses"
	"github.com/address-dedupe/app/services"
	"github.com/address-dedupe/internal/address"
	"github.com/address-dedupe/internal/dedupe"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Version is reported by the health and stats endpoints.
const Version = "1.0.0"

// DedupeController serves the classification, hashing and batch endpoints.
type DedupeController struct {
	dedupeService *services.DedupeService
	logger        *zap.Logger
}

func NewDedupeController(dedupeService *services.DedupeService, logger *zap.Logger) *DedupeController {
	return &DedupeController{
		dedupeService: dedupeService,
		logger:        logger,
	}
}

// ClassifyField compares two values of one field kind.
func (dc *DedupeController) ClassifyField(c *gin.Context) {
	var req requests.FieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	status, err := dc.dedupeService.ClassifyField(req.Value1, req.Value2, req.Kind, req.Languages)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.StatusResponse{Status: status})
}

// ClassifyFuzzy compares two weighted token lists.
func (dc *DedupeController) ClassifyFuzzy(c *gin.Context) {
	var req requests.FuzzyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	status, sim, err := dc.dedupeService.ClassifyFuzzy(req.Tokens1, req.Weights1, req.Tokens2, req.Weights2, req.Kind, req.Languages, req.Options)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.FuzzyResponse{Status: status, Similarity: sim})
}

// ClassifyToponym compares two toponym lists level by level.
func (dc *DedupeController) ClassifyToponym(c *gin.Context) {
	var req requests.ToponymRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	status, levels, err := dc.dedupeService.ClassifyToponym(req.Labels1, req.Values1, req.Labels2, req.Values2, req.Languages)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if levels == nil {
		levels = []dedupe.LevelVerdict{}
	}
	c.JSON(http.StatusOK, responses.ToponymResponse{Status: status, Levels: levels})
}

// Hashes returns the near-dupe keys of a labeled or raw address.
func (dc *DedupeController) Hashes(c *gin.Context) {
	var req requests.HashesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var resp responses.HashesResponse
	if len(req.Labels) == 0 && req.Address != "" {
		lang := ""
		if len(req.Languages) > 0 {
			lang = req.Languages[0]
		}
		components, keys, err := dc.dedupeService.ParseAndHash(req.Address, lang, req.Country, req.Geo, req.Options)
		if err != nil {
			abortWithError(c, err)
			return
		}
		resp = responses.HashesResponse{Keys: keys, Components: components}
	} else {
		keys, err := dc.dedupeService.Hashes(req.Labels, req.Values, req.Geo, req.Options, req.Languages)
		if err != nil {
			abortWithError(c, err)
			return
		}
		resp.Keys = keys
	}
	if resp.Keys == nil {
		resp.Keys = []string{}
	}
	c.JSON(http.StatusOK, resp)
}

// Names returns the normalized forms of a venue name.
func (dc *DedupeController) Names(c *gin.Context) {
	var req requests.NamesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	names := dc.dedupeService.Names(req.Name, req.Languages, nil)
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, responses.NamesResponse{Names: names})
}

// Languages resolves the languages of a place.
func (dc *DedupeController) Languages(c *gin.Context) {
	var req requests.LanguagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var (
		langs []string
		err   error
	)
	if req.Detect {
		langs, err = dc.dedupeService.DetectLanguages(req.Labels, req.Values)
	} else {
		langs, err = dc.dedupeService.Languages(req.Labels, req.Values)
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	if langs == nil {
		langs = []string{}
	}
	c.JSON(http.StatusOK, responses.LanguagesResponse{Languages: langs})
}

// Expand returns every normalized form of a value.
func (dc *DedupeController) Expand(c *gin.Context) {
	var req requests.ExpandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	components := address.ComponentNone
	if req.Kind != "" {
		kind, err := dedupe.ParseFieldKind(req.Kind)
		if err != nil {
			abortWithError(c, err)
			return
		}
		components = kind.ExpandOptions().Components
	}
	c.JSON(http.StatusOK, responses.ExpandResponse{
		Expansions: dc.dedupeService.Expand(req.Value, components, req.Languages),
	})
}

// Parse labels a raw address.
func (dc *DedupeController) Parse(c *gin.Context) {
	var req requests.ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	startTime := time.Now()
	components, err := dc.dedupeService.Parse(req.Address, req.Language, req.Country)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if components == nil {
		components = address.LabeledAddress{}
	}
	c.JSON(http.StatusOK, responses.ParseResponse{
		Components:       components,
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
	})
}

// Batch deduplicates the posted records and returns the classified pairs.
func (dc *DedupeController) Batch(c *gin.Context) {
	var req requests.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	startTime := time.Now()
	result, err := dc.dedupeService.DedupeBatch(c.Request.Context(), req.Records, services.BatchOptions{
		Hashing:        req.Options.Hashing,
		MinStatus:      req.Options.MinStatus,
		PersistReviews: req.Options.PersistReviews,
		StoreBlocks:    req.Options.StoreBlocks,
	})
	if err != nil {
		dc.logger.Error("Batch dedupe failed", zap.Int("records", len(req.Records)), zap.Error(err))
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.BatchResponse{
		BatchResult:      result,
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
	})
}

// SubmitJob queues records for asynchronous deduplication.
func (dc *DedupeController) SubmitJob(c *gin.Context) {
	var req requests.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	job, err := dc.dedupeService.SubmitJob(c.Request.Context(), req.Records)
	if err != nil {
		dc.logger.Error("Failed to submit job", zap.Error(err))
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, responses.JobResponse{Job: job, Message: "job accepted"})
}

// GetJob returns a job's status and, when done, its result.
func (dc *DedupeController) GetJob(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.RequestTimeout())
	defer cancel()

	job, err := dc.dedupeService.GetJob(ctx, c.Param("jobID"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.JobResponse{Job: job})
}

// GetBlock lists the records stored under a near-dupe key.
func (dc *DedupeController) GetBlock(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.RequestTimeout())
	defer cancel()

	key := strings.TrimPrefix(c.Param("key"), "/")
	members, err := dc.dedupeService.GetBlock(ctx, key)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.BlockResponse{Key: key, Members: members})
}

// ListReviews pages through the review queue.
func (dc *DedupeController) ListReviews(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.RequestTimeout())
	defer cancel()

	filter := services.ReviewFilter{
		Status: c.Query("status"),
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	}
	reviews, total, err := dc.dedupeService.ListReviews(ctx, filter)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.ReviewListResponse{
		Reviews: reviews,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	})
}

// ApproveReview marks a queued pair as a confirmed duplicate.
func (dc *DedupeController) ApproveReview(c *gin.Context) {
	dc.decide(c, true)
}

// RejectReview marks a queued pair as distinct.
func (dc *DedupeController) RejectReview(c *gin.Context) {
	dc.decide(c, false)
}

func (dc *DedupeController) decide(c *gin.Context, approve bool) {
	var req requests.ReviewDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), config.RequestTimeout())
	defer cancel()

	review, err := dc.dedupeService.DecideReview(ctx, c.Param("id"), approve, req.ReviewerID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	action := "reject"
	if approve {
		action = "approve"
	}
	dc.logger.Info("Review decided",
		zap.String("review_id", review.ID),
		zap.String("action", action),
		zap.String("reviewer_id", req.ReviewerID))

	c.JSON(http.StatusOK, responses.ReviewActionResponse{
		Success:   true,
		ReviewID:  review.ID,
		Action:    action,
		Message:   "review " + review.Status,
		UpdatedAt: time.Now().Format(time.RFC3339),
	})
}

// HealthCheck reports uptime and which optional stores are configured.
func (dc *DedupeController) HealthCheck(c *gin.Context) {
	uptime := time.Since(dc.dedupeService.GetStartTime())

	c.JSON(http.StatusOK, responses.HealthCheckResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    uptime.Round(time.Second).String(),
		Version:   Version,
		Services: map[string]string{
			"classifier": "healthy",
			"blocks":     configured(dc.dedupeService.Blocks != nil),
			"reviews":    configured(dc.dedupeService.Reviews != nil),
			"search":     configured(dc.dedupeService.Searcher != nil),
			"job_queue":  configured(dc.dedupeService.Queue != nil),
		},
	})
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "disabled"
}

func queryInt(c *gin.Context, name string, def int) int {
	if v, err := strconv.Atoi(c.Query(name)); err == nil && v >= 0 {
		return v
	}
	return def
}
