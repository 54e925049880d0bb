package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/address-dedupe/app/responses"
	"github.com/address-dedupe/app/services"
	"github.com/address-dedupe/internal/address"
	"github.com/address-dedupe/internal/search"
	"github.com/gin-gonic/gin"
)

// statusFor maps service errors onto HTTP status codes and error codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, address.ErrInvalidInput), errors.Is(err, search.ErrEmptyQuery):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, services.ErrReviewNotFound):
		return http.StatusNotFound, "REVIEW_NOT_FOUND"
	case errors.Is(err, services.ErrJobNotFound):
		return http.StatusNotFound, "JOB_NOT_FOUND"
	case errors.Is(err, services.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "STORE_UNAVAILABLE"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func abortWithError(c *gin.Context, err error) {
	status, code := statusFor(err)
	c.JSON(status, responses.ErrorResponse{
		Error:     code,
		Message:   err.Error(),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, responses.ErrorResponse{
		Error:     "INVALID_REQUEST",
		Message:   "invalid request: " + err.Error(),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
