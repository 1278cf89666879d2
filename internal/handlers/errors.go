package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/career-atlas/internal/services"
	"github.com/justsurfingit/career-atlas/internal/upload"
)

// respondError maps service errors onto HTTP responses.
func respondError(c *gin.Context, err error) {
	var (
		validation *services.ValidationError
		store      *services.StoreError
		status     *upload.StatusError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error(), "field": validation.Field})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
	case errors.Is(err, services.ErrExtractionDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.As(err, &store):
		log.Printf("❌ %v", store)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Could not load data, please try again", "retryable": true})
	case errors.As(err, &status):
		log.Printf("❌ %v", status)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Upload failed: " + status.Error()})
	default:
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
}
