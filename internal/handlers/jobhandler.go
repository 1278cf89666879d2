package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/career-atlas/internal/dtos"
	"github.com/justsurfingit/career-atlas/internal/jobquery"
	"github.com/justsurfingit/career-atlas/internal/services"
)

type JobHandler struct {
	LLMService *services.LLMService
	JobService *services.JobService
	PageSize   int
}

// NewJobHandler creates the handler with dependencies
func NewJobHandler(llm *services.LLMService, j *services.JobService, pageSize int) *JobHandler {
	return &JobHandler{LLMService: llm, JobService: j, PageSize: pageSize}
}

// ListJobs is GET /jobs. The query string uses the same parameters as the
// listing page URL.
func (h *JobHandler) ListJobs(c *gin.Context) {
	spec := jobquery.Decode(c.Request.URL.Query())
	spec.PageSize = h.PageSize
	spec = spec.Normalize()

	page, err := h.JobService.FetchJobs(c.Request.Context(), spec)
	if err != nil {
		respondError(c, err)
		return
	}

	// a page past the end is clamped to the last one and fetched again
	if last := spec.TotalPages(page.Total); spec.Page > last {
		spec.Page = last
		page, err = h.JobService.FetchJobs(c.Request.Context(), spec)
		if err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, dtos.JobListResponse{
		Jobs:       page.Jobs,
		Total:      page.Total,
		Page:       spec.Page,
		PageSize:   spec.PageSize,
		TotalPages: spec.TotalPages(page.Total),
		Query:      jobquery.Encode(spec).Encode(),
	})
}

// Companies is GET /jobs/companies
func (h *JobHandler) Companies(c *gin.Context) {
	names, err := h.JobService.Companies(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": names})
}

// GetJob is GET /jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.JobService.FetchJobBySlug(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// ParseJob is the POST /jobs/extract endpoint
func (h *JobHandler) ParseJob(c *gin.Context) {
	var req dtos.JobExtractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	draft, err := h.LLMService.ExtractJobDetails(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    draft,
	})
}

// CreateJob is POST /jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dtos.JobCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	job, err := h.JobService.CreateJob(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}
