package dtos

import "github.com/justsurfingit/career-atlas/internal/models"

type JobExtractionRequest struct {
	RawHTML string `json:"raw_html" binding:"required"`
	URL     string `json:"url"`
}

// JobDraft is what the extraction agent returns; it is reviewed before posting.
type JobDraft struct {
	CompanyName string   `json:"company_name"`
	Title       string   `json:"title"`
	Location    *string  `json:"location"`
	Remote      bool     `json:"remote"`
	Description string   `json:"description"`
	JobTypes    []string `json:"job_types"`
	Tags        []string `json:"tags"`
	Salary      *string  `json:"salary"`
	URL         string   `json:"url,omitempty"`
}

type JobCreationRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
	Title       string `json:"title" binding:"required"`
	URL         string `json:"url" binding:"required,url"`
	Description string `json:"description" binding:"required"`

	// Optional Fields
	Location  string   `json:"location"`
	Remote    bool     `json:"remote"`
	JobTypes  []string `json:"job_types"`
	Tags      []string `json:"tags"`
	Salary    string   `json:"salary"`
	AvatarURL string   `json:"avatarURL" binding:"omitempty,url"`
}

type JobListResponse struct {
	Jobs       []models.Job `json:"jobs"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	TotalPages int          `json:"totalPages"`
	// Query is the canonical query string for this page; it differs from the
	// request when the page had to be clamped.
	Query string `json:"query"`
}
