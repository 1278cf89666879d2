package dtos

import "github.com/justsurfingit/career-atlas/internal/models"

type MergeBookmarksRequest struct {
	JobIDs []string `json:"jobIds" binding:"required"`
}

type MergeBookmarksResponse struct {
	Merged     bool `json:"merged"`
	LocalCount int  `json:"localCount"`
}

type ApplicationRequest struct {
	JobID      string `json:"jobId" binding:"required"`
	Comment    string `json:"comment" binding:"max=2000"`
	ResumeName string `json:"resumeName"`
	ResumeURL  string `json:"resumeUrl" binding:"omitempty,url"`
	CreatedAt  string `json:"createdAt"`
}

type ApplicationView struct {
	models.Application
	Job *models.Job `json:"job,omitempty"`
}

type ProfileUpdateRequest struct {
	DisplayName *string `json:"displayName"`
	Phone       *string `json:"phone"`
}

type ProfileResponse struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
	Phone       string `json:"phone"`
	ResumeURL   string `json:"resumeURL"`
	ResumeName  string `json:"resumeName"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	Expiry       string `json:"expiry,omitempty"`
}
