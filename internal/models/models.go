package models

import (
	"strings"
	"time"

	"github.com/justsurfingit/career-atlas/internal/timestamp"
)

// User is the identity handed to us by the external identity provider.
type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
	Phone       string `json:"phone,omitempty"`
}

// Job is the listing as exposed to callers. Timestamps are already
// normalized to ISO-8601 (or null).
type Job struct {
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	// Description is raw markup from the source; render only trusted sources.
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Remote      bool     `json:"remote"`
	JobTypes    []string `json:"job_types"`
	Tags        []string `json:"tags"`
	Salary      string   `json:"salary,omitempty"`
	URL         string   `json:"url"`
	Slug        string   `json:"slug"`
	CreatedAt   *string  `json:"created_at"`
	UpdatedAt   *string  `json:"updated_at"`
	AvatarURL   string   `json:"avatarURL,omitempty"`
}

// DisplayLocation is what list views print for the location column.
func (j Job) DisplayLocation() string {
	if loc := strings.TrimSpace(j.Location); loc != "" {
		return loc
	}
	if j.Remote {
		return "Worldwide"
	}
	return "Not specified"
}

// HasTag reports whether tag is one of the job's tags.
func (j Job) HasTag(tag string) bool {
	return contains(j.Tags, tag)
}

// HasType reports whether t is one of the job's types.
func (j Job) HasType(t string) bool {
	return contains(j.JobTypes, t)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// JobDocument is a job exactly as the document store returns it. CreatedAt
// and UpdatedAt keep whatever timestamp representation the store used.
type JobDocument struct {
	Title       string   `yaml:"title"`
	CompanyName string   `yaml:"company_name"`
	Description string   `yaml:"description"`
	Location    string   `yaml:"location"`
	Remote      bool     `yaml:"remote"`
	JobTypes    []string `yaml:"job_types"`
	Tags        []string `yaml:"tags"`
	Salary      string   `yaml:"salary"`
	URL         string   `yaml:"url"`
	Slug        string   `yaml:"slug"`
	CreatedAt   any      `yaml:"created_at"`
	UpdatedAt   any      `yaml:"updated_at"`
	AvatarURL   string   `yaml:"avatarURL"`
}

// Serialize normalizes the document into the caller-facing Job.
func (d JobDocument) Serialize() Job {
	return Job{
		Title:       d.Title,
		CompanyName: d.CompanyName,
		Description: d.Description,
		Location:    d.Location,
		Remote:      d.Remote,
		JobTypes:    nonNil(d.JobTypes),
		Tags:        nonNil(d.Tags),
		Salary:      d.Salary,
		URL:         d.URL,
		Slug:        d.Slug,
		CreatedAt:   timestamp.ISO(d.CreatedAt),
		UpdatedAt:   timestamp.ISO(d.UpdatedAt),
		AvatarURL:   d.AvatarURL,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Profile is the per-user document stored in the "profiles" collection.
type Profile struct {
	DisplayName string  `json:"displayName,omitempty"`
	PhotoURL    string  `json:"photoURL,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	ResumeURL   string  `json:"resumeURL,omitempty"`
	ResumeName  string  `json:"resumeName,omitempty"`
	UpdatedAt   *string `json:"updatedAt,omitempty"`
}

// ProfilePatch carries the fields of a merge-upsert. Nil fields are left alone.
type ProfilePatch struct {
	DisplayName *string
	PhotoURL    *string
	Phone       *string
	ResumeURL   *string
	ResumeName  *string
}

// Empty reports whether the patch would change nothing.
func (p ProfilePatch) Empty() bool {
	return p.DisplayName == nil && p.PhotoURL == nil && p.Phone == nil &&
		p.ResumeURL == nil && p.ResumeName == nil
}

// Apply merges the patch into profile.
func (p ProfilePatch) Apply(profile *Profile) {
	if p.DisplayName != nil {
		profile.DisplayName = *p.DisplayName
	}
	if p.PhotoURL != nil {
		profile.PhotoURL = *p.PhotoURL
	}
	if p.Phone != nil {
		profile.Phone = *p.Phone
	}
	if p.ResumeURL != nil {
		profile.ResumeURL = *p.ResumeURL
	}
	if p.ResumeName != nil {
		profile.ResumeName = *p.ResumeName
	}
}

// Application is one "I applied" entry of a user.
type Application struct {
	JobID      string `json:"jobId"`
	Comment    string `json:"comment,omitempty"`
	ResumeName string `json:"resumeName,omitempty"`
	ResumeURL  string `json:"resumeUrl,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

// ActivityEvent is published whenever a user bookmarks or applies to a job.
type ActivityEvent struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	UserID  string    `json:"user_id"`
	JobSlug string    `json:"job_slug"`
	At      time.Time `json:"at"`
}

const (
	EventBookmarkAdded      = "bookmark.added"
	EventBookmarkRemoved    = "bookmark.removed"
	EventApplicationCreated = "application.created"
	EventApplicationRemoved = "application.removed"
)
