package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/justsurfingit/career-atlas/internal/docstore"
	"github.com/justsurfingit/career-atlas/internal/dtos"
	"github.com/justsurfingit/career-atlas/internal/events"
	"github.com/justsurfingit/career-atlas/internal/models"
	"github.com/justsurfingit/career-atlas/internal/timestamp"
)

// ApplicationsService records the jobs a user applied to.
type ApplicationsService struct {
	Store  docstore.UserStore
	Jobs   *JobService
	Events events.Publisher

	now func() time.Time
}

func NewApplicationsService(store docstore.UserStore, jobs *JobService, pub events.Publisher) *ApplicationsService {
	if pub == nil {
		pub = events.Noop{}
	}
	return &ApplicationsService{Store: store, Jobs: jobs, Events: pub, now: time.Now}
}

// Apply saves an application. Applying again to the same job replaces the
// previous entry.
func (s *ApplicationsService) Apply(ctx context.Context, uid string, req dtos.ApplicationRequest) (models.Application, error) {
	jobID := strings.TrimSpace(req.JobID)
	if jobID == "" {
		return models.Application{}, invalid("jobId", "is required")
	}
	if _, err := s.Jobs.FetchJobBySlug(ctx, jobID); err != nil {
		return models.Application{}, err
	}

	created := ""
	if iso := timestamp.ISO(req.CreatedAt); iso != nil {
		created = *iso
	} else {
		created = *timestamp.ISO(s.now())
	}

	app := models.Application{
		JobID:      jobID,
		Comment:    strings.TrimSpace(req.Comment),
		ResumeName: req.ResumeName,
		ResumeURL:  req.ResumeURL,
		CreatedAt:  created,
	}
	if err := s.Store.UpsertApplication(ctx, uid, app); err != nil {
		return models.Application{}, storeErr("save application", err)
	}
	if err := s.Events.Publish(ctx, models.EventApplicationCreated, uid, jobID); err != nil {
		log.Printf("⚠️ publish %s for %s: %v", models.EventApplicationCreated, uid, err)
	}
	return app, nil
}

func (s *ApplicationsService) Remove(ctx context.Context, uid, jobID string) error {
	if err := s.Store.DeleteApplication(ctx, uid, jobID); err != nil {
		return storeErr("delete application", err)
	}
	if err := s.Events.Publish(ctx, models.EventApplicationRemoved, uid, jobID); err != nil {
		log.Printf("⚠️ publish %s for %s: %v", models.EventApplicationRemoved, uid, err)
	}
	return nil
}

// List returns the user's applications joined with their jobs. Entries whose
// job has been taken down keep a nil Job.
func (s *ApplicationsService) List(ctx context.Context, uid string) ([]dtos.ApplicationView, error) {
	apps, err := s.Store.ListApplications(ctx, uid)
	if err != nil {
		return nil, storeErr("list applications", err)
	}

	slugs := make([]string, len(apps))
	for i, a := range apps {
		slugs[i] = a.JobID
	}
	jobs, err := s.Jobs.FetchJobsBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}
	bySlug := make(map[string]models.Job, len(jobs))
	for _, j := range jobs {
		bySlug[j.Slug] = j
	}

	views := make([]dtos.ApplicationView, 0, len(apps))
	for _, a := range apps {
		v := dtos.ApplicationView{Application: a}
		if j, ok := bySlug[a.JobID]; ok {
			v.Job = &j
		}
		views = append(views, v)
	}
	return views, nil
}
