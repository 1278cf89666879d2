package services

import (
	"context"
	"log"
	"strings"

	"github.com/justsurfingit/career-atlas/internal/docstore"
	"github.com/justsurfingit/career-atlas/internal/dtos"
	"github.com/justsurfingit/career-atlas/internal/events"
	"github.com/justsurfingit/career-atlas/internal/models"
)

// FavoritesService manages a user's bookmarked job slugs.
type FavoritesService struct {
	Store  docstore.UserStore
	Jobs   *JobService
	Events events.Publisher
}

func NewFavoritesService(store docstore.UserStore, jobs *JobService, pub events.Publisher) *FavoritesService {
	if pub == nil {
		pub = events.Noop{}
	}
	return &FavoritesService{Store: store, Jobs: jobs, Events: pub}
}

func (s *FavoritesService) IDs(ctx context.Context, uid string) ([]string, error) {
	ids, err := s.Store.GetFavorites(ctx, uid)
	if err != nil {
		return nil, storeErr("get favorites", err)
	}
	return ids, nil
}

// Add bookmarks jobID; bookmarking twice is a no-op.
func (s *FavoritesService) Add(ctx context.Context, uid, jobID string) ([]string, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, invalid("jobId", "is required")
	}
	current, err := s.IDs(ctx, uid)
	if err != nil {
		return nil, err
	}
	for _, id := range current {
		if id == jobID {
			return current, nil
		}
	}

	next := append(current, jobID)
	if err := s.Store.SetFavorites(ctx, uid, next); err != nil {
		return nil, storeErr("save favorites", err)
	}
	s.publish(ctx, models.EventBookmarkAdded, uid, jobID)
	return next, nil
}

func (s *FavoritesService) Remove(ctx context.Context, uid, jobID string) ([]string, error) {
	current, err := s.IDs(ctx, uid)
	if err != nil {
		return nil, err
	}
	next := make([]string, 0, len(current))
	for _, id := range current {
		if id != jobID {
			next = append(next, id)
		}
	}
	if len(next) == len(current) {
		return current, nil
	}
	if err := s.Store.SetFavorites(ctx, uid, next); err != nil {
		return nil, storeErr("save favorites", err)
	}
	s.publish(ctx, models.EventBookmarkRemoved, uid, jobID)
	return next, nil
}

// Merge folds bookmarks a guest collected before signing in into the user's
// stored list. Stored ids keep their order; new guest ids are appended.
func (s *FavoritesService) Merge(ctx context.Context, uid string, guest []string) (dtos.MergeBookmarksResponse, error) {
	if len(guest) == 0 {
		return dtos.MergeBookmarksResponse{}, nil
	}
	server, err := s.IDs(ctx, uid)
	if err != nil {
		return dtos.MergeBookmarksResponse{}, err
	}

	seen := make(map[string]bool, len(server)+len(guest))
	merged := make([]string, 0, len(server)+len(guest))
	for _, id := range append(append([]string{}, server...), guest...) {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		merged = append(merged, id)
	}

	if len(merged) <= len(server) {
		return dtos.MergeBookmarksResponse{}, nil
	}
	if err := s.Store.SetFavorites(ctx, uid, merged); err != nil {
		return dtos.MergeBookmarksResponse{}, storeErr("save favorites", err)
	}
	return dtos.MergeBookmarksResponse{Merged: true, LocalCount: len(guest)}, nil
}

// ListJobs re-joins the bookmarked slugs to full jobs.
func (s *FavoritesService) ListJobs(ctx context.Context, uid string) ([]models.Job, error) {
	ids, err := s.IDs(ctx, uid)
	if err != nil {
		return nil, err
	}
	return s.Jobs.FetchJobsBySlugs(ctx, ids)
}

func (s *FavoritesService) publish(ctx context.Context, eventType, uid, jobID string) {
	if err := s.Events.Publish(ctx, eventType, uid, jobID); err != nil {
		log.Printf("⚠️ publish %s for %s: %v", eventType, uid, err)
	}
}
