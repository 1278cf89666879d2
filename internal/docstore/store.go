package docstore

import (
	"context"
	"errors"

	"github.com/justsurfingit/career-atlas/internal/models"
)

// ErrNotFound is returned by Get when no document has the given key.
var ErrNotFound = errors.New("docstore: document not found")

// Capabilities describes what a store can evaluate server-side.
type Capabilities struct {
	MaxArrayContains int
}

// JobStore is the jobs collection, keyed by slug.
type JobStore interface {
	Find(ctx context.Context, q Query) ([]models.JobDocument, error)
	Count(ctx context.Context, q Query) (int64, error)
	Get(ctx context.Context, slug string) (models.JobDocument, error)
	Upsert(ctx context.Context, doc models.JobDocument) error
	Companies(ctx context.Context) ([]string, error)
	Capabilities() Capabilities
}

// UserStore holds the per-user collections, keyed by user id. Writes have
// merge-upsert semantics.
type UserStore interface {
	GetFavorites(ctx context.Context, uid string) ([]string, error)
	SetFavorites(ctx context.Context, uid string, jobIDs []string) error

	GetProfile(ctx context.Context, uid string) (models.Profile, bool, error)
	MergeProfile(ctx context.Context, uid string, patch models.ProfilePatch) error

	ListApplications(ctx context.Context, uid string) ([]models.Application, error)
	UpsertApplication(ctx context.Context, uid string, app models.Application) error
	DeleteApplication(ctx context.Context, uid, jobID string) error
}

// Store is everything the service needs from the document database.
type Store interface {
	JobStore
	UserStore
	Close() error
}
