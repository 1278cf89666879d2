package docstore

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/justsurfingit/career-atlas/internal/models"
	"github.com/justsurfingit/career-atlas/internal/timestamp"
)

// MemoryStore is an in-process Store. It evaluates queries with the same
// capabilities as the hosted store, so it rejects a second array-contains
// predicate just like the real thing.
type MemoryStore struct {
	mu           sync.RWMutex
	now          func() time.Time
	jobs         map[string]models.JobDocument
	favorites    map[string][]string
	profiles     map[string]models.Profile
	applications map[string][]models.Application
}

func NewMemoryStore(docs ...models.JobDocument) *MemoryStore {
	s := &MemoryStore{
		now:          time.Now,
		jobs:         make(map[string]models.JobDocument, len(docs)),
		favorites:    make(map[string][]string),
		profiles:     make(map[string]models.Profile),
		applications: make(map[string][]models.Application),
	}
	for _, d := range docs {
		s.jobs[d.Slug] = d
	}
	return s
}

func (s *MemoryStore) Capabilities() Capabilities {
	return Capabilities{MaxArrayContains: 1}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) Find(ctx context.Context, q Query) ([]models.JobDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]models.JobDocument, 0, len(s.jobs))
	for _, d := range s.jobs {
		if matches(d, q.Predicates) {
			out = append(out, d)
		}
	}
	s.mu.RUnlock()

	// map iteration order is random; slug gives a stable base order
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	if q.OrderBy != nil {
		field, desc := q.OrderBy.Field, q.OrderBy.Desc
		sort.SliceStable(out, func(i, j int) bool {
			c := compareField(out[i], out[j], field)
			if desc {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context, q Query) (int64, error) {
	docs, err := s.Find(ctx, q.ForCount())
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

func (s *MemoryStore) Get(ctx context.Context, slug string) (models.JobDocument, error) {
	if err := ctx.Err(); err != nil {
		return models.JobDocument{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.jobs[slug]
	if !ok {
		return models.JobDocument{}, ErrNotFound
	}
	return d, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, doc models.JobDocument) error {
	if doc.Slug == "" {
		return fmt.Errorf("docstore: job without slug")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[doc.Slug] = doc
	return nil
}

func (s *MemoryStore) Companies(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, d := range s.jobs {
		if d.CompanyName != "" && !seen[d.CompanyName] {
			seen[d.CompanyName] = true
			out = append(out, d.CompanyName)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) GetFavorites(ctx context.Context, uid string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.favorites[uid]...), nil
}

func (s *MemoryStore) SetFavorites(ctx context.Context, uid string, jobIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favorites[uid] = append([]string{}, jobIDs...)
	return nil
}

func (s *MemoryStore) GetProfile(ctx context.Context, uid string) (models.Profile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[uid]
	return p, ok, nil
}

func (s *MemoryStore) MergeProfile(ctx context.Context, uid string, patch models.ProfilePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profiles[uid]
	patch.Apply(&p)
	p.UpdatedAt = timestamp.ISO(s.now())
	s.profiles[uid] = p
	return nil
}

func (s *MemoryStore) ListApplications(ctx context.Context, uid string) ([]models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Application{}, s.applications[uid]...), nil
}

func (s *MemoryStore) UpsertApplication(ctx context.Context, uid string, app models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.applications[uid]
	for i := range list {
		if list[i].JobID == app.JobID {
			list[i] = app
			return nil
		}
	}
	s.applications[uid] = append(list, app)
	return nil
}

func (s *MemoryStore) DeleteApplication(ctx context.Context, uid, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.applications[uid]
	kept := list[:0]
	for _, a := range list {
		if a.JobID != jobID {
			kept = append(kept, a)
		}
	}
	s.applications[uid] = kept
	return nil
}

func matches(d models.JobDocument, preds []Predicate) bool {
	for _, p := range preds {
		switch p.Op {
		case OpArrayContains:
			v, _ := p.Value.(string)
			var list []string
			if p.Field == FieldJobTypes {
				list = d.JobTypes
			} else {
				list = d.Tags
			}
			if !containsString(list, v) {
				return false
			}
		case OpEqual:
			if !equalField(d, p.Field, p.Value) {
				return false
			}
		}
	}
	return true
}

func equalField(d models.JobDocument, field string, value any) bool {
	switch field {
	case FieldRemote:
		b, ok := value.(bool)
		return ok && d.Remote == b
	case FieldCreatedAt:
		return timestamp.Millis(d.CreatedAt) == timestamp.Millis(value)
	}
	v, ok := value.(string)
	return ok && stringField(d, field) == v
}

func stringField(d models.JobDocument, field string) string {
	switch field {
	case FieldSlug:
		return d.Slug
	case FieldTitle:
		return d.Title
	case FieldCompanyName:
		return d.CompanyName
	}
	return ""
}

// compareField orders like the hosted store: timestamps numerically, strings
// by byte order, false before true.
func compareField(a, b models.JobDocument, field string) int {
	switch field {
	case FieldCreatedAt:
		am, bm := timestamp.Millis(a.CreatedAt), timestamp.Millis(b.CreatedAt)
		switch {
		case am < bm:
			return -1
		case am > bm:
			return 1
		}
		return 0
	case FieldRemote:
		switch {
		case a.Remote == b.Remote:
			return 0
		case !a.Remote:
			return -1
		}
		return 1
	}
	as, bs := stringField(a, field), stringField(b, field)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

type seedFile struct {
	Jobs []models.JobDocument `yaml:"jobs"`
}

// LoadSeedFile reads job documents from a YAML file with a top-level "jobs" list.
func LoadSeedFile(path string) ([]models.JobDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	for i, d := range f.Jobs {
		if d.Slug == "" {
			return nil, fmt.Errorf("seed file %s: job %d has no slug", path, i)
		}
	}
	return f.Jobs, nil
}
