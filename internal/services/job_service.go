package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"

	"github.com/justsurfingit/career-atlas/internal/cache"
	"github.com/justsurfingit/career-atlas/internal/docstore"
	"github.com/justsurfingit/career-atlas/internal/dtos"
	"github.com/justsurfingit/career-atlas/internal/jobquery"
	"github.com/justsurfingit/career-atlas/internal/models"
)

// DefaultSearchFetchLimit bounds the batch fetched in search mode.
const DefaultSearchFetchLimit = 500

// Page is one page of results. Total is exact unless the batch path was taken,
// in which case it counts matches inside the fetched batch only.
type Page struct {
	Jobs  []models.Job
	Total int
	// Truncated is set when the batch hit SearchFetchLimit, so Total may
	// undercount matches that exist in the store.
	Truncated bool
}

type JobService struct {
	Store            docstore.JobStore
	Cache            cache.JobCache
	SearchFetchLimit int

	lookups singleflight.Group
	now     func() time.Time
}

func NewJobService(store docstore.JobStore, jobCache cache.JobCache) *JobService {
	return &JobService{
		Store:            store,
		Cache:            jobCache,
		SearchFetchLimit: DefaultSearchFetchLimit,
		now:              time.Now,
	}
}

// FetchJobs runs the listing pipeline for spec.
func (s *JobService) FetchJobs(ctx context.Context, spec jobquery.Spec) (Page, error) {
	spec = spec.Normalize()

	base := docstore.Query{}
	var clientOnly []ClientOnlyFilter
	for _, f := range planFilters(spec, s.Store.Capabilities()) {
		switch v := f.(type) {
		case PushableFilter:
			base = base.Where(v.Predicate)
		case ClientOnlyFilter:
			clientOnly = append(clientOnly, v)
		}
	}

	if !spec.Searching() && len(clientOnly) == 0 {
		return s.fetchFiltered(ctx, spec, base)
	}
	return s.fetchBatch(ctx, spec, base, clientOnly)
}

// fetchFiltered lets the store filter, order and count. The store cannot skip
// to an offset cheaply, so it reads everything up to the end of the page.
func (s *JobService) fetchFiltered(ctx context.Context, spec jobquery.Spec, base docstore.Query) (Page, error) {
	total, err := s.Store.Count(ctx, base)
	if err != nil {
		return Page{}, storeErr("count jobs", err)
	}

	field, desc := serverOrder(spec.Sort)
	q := base.Order(field, desc).WithLimit(spec.Page * spec.PageSize)
	docs, err := s.Store.Find(ctx, q)
	if err != nil {
		return Page{}, storeErr("find jobs", err)
	}

	jobs := make([]models.Job, 0, len(docs))
	for _, d := range docs {
		jobs = append(jobs, d.Serialize())
	}
	return Page{Jobs: pageSlice(jobs, spec.Page, spec.PageSize), Total: int(total)}, nil
}

// fetchBatch reads a bounded batch of matches for the pushable filters and
// does the rest locally.
func (s *JobService) fetchBatch(ctx context.Context, spec jobquery.Spec, base docstore.Query, clientOnly []ClientOnlyFilter) (Page, error) {
	limit := s.SearchFetchLimit
	if limit <= 0 {
		limit = DefaultSearchFetchLimit
	}

	// Search scans the newest window; a filter-only batch follows the
	// requested sort so its first pages are the true first pages.
	field, desc := docstore.FieldCreatedAt, true
	if !spec.Searching() {
		field, desc = serverOrder(spec.Sort)
	}
	q := base.Order(field, desc).WithLimit(limit)
	docs, err := s.Store.Find(ctx, q)
	if err != nil {
		return Page{}, storeErr("find jobs", err)
	}

	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(spec.Search))

	matched := make([]models.Job, 0, len(docs))
outer:
	for _, d := range docs {
		job := d.Serialize()
		for _, f := range clientOnly {
			if !f.Keep(job) {
				continue outer
			}
		}
		if needle != "" && !matchesSearch(job, needle, fold) {
			continue
		}
		matched = append(matched, job)
	}

	sortJobs(matched, spec.Sort)

	page := Page{
		Jobs:      pageSlice(matched, spec.Page, spec.PageSize),
		Total:     len(matched),
		Truncated: len(docs) >= limit,
	}
	if page.Truncated {
		log.Printf("⚠️ job search hit the %d document window (q=%q); total %d is approximate", limit, spec.Search, page.Total)
	}
	return page, nil
}

// FetchJobBySlug returns the full job for a slug, consulting the cache first.
// Concurrent lookups of the same slug share one store read.
func (s *JobService) FetchJobBySlug(ctx context.Context, slug string) (*models.Job, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrNotFound
	}

	if s.Cache != nil {
		job, ok, err := s.Cache.Get(ctx, slug)
		if err != nil {
			log.Printf("⚠️ job cache get %s: %v", slug, err)
		} else if ok {
			return job, nil
		}
	}

	v, err, _ := s.lookups.Do(slug, func() (any, error) {
		doc, err := s.Store.Get(ctx, slug)
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, storeErr("get job", err)
		}
		job := doc.Serialize()
		if s.Cache != nil {
			if err := s.Cache.Set(ctx, job); err != nil {
				log.Printf("⚠️ job cache set %s: %v", slug, err)
			}
		}
		return job, nil
	})
	if err != nil {
		return nil, err
	}
	job := v.(models.Job)
	return &job, nil
}

// FetchJobsBySlugs re-joins list references (bookmarks, applications) to full
// jobs. Slugs that no longer exist are skipped; order is preserved.
func (s *JobService) FetchJobsBySlugs(ctx context.Context, slugs []string) ([]models.Job, error) {
	found := make([]*models.Job, len(slugs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, slug := range slugs {
		i, slug := i, slug
		g.Go(func() error {
			job, err := s.FetchJobBySlug(gctx, slug)
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			found[i] = job
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	jobs := make([]models.Job, 0, len(slugs))
	for _, j := range found {
		if j != nil {
			jobs = append(jobs, *j)
		}
	}
	return jobs, nil
}

// Companies lists distinct company names for the company filter.
func (s *JobService) Companies(ctx context.Context) ([]string, error) {
	names, err := s.Store.Companies(ctx)
	if err != nil {
		return nil, storeErr("list companies", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// CreateJob publishes a new listing. The company name is matched against the
// companies already on the board so the exact-match company filter keeps
// grouping them together.
func (s *JobService) CreateJob(ctx context.Context, req *dtos.JobCreationRequest) (*models.Job, error) {
	companies, err := s.Companies(ctx)
	if err != nil {
		return nil, err
	}
	company := MatchCompany(req.CompanyName, companies)

	now := s.now().UTC()
	doc := models.JobDocument{
		Title:       strings.TrimSpace(req.Title),
		CompanyName: company,
		Description: req.Description,
		Location:    strings.TrimSpace(req.Location),
		Remote:      req.Remote,
		JobTypes:    cleanList(req.JobTypes),
		Tags:        cleanList(req.Tags),
		Salary:      strings.TrimSpace(req.Salary),
		URL:         req.URL,
		AvatarURL:   req.AvatarURL,
		Slug:        NewSlug(company, req.Title),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.Upsert(ctx, doc); err != nil {
		return nil, storeErr("create job", err)
	}
	if s.Cache != nil {
		if err := s.Cache.Delete(ctx, doc.Slug); err != nil {
			log.Printf("⚠️ job cache delete %s: %v", doc.Slug, err)
		}
	}
	job := doc.Serialize()
	return &job, nil
}

// NewSlug builds a readable slug from company and title with a short random
// suffix so re-posted roles never collide.
func NewSlug(company, title string) string {
	base := slugify(company + " " + title)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if base == "" {
		return suffix
	}
	return fmt.Sprintf("%s-%s", base, suffix)
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
