package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/justsurfingit/career-atlas/internal/docstore"
	"github.com/justsurfingit/career-atlas/internal/dtos"
	"github.com/justsurfingit/career-atlas/internal/jobquery"
	"github.com/justsurfingit/career-atlas/internal/mocks"
	"github.com/justsurfingit/career-atlas/internal/models"
	"github.com/justsurfingit/career-atlas/internal/timestamp"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// numberedJobs returns n jobs; job i was created i hours after baseTime, so
// "newest" order is job-n ... job-1.
func numberedJobs(n int) []models.JobDocument {
	docs := make([]models.JobDocument, 0, n)
	for i := 1; i <= n; i++ {
		docs = append(docs, models.JobDocument{
			Slug:        fmt.Sprintf("job-%02d", i),
			Title:       fmt.Sprintf("Engineer %02d", i),
			CompanyName: "Acme",
			JobTypes:    []string{"Full-time"},
			Tags:        []string{"Backend"},
			CreatedAt:   timestamp.FromTime(baseTime.Add(time.Duration(i) * time.Hour)),
		})
	}
	return docs
}

func spec(mod func(*jobquery.Spec)) jobquery.Spec {
	s := jobquery.Default()
	if mod != nil {
		mod(&s)
	}
	return s
}

func TestFetchJobsNewestPagination(t *testing.T) {
	svc := NewJobService(docstore.NewMemoryStore(numberedJobs(25)...), nil)
	ctx := context.Background()

	first, err := svc.FetchJobs(ctx, spec(nil))
	if err != nil {
		t.Fatalf("FetchJobs returned error: %v", err)
	}
	if first.Total != 25 {
		t.Fatalf("expected total 25, got %d", first.Total)
	}
	if len(first.Jobs) != 10 {
		t.Fatalf("expected 10 jobs on page 1, got %d", len(first.Jobs))
	}
	for i, j := range first.Jobs {
		want := fmt.Sprintf("job-%02d", 25-i)
		if j.Slug != want {
			t.Fatalf("page 1 position %d: expected %s, got %s", i, want, j.Slug)
		}
	}

	third, err := svc.FetchJobs(ctx, spec(func(s *jobquery.Spec) { s.Page = 3 }))
	if err != nil {
		t.Fatalf("FetchJobs returned error: %v", err)
	}
	if third.Total != 25 || len(third.Jobs) != 5 {
		t.Fatalf("expected 5 of 25 on page 3, got %d of %d", len(third.Jobs), third.Total)
	}
	if third.Jobs[0].Slug != "job-05" || third.Jobs[4].Slug != "job-01" {
		t.Fatalf("unexpected page 3 bounds: %s..%s", third.Jobs[0].Slug, third.Jobs[4].Slug)
	}

	beyond, err := svc.FetchJobs(ctx, spec(func(s *jobquery.Spec) { s.Page = 9 }))
	if err != nil {
		t.Fatalf("FetchJobs returned error: %v", err)
	}
	if len(beyond.Jobs) != 0 || beyond.Total != 25 {
		t.Fatalf("expected empty page with total 25, got %d jobs total %d", len(beyond.Jobs), beyond.Total)
	}
}

func TestFetchJobsSerializesTimestamps(t *testing.T) {
	svc := NewJobService(docstore.NewMemoryStore(numberedJobs(1)...), nil)
	page, err := svc.FetchJobs(context.Background(), spec(nil))
	if err != nil {
		t.Fatalf("FetchJobs returned error: %v", err)
	}
	got := page.Jobs[0].CreatedAt
	if got == nil || *got != "2025-06-01T13:00:00.000Z" {
		t.Fatalf("unexpected created_at: %v", got)
	}
	if page.Jobs[0].UpdatedAt != nil {
		t.Fatalf("expected null updated_at, got %v", *page.Jobs[0].UpdatedAt)
	}
}

func TestFetchJobsFilteredTotalIsExactCount(t *testing.T) {
	docs := numberedJobs(12)
	for i := range docs {
		if i%3 == 0 {
			docs[i].CompanyName = "Globex"
			docs[i].Remote = true
		}
	}
	store := docstore.NewMemoryStore(docs...)
	svc := NewJobService(store, nil)

	cases := []jobquery.Spec{
		spec(func(s *jobquery.Spec) { s.Company = "Globex" }),
		spec(func(s *jobquery.Spec) { s.Remote = jobquery.RemoteOnsite }),
		spec(func(s *jobquery.Spec) { s.Remote = jobquery.RemoteOnly; s.Type = "Full-time"; s.PageSize = 2 }),
		spec(func(s *jobquery.Spec) { s.Tag = "Backend"; s.Sort = jobquery.SortTitle }),
	}
	for i, sp := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			page, err := svc.FetchJobs(context.Background(), sp)
			if err != nil {
				t.Fatalf("FetchJobs returned error: %v", err)
			}

			// count directly against the store with equivalent predicates
			q := docstore.Query{}
			for _, f := range planFilters(sp.Normalize(), store.Capabilities()) {
				q = q.Where(f.(PushableFilter).Predicate)
			}
			want, _ := store.Count(context.Background(), q)
			if int64(page.Total) != want {
				t.Fatalf("expected total %d, got %d", want, page.Total)
			}
		})
	}
}

func TestPlanFiltersTypeAndTagConflict(t *testing.T) {
	sp := spec(func(s *jobquery.Spec) { s.Type = "Remote"; s.Tag = "Engineering" }).Normalize()
	filters := planFilters(sp, docstore.Capabilities{MaxArrayContains: 1})

	var pushed, client int
	for _, f := range filters {
		switch v := f.(type) {
		case PushableFilter:
			pushed++
			if v.Predicate.Field != docstore.FieldJobTypes || v.Predicate.Op != docstore.OpArrayContains {
				t.Fatalf("expected job_types to win the array-contains slot, got %s", v.Predicate)
			}
		case ClientOnlyFilter:
			client++
			if v.Name != docstore.FieldTags {
				t.Fatalf("expected tags to run client-side, got %s", v.Name)
			}
		}
	}
	if pushed != 1 || client != 1 {
		t.Fatalf("expected 1 pushed and 1 client filter, got %d and %d", pushed, client)
	}

	roomy := planFilters(sp, docstore.Capabilities{MaxArrayContains: 2})
	for _, f := range roomy {
		if _, ok := f.(ClientOnlyFilter); ok {
			t.Fatal("a store with two slots should take both filters")
		}
	}
}

func TestFetchJobsTypeAndTagConflict(t *testing.T) {
	docs := []models.JobDocument{
		{Slug: "both", Title: "Platform", JobTypes: []string{"Remote"}, Tags: []string{"Engineering"}, CreatedAt: baseTime},
		{Slug: "type-only", Title: "Support", JobTypes: []string{"Remote"}, Tags: []string{"Customer"}, CreatedAt: baseTime.Add(time.Hour)},
		{Slug: "tag-only", Title: "SRE", JobTypes: []string{"On-site"}, Tags: []string{"Engineering"}, CreatedAt: baseTime.Add(2 * time.Hour)},
		{Slug: "neither", Title: "Sales", JobTypes: []string{"On-site"}, Tags: []string{"Sales"}, CreatedAt: baseTime.Add(3 * time.Hour)},
		{Slug: "both-2", Title: "Data", JobTypes: []string{"Remote", "Contract"}, Tags: []string{"Engineering", "Data"}, CreatedAt: baseTime.Add(4 * time.Hour)},
	}

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	inner := docstore.NewMemoryStore(docs...)
	store := mocks.NewMockJobStore(ctrl)
	store.EXPECT().Capabilities().Return(docstore.Capabilities{MaxArrayContains: 1})
	store.EXPECT().Count(gomock.Any(), gomock.Any()).Times(0)
	store.EXPECT().
		Find(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, q docstore.Query) ([]models.JobDocument, error) {
			if n := q.ArrayContainsCount(); n != 1 {
				t.Fatalf("expected exactly one array-contains predicate, got %d", n)
			}
			if q.Predicates[0].Field != docstore.FieldJobTypes {
				t.Fatalf("expected job_types predicate, got %s", q.Predicates[0])
			}
			return inner.Find(ctx, q)
		})

	svc := NewJobService(store, nil)
	page, err := svc.FetchJobs(context.Background(), spec(func(s *jobquery.Spec) {
		s.Type = "Remote"
		s.Tag = "Engineering"
	}))
	if err != nil {
		t.Fatalf("FetchJobs returned error: %v", err)
	}
	if page.Total != 2 || len(page.Jobs) != 2 {
		t.Fatalf("expected 2 matching jobs, got %d (total %d)", len(page.Jobs), page.Total)
	}
	if page.Jobs[0].Slug != "both-2" || page.Jobs[1].Slug != "both" {
		t.Fatalf("unexpected jobs: %s, %s", page.Jobs[0].Slug, page.Jobs[1].Slug)
	}
}

func TestFetchJobsConflictBatchFollowsRequestedSort(t *testing.T) {
	docs := numberedJobs(5)
	docs = append(docs, models.JobDocument{
		Slug:        "aaa-oldest",
		Title:       "AAA oldest",
		CompanyName: "Acme",
		JobTypes:    []string{"Full-time"},
		Tags:        []string{"Backend"},
		CreatedAt:   timestamp.FromTime(baseTime.Add(-time.Hour)),
	})
	svc := NewJobService(docstore.NewMemoryStore(docs...), nil)
	svc.SearchFetchLimit = 5

	page, err := svc.FetchJobs(context.Background(), spec(func(s *jobquery.Spec) {
		s.Type = "Full-time"
		s.Tag = "Backend"
		s.Sort = jobquery.SortTitle
	}))
	if err != nil {
		t.Fatalf("FetchJobs returned error: %v", err)
	}
	if len(page.Jobs) == 0 || page.Jobs[0].Slug != "aaa-oldest" {
		t.Fatalf("expected the alphabetically first job on page 1, got %s", slugOrder(page.Jobs))
	}
}

func TestFetchJobsSearchTotalCountsOnlyMatches(t *testing.T) {
	docs := numberedJobs(50)
	docs[4].Title = "Product Designer"
	docs[17].CompanyName = "Design Works"
	docs[33].Tags = []string{"UX", "design"}
	svc := NewJobService(docstore.NewMemoryStore(docs...), nil)

	page, err := svc.FetchJobs(context.Background(), spec(func(s *jobquery.Spec) { s.Search = "design" }))
	if err != nil {
		t.Fatalf("FetchJobs returned error: %v", err)
	}
	if page.Total != 3 {
		t.Fatalf("expected total 3, got %d", page.Total)
	}
	if page.Truncated {
		t.Fatal("50 documents should fit in the search window")
	}
	want := []string{"job-34", "job-18", "job-05"}
	for i, j := range page.Jobs {
		if j.Slug != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], j.Slug)
		}
	}
}

func TestFetchJobsSearchResultsContainNeedle(t *testing.T) {
	docs := []models.JobDocument{
		{Slug: "1", Title: "GOLANG developer", CompanyName: "A", CreatedAt: baseTime},
		{Slug: "2", Title: "Writer", CompanyName: "Golang Shop", CreatedAt: baseTime},
		{Slug: "3", Title: "Writer", CompanyName: "B", Location: "Golang City", CreatedAt: baseTime},
		{Slug: "4", Title: "Writer", CompanyName: "C", JobTypes: []string{"golang-contract"}, CreatedAt: baseTime},
		{Slug: "5", Title: "Writer", CompanyName: "D", Description: "golang everywhere", CreatedAt: baseTime},
		{Slug: "6", Title: "Writer", CompanyName: "E", CreatedAt: baseTime},
	}
	svc := NewJobService(docstore.NewMemoryStore(docs...), nil)

	page, err := svc.FetchJobs(context.Background(), spec(func(s *jobquery.Spec) { s.Search = "GoLang"; s.PageSize = 50 }))
	if err != nil {
		t.Fatalf("FetchJobs returned error: %v", err)
	}
	if page.Total != 4 {
		t.Fatalf("expected 4 matches (description is not searched), got %d", page.Total)
	}
	for _, j := range page.Jobs {
		hay := strings.ToLower(strings.Join(append(append([]string{j.Title, j.CompanyName, j.Location}, j.Tags...), j.JobTypes...), " "))
		if !strings.Contains(hay, "golang") {
			t.Fatalf("job %s does not contain the search text", j.Slug)
		}
	}
}

func TestFetchJobsSearchSortsLocally(t *testing.T) {
	docs := []models.JobDocument{
		{Slug: "z", Title: "zeta role", CompanyName: "beta", CreatedAt: baseTime},
		{Slug: "a", Title: "Alpha role", CompanyName: "Charlie", CreatedAt: baseTime.Add(time.Hour)},
		{Slug: "e", Title: "Écho role", CompanyName: "alpha", CreatedAt: baseTime.Add(2 * time.Hour)},
	}
	svc := NewJobService(docstore.NewMemoryStore(docs...), nil)
	ctx := context.Background()

	byTitle, _ := svc.FetchJobs(ctx, spec(func(s *jobquery.Spec) { s.Search = "role"; s.Sort = jobquery.SortTitle }))
	if got := slugOrder(byTitle.Jobs); got != "a,e,z" {
		t.Fatalf("unexpected title order: %s", got)
	}
	byCompany, _ := svc.FetchJobs(ctx, spec(func(s *jobquery.Spec) { s.Search = "role"; s.Sort = jobquery.SortCompany }))
	if got := slugOrder(byCompany.Jobs); got != "e,z,a" {
		t.Fatalf("unexpected company order: %s", got)
	}
	oldest, _ := svc.FetchJobs(ctx, spec(func(s *jobquery.Spec) { s.Search = "role"; s.Sort = jobquery.SortOldest }))
	if got := slugOrder(oldest.Jobs); got != "z,a,e" {
		t.Fatalf("unexpected oldest order: %s", got)
	}
}

// The search window is a documented approximation: matches beyond it are
// not counted.
func TestFetchJobsSearchWindowIsApproximate(t *testing.T) {
	svc := NewJobService(docstore.NewMemoryStore(numberedJobs(30)...), nil)
	svc.SearchFetchLimit = 20

	page, err := svc.FetchJobs(context.Background(), spec(func(s *jobquery.Spec) { s.Search = "engineer" }))
	if err != nil {
		t.Fatalf("FetchJobs returned error: %v", err)
	}
	if page.Total != 20 {
		t.Fatalf("expected total capped at the window (20), got %d", page.Total)
	}
	if !page.Truncated {
		t.Fatal("expected Truncated to be set")
	}
}

func TestFetchJobsPropagatesStoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	boom := errors.New("unavailable")
	store := mocks.NewMockJobStore(ctrl)
	store.EXPECT().Capabilities().Return(docstore.Capabilities{MaxArrayContains: 1}).AnyTimes()
	store.EXPECT().Count(gomock.Any(), gomock.Any()).Return(int64(0), boom).Times(1)

	svc := NewJobService(store, nil)
	_, err := svc.FetchJobs(context.Background(), spec(nil))

	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

type fakeCache struct {
	mu   sync.Mutex
	jobs map[string]models.Job
	sets int
}

func (c *fakeCache) Get(ctx context.Context, slug string) (*models.Job, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	j, ok := c.jobs[slug]
	if !ok {
		return nil, false, nil
	}
	return &j, true, nil
}

func (c *fakeCache) Set(ctx context.Context, job models.Job) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.jobs == nil {
		c.jobs = map[string]models.Job{}
	}
	c.jobs[job.Slug] = job
	c.sets++
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, slug string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.jobs, slug)
	return nil
}

func TestFetchJobBySlugUsesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	store := mocks.NewMockJobStore(ctrl)
	store.EXPECT().Get(gomock.Any(), "job-01").Return(numberedJobs(1)[0], nil).Times(1)
	store.EXPECT().Get(gomock.Any(), "gone").Return(models.JobDocument{}, docstore.ErrNotFound).Times(1)

	c := &fakeCache{}
	svc := NewJobService(store, c)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		job, err := svc.FetchJobBySlug(ctx, "job-01")
		if err != nil {
			t.Fatalf("FetchJobBySlug returned error: %v", err)
		}
		if job.Title != "Engineer 01" {
			t.Fatalf("unexpected job: %+v", job)
		}
	}
	if c.sets != 1 {
		t.Fatalf("expected a single cache fill, got %d", c.sets)
	}

	if _, err := svc.FetchJobBySlug(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.FetchJobBySlug(ctx, "  "); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for blank slug, got %v", err)
	}
}

func TestFetchJobsBySlugsSkipsMissing(t *testing.T) {
	svc := NewJobService(docstore.NewMemoryStore(numberedJobs(5)...), nil)
	jobs, err := svc.FetchJobsBySlugs(context.Background(), []string{"job-03", "missing", "job-01"})
	if err != nil {
		t.Fatalf("FetchJobsBySlugs returned error: %v", err)
	}
	if got := slugOrder(jobs); got != "job-03,job-01" {
		t.Fatalf("unexpected jobs: %s", got)
	}
}

func TestCreateJobCanonicalisesCompany(t *testing.T) {
	store := docstore.NewMemoryStore(numberedJobs(1)...)
	svc := NewJobService(store, nil)

	job, err := svc.CreateJob(context.Background(), &dtos.JobCreationRequest{
		CompanyName: "  acme ",
		Title:       "Staff Engineer",
		URL:         "https://acme.example/jobs/1",
		Description: "<p>Build things</p>",
		Tags:        []string{"Go", " Go ", ""},
	})
	if err != nil {
		t.Fatalf("CreateJob returned error: %v", err)
	}
	if job.CompanyName != "Acme" {
		t.Fatalf("expected canonical company Acme, got %q", job.CompanyName)
	}
	if !strings.HasPrefix(job.Slug, "acme-staff-engineer-") {
		t.Fatalf("unexpected slug: %s", job.Slug)
	}
	if len(job.Tags) != 1 || job.CreatedAt == nil {
		t.Fatalf("unexpected job: %+v", job)
	}
	if _, err := store.Get(context.Background(), job.Slug); err != nil {
		t.Fatalf("job not stored: %v", err)
	}
}

func slugOrder(jobs []models.Job) string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.Slug
	}
	return strings.Join(out, ",")
}
