package services

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/justsurfingit/career-atlas/internal/docstore"
	"github.com/justsurfingit/career-atlas/internal/jobquery"
	"github.com/justsurfingit/career-atlas/internal/models"
	"github.com/justsurfingit/career-atlas/internal/timestamp"
)

// Filter is either evaluated by the store (PushableFilter) or re-checked on
// the fetched batch (ClientOnlyFilter).
type Filter interface {
	filter()
}

type PushableFilter struct {
	Predicate docstore.Predicate
}

type ClientOnlyFilter struct {
	Name string
	Keep func(models.Job) bool
}

func (PushableFilter) filter()   {}
func (ClientOnlyFilter) filter() {}

// planFilters decides where each active filter runs. The store evaluates at
// most caps.MaxArrayContains array-contains predicates; the job type filter
// claims a slot first, so a simultaneous tag filter falls back to the client.
func planFilters(spec jobquery.Spec, caps docstore.Capabilities) []Filter {
	var out []Filter
	slots := caps.MaxArrayContains

	arrayFilter := func(field, value string, keep func(models.Job) bool) {
		if slots > 0 {
			slots--
			out = append(out, PushableFilter{Predicate: docstore.ArrayContains(field, value)})
			return
		}
		out = append(out, ClientOnlyFilter{Name: field, Keep: keep})
	}

	if spec.HasType() {
		t := spec.Type
		arrayFilter(docstore.FieldJobTypes, t, func(j models.Job) bool { return j.HasType(t) })
	}
	if spec.HasCompany() {
		out = append(out, PushableFilter{Predicate: docstore.Equal(docstore.FieldCompanyName, strings.TrimSpace(spec.Company))})
	}
	switch spec.Remote {
	case jobquery.RemoteOnly:
		out = append(out, PushableFilter{Predicate: docstore.Equal(docstore.FieldRemote, true)})
	case jobquery.RemoteOnsite:
		out = append(out, PushableFilter{Predicate: docstore.Equal(docstore.FieldRemote, false)})
	}
	if spec.HasTag() {
		tag := strings.TrimSpace(spec.Tag)
		arrayFilter(docstore.FieldTags, tag, func(j models.Job) bool { return j.HasTag(tag) })
	}
	return out
}

func serverOrder(sort jobquery.SortKey) (field string, desc bool) {
	switch sort {
	case jobquery.SortOldest:
		return docstore.FieldCreatedAt, false
	case jobquery.SortCompany:
		return docstore.FieldCompanyName, false
	case jobquery.SortTitle:
		return docstore.FieldTitle, false
	}
	return docstore.FieldCreatedAt, true
}

// matchesSearch is a case-insensitive substring test over title, company,
// location, tags and job types. needle must already be folded.
func matchesSearch(j models.Job, needle string, fold cases.Caser) bool {
	parts := make([]string, 0, 3+len(j.Tags)+len(j.JobTypes))
	for _, p := range []string{j.Title, j.CompanyName, j.Location} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	parts = append(parts, j.Tags...)
	parts = append(parts, j.JobTypes...)
	haystack := fold.String(strings.Join(parts, " "))
	return strings.Contains(haystack, needle)
}

func jobTime(j models.Job) int64 {
	if j.CreatedAt != nil {
		return timestamp.Millis(*j.CreatedAt)
	}
	if j.UpdatedAt != nil {
		return timestamp.Millis(*j.UpdatedAt)
	}
	return 0
}

// sortJobs orders jobs the way the store would for the same key, using
// locale-aware comparison for company and title.
func sortJobs(jobs []models.Job, key jobquery.SortKey) {
	col := collate.New(language.English)
	sort.SliceStable(jobs, func(i, k int) bool {
		a, b := jobs[i], jobs[k]
		switch key {
		case jobquery.SortOldest:
			return jobTime(a) < jobTime(b)
		case jobquery.SortCompany:
			return col.CompareString(a.CompanyName, b.CompanyName) < 0
		case jobquery.SortTitle:
			return col.CompareString(a.Title, b.Title) < 0
		}
		return jobTime(a) > jobTime(b)
	})
}

func pageSlice(jobs []models.Job, page, size int) []models.Job {
	start := (page - 1) * size
	if start >= len(jobs) {
		return []models.Job{}
	}
	end := start + size
	if end > len(jobs) {
		end = len(jobs)
	}
	return jobs[start:end]
}
