package jobquery

import (
	"encoding/json"
	"strings"
)

// All is the "no restriction" value for every filter.
const All = "All"

// DefaultPageSize is used when a Spec carries no page size.
const DefaultPageSize = 10

type SortKey string

const (
	SortNewest  SortKey = "newest"
	SortOldest  SortKey = "oldest"
	SortCompany SortKey = "company"
	SortTitle   SortKey = "title"
)

// ParseSortKey returns the matching SortKey, or newest for anything unknown.
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortOldest:
		return SortOldest
	case SortCompany:
		return SortCompany
	case SortTitle:
		return SortTitle
	}
	return SortNewest
}

// RemoteFilter is tri-state: All, "true" or "false".
type RemoteFilter string

const (
	RemoteAll    RemoteFilter = All
	RemoteOnly   RemoteFilter = "true"
	RemoteOnsite RemoteFilter = "false"
)

func ParseRemoteFilter(s string) RemoteFilter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return RemoteOnly
	case "false":
		return RemoteOnsite
	}
	return RemoteAll
}

// Spec is the query specification rebuilt from UI/URL state for every fetch.
type Spec struct {
	Search   string       `json:"q"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
	Type     string       `json:"type"`
	Company  string       `json:"company"`
	Remote   RemoteFilter `json:"remote"`
	Tag      string       `json:"tag"`
	Sort     SortKey      `json:"sort"`
}

// Default returns the spec every missing parameter falls back to.
func Default() Spec {
	return Spec{
		Page:     1,
		PageSize: DefaultPageSize,
		Type:     All,
		Company:  All,
		Remote:   RemoteAll,
		Tag:      All,
		Sort:     SortNewest,
	}
}

// Normalize fills defaults and trims free-form fields. Empty filters become All.
func (s Spec) Normalize() Spec {
	s.Search = strings.TrimSpace(s.Search)
	if s.Page < 1 {
		s.Page = 1
	}
	if s.PageSize < 1 {
		s.PageSize = DefaultPageSize
	}
	s.Type = normalizeFilter(s.Type)
	s.Company = normalizeFilter(s.Company)
	s.Tag = normalizeFilter(s.Tag)
	s.Remote = ParseRemoteFilter(string(s.Remote))
	s.Sort = ParseSortKey(string(s.Sort))
	return s
}

func normalizeFilter(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, All) {
		return All
	}
	return v
}

// Searching reports whether free-text search is active.
func (s Spec) Searching() bool {
	return strings.TrimSpace(s.Search) != ""
}

func (s Spec) HasType() bool    { return active(s.Type) }
func (s Spec) HasCompany() bool { return active(s.Company) }
func (s Spec) HasTag() bool     { return active(s.Tag) }

func active(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != All
}

// Key serializes the normalized spec. Two specs with the same key describe
// the same request.
func (s Spec) Key() string {
	b, _ := json.Marshal(s.Normalize())
	return string(b)
}

// WithPage returns a copy pointing at page n.
func (s Spec) WithPage(n int) Spec {
	s.Page = n
	return s
}

// TotalPages returns the number of pages needed for total items, at least 1.
func (s Spec) TotalPages(total int) int {
	size := s.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	if total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}
