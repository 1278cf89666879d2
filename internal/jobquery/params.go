package jobquery

import (
	"net/url"
	"strconv"
)

// URL parameter names.
const (
	ParamSearch  = "q"
	ParamPage    = "page"
	ParamType    = "type"
	ParamCompany = "company"
	ParamRemote  = "remote"
	ParamTag     = "tag"
	ParamSort    = "sort"
)

// Encode writes s as URL parameters. Values equal to their default are
// omitted so shared links stay short. Page size is not part of the URL.
func Encode(s Spec) url.Values {
	s = s.Normalize()
	v := url.Values{}
	if s.Search != "" {
		v.Set(ParamSearch, s.Search)
	}
	if s.Page > 1 {
		v.Set(ParamPage, strconv.Itoa(s.Page))
	}
	if s.Type != All {
		v.Set(ParamType, s.Type)
	}
	if s.Company != All {
		v.Set(ParamCompany, s.Company)
	}
	if s.Remote != RemoteAll {
		v.Set(ParamRemote, string(s.Remote))
	}
	if s.Tag != All {
		v.Set(ParamTag, s.Tag)
	}
	if s.Sort != SortNewest {
		v.Set(ParamSort, string(s.Sort))
	}
	return v
}

// Decode rebuilds a Spec from URL parameters. Missing or unrecognised values
// fall back to their defaults.
func Decode(v url.Values) Spec {
	s := Default()
	s.Search = v.Get(ParamSearch)
	if p, err := strconv.Atoi(v.Get(ParamPage)); err == nil && p > 0 {
		s.Page = p
	}
	s.Type = v.Get(ParamType)
	s.Company = v.Get(ParamCompany)
	s.Remote = RemoteFilter(v.Get(ParamRemote))
	s.Tag = v.Get(ParamTag)
	s.Sort = SortKey(v.Get(ParamSort))
	return s.Normalize()
}
