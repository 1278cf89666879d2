package services

import (
	"strings"
)

var companySuffixes = []string{" inc", " inc.", " llc", " ltd", " ltd.", " gmbh", " corp", " corp.", " co."}

// MatchCompany maps a company name coming from a new posting onto the
// spelling already used on the board, so "acme inc." joins "Acme Inc".
// Unknown companies keep their trimmed spelling.
func MatchCompany(name string, known []string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return name
	}
	key := companyKey(name)

	for _, k := range known {
		if strings.EqualFold(k, name) {
			return k
		}
	}

	// Skip very short names; "X" or "Go" would match half the board.
	if len(key) < 3 {
		return name
	}
	for _, k := range known {
		if companyKey(k) == key {
			return k
		}
	}
	return name
}

func companyKey(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimSuffix(n, ",")
	for _, s := range companySuffixes {
		if strings.HasSuffix(n, s) {
			n = strings.TrimSpace(strings.TrimSuffix(n, s))
			n = strings.TrimSuffix(n, ",")
			break
		}
	}
	return n
}
