package docstore

import (
	"errors"
	"fmt"
)

// Collections.
const (
	CollectionJobs         = "jobs"
	CollectionFavorites    = "userFavorites"
	CollectionProfiles     = "profiles"
	CollectionApplications = "applications"
)

// Queryable fields of the jobs collection.
const (
	FieldSlug        = "slug"
	FieldTitle       = "title"
	FieldCompanyName = "company_name"
	FieldRemote      = "remote"
	FieldJobTypes    = "job_types"
	FieldTags        = "tags"
	FieldCreatedAt   = "created_at"
)

var (
	ErrMultipleArrayContains = errors.New("docstore: at most one array-contains predicate per query")
	ErrUnknownField          = errors.New("docstore: unknown field")
	ErrBadOperator           = errors.New("docstore: operator not supported for field")
)

var arrayFields = map[string]bool{FieldJobTypes: true, FieldTags: true}

var scalarFields = map[string]bool{
	FieldSlug:        true,
	FieldTitle:       true,
	FieldCompanyName: true,
	FieldRemote:      true,
	FieldCreatedAt:   true,
}

type Op int

const (
	OpEqual Op = iota
	OpArrayContains
)

func (o Op) String() string {
	switch o {
	case OpEqual:
		return "=="
	case OpArrayContains:
		return "array-contains"
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Predicate is a single where clause.
type Predicate struct {
	Field string
	Op    Op
	Value any
}

func Equal(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpEqual, Value: value}
}

func ArrayContains(field string, value string) Predicate {
	return Predicate{Field: field, Op: OpArrayContains, Value: value}
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s %s %v", p.Field, p.Op, p.Value)
}

type Order struct {
	Field string
	Desc  bool
}

// Query addresses the jobs collection. A zero Limit means no limit.
type Query struct {
	Predicates []Predicate
	OrderBy    *Order
	Limit      int
}

// Where returns a copy of q with p appended.
func (q Query) Where(p Predicate) Query {
	q.Predicates = append(append([]Predicate(nil), q.Predicates...), p)
	return q
}

func (q Query) Order(field string, desc bool) Query {
	q.OrderBy = &Order{Field: field, Desc: desc}
	return q
}

func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

// ForCount drops ordering and limit; what remains is the aggregate count query.
func (q Query) ForCount() Query {
	return Query{Predicates: append([]Predicate(nil), q.Predicates...)}
}

// ArrayContainsCount returns how many array-contains predicates q carries.
func (q Query) ArrayContainsCount() int {
	n := 0
	for _, p := range q.Predicates {
		if p.Op == OpArrayContains {
			n++
		}
	}
	return n
}

// Validate enforces the store's query capabilities.
func (q Query) Validate() error {
	for _, p := range q.Predicates {
		switch p.Op {
		case OpArrayContains:
			if !arrayFields[p.Field] {
				return fmt.Errorf("%w: %s on %q", ErrBadOperator, p.Op, p.Field)
			}
		case OpEqual:
			if !scalarFields[p.Field] {
				return fmt.Errorf("%w: %q", ErrUnknownField, p.Field)
			}
		default:
			return fmt.Errorf("%w: %s", ErrBadOperator, p.Op)
		}
	}
	if q.ArrayContainsCount() > 1 {
		return ErrMultipleArrayContains
	}
	if q.OrderBy != nil && !scalarFields[q.OrderBy.Field] {
		return fmt.Errorf("%w: order by %q", ErrUnknownField, q.OrderBy.Field)
	}
	return nil
}
