// Package statement compiles condition trees and clause selectors into
// serializable query descriptors, and parses method tokens back into an
// executable form for the backend.
package statement

import (
	"strconv"
	"strings"

	"github.com/corraldb/corral/api"
)

// Kind is the verb family of a statement.
type Kind int

const (
	KindFind Kind = iota
	KindPage
	KindCount
	KindMax
	KindMin
	KindAvg
	KindSum
	KindDistinct
)

func (k Kind) verb() string {
	switch k {
	case KindFind:
		return "find"
	case KindPage:
		return "page"
	case KindCount:
		return "count"
	case KindMax:
		return "max"
	case KindMin:
		return "min"
	case KindAvg:
		return "avg"
	case KindSum:
		return "sum"
	case KindDistinct:
		return "distinct"
	}
	return ""
}

// Param is one named parameter. Statements keep params as a slice so
// the query string preserves insertion order.
type Param struct {
	Key   string
	Value string
}

// Statement is a compiled query descriptor: a single camelCase method
// token, the positional arguments extracted from the condition tree in
// traversal order, and the ordered named parameters.
type Statement struct {
	Kind    Kind
	Token   string
	Args    []any
	Params  []Param
	GroupBy string
}

// Clone returns a deep copy. Derived statements (pagination variants)
// always start from a clone so the source descriptor stays untouched.
func (s *Statement) Clone() *Statement {
	c := *s
	c.Args = append([]any(nil), s.Args...)
	c.Params = append([]Param(nil), s.Params...)
	return &c
}

// ParamValue returns the named parameter's value, if set.
func (s *Statement) ParamValue(key string) (string, bool) {
	for _, p := range s.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// WithParam returns a clone with the parameter replaced, or appended
// in insertion order if it was not set before.
func (s *Statement) WithParam(key, value string) *Statement {
	c := s.Clone()
	for i, p := range c.Params {
		if p.Key == key {
			c.Params[i].Value = value
			return c
		}
	}
	c.Params = append(c.Params, Param{key, value})
	return c
}

// Paged derives the pagination variant of a find statement: the find
// verb becomes the page verb and limit/offset are set. Statements that
// are already paged only get fresh limit/offset values.
func (s *Statement) Paged(size, offset int) (*Statement, error) {
	switch s.Kind {
	case KindFind, KindPage:
	default:
		return nil, api.Errorf(api.Unsupported, "statement %q cannot be paginated", s.Token)
	}
	c := s.Clone()
	if c.Kind == KindFind {
		c.Kind = KindPage
		c.Token = "page" + strings.TrimPrefix(c.Token, "find")
	}
	c = c.WithParam("limit", strconv.Itoa(size)).WithParam("offset", strconv.Itoa(offset))
	return c, nil
}
