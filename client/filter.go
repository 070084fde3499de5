package client

import (
	"strings"

	"github.com/corraldb/corral/api"
	"github.com/corraldb/corral/filter"
)

// parseFilter turns one command-line filter expression into a
// comparison leaf. Supported forms:
//
//	k=v    k!=v    k>v    k>=v    k<v    k<=v    k~regexp    k=a|b|c
//
// A value list joined with | compiles to an IN comparison.
func parseFilter(arg string) (*filter.Condition, error) {
	for _, op := range []struct {
		sep   string
		build func(attr string, v string) *filter.Condition
	}{
		{"!=", func(a, v string) *filter.Condition { return filter.Diff(a, v) }},
		{">=", func(a, v string) *filter.Condition { return filter.BiggerThanEqual(a, v) }},
		{"<=", func(a, v string) *filter.Condition { return filter.LessThanEqual(a, v) }},
		{"~", func(a, v string) *filter.Condition { return filter.Matches(a, v) }},
		{">", func(a, v string) *filter.Condition { return filter.BiggerThan(a, v) }},
		{"<", func(a, v string) *filter.Condition { return filter.LessThan(a, v) }},
		{"=", func(a, v string) *filter.Condition {
			if strings.Contains(v, "|") {
				var vs []any
				for _, e := range strings.Split(v, "|") {
					vs = append(vs, e)
				}
				return filter.OneOf(a, vs...)
			}
			return filter.Eq(a, v)
		}},
	} {
		if a, v, ok := strings.Cut(arg, op.sep); ok {
			if a == "" {
				return nil, api.Errorf(api.Query, "filter %q has no attribute", arg)
			}
			return op.build(a, v), nil
		}
	}
	return nil, api.Errorf(api.Query, "cannot parse filter %q", arg)
}

// parseFilters AND-joins a list of expressions, left-associated.
func parseFilters(args []string) (*filter.Condition, error) {
	var cond *filter.Condition
	for _, arg := range args {
		c, err := parseFilter(arg)
		if err != nil {
			return nil, err
		}
		if cond == nil {
			cond = c
		} else {
			cond = cond.AndThen(c)
		}
	}
	return cond, nil
}
