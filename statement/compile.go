package statement

import (
	"strconv"
	"strings"

	"github.com/corraldb/corral/api"
	"github.com/corraldb/corral/filter"
)

// Direction of an order clause. Carried as the "direction" named
// parameter; the compiler never embeds Asc/Dsc suffixes in the token.
type Direction string

const (
	Asc Direction = "asc"
	Dsc Direction = "dsc"
)

type clauses struct {
	selects  []string
	orderBy  []string
	dir      Direction
	groupBy  string
	limit    int
	hasLimit bool
	skip     int
	hasSkip  bool
}

// Option adds a projection, order, group, limit or offset clause.
type Option func(*clauses)

// Select projects the result records down to the given fields.
func Select(fields ...string) Option {
	return func(c *clauses) { c.selects = append(c.selects, fields...) }
}

// OrderBy sorts the result by the given fields, server-side.
func OrderBy(fields ...string) Option {
	return func(c *clauses) { c.orderBy = append(c.orderBy, fields...) }
}

// Ascending sets the order direction parameter to asc.
func Ascending() Option { return func(c *clauses) { c.dir = Asc } }

// Descending sets the order direction parameter to dsc.
func Descending() Option { return func(c *clauses) { c.dir = Dsc } }

// GroupBy groups the result records by the given field. The response
// becomes a map from group key to records.
func GroupBy(field string) Option {
	return func(c *clauses) { c.groupBy = field }
}

// Limit caps the number of returned records.
func Limit(n int) Option {
	return func(c *clauses) { c.limit = n; c.hasLimit = true }
}

// Skip drops the first n records of the result.
func Skip(n int) Option {
	return func(c *clauses) { c.skip = n; c.hasSkip = true }
}

// Find compiles a list query. A nil condition lists everything.
func Find(cond *filter.Condition, opts ...Option) (*Statement, error) {
	return compile(KindFind, "", cond, opts)
}

// Count compiles a record count. Field may be empty.
func Count(field string, cond *filter.Condition, opts ...Option) (*Statement, error) {
	return compile(KindCount, field, cond, opts)
}

// Max compiles a maximum aggregate over field.
func Max(field string, cond *filter.Condition, opts ...Option) (*Statement, error) {
	return compile(KindMax, field, cond, opts)
}

// Min compiles a minimum aggregate over field.
func Min(field string, cond *filter.Condition, opts ...Option) (*Statement, error) {
	return compile(KindMin, field, cond, opts)
}

// Avg compiles an average aggregate over field.
func Avg(field string, cond *filter.Condition, opts ...Option) (*Statement, error) {
	return compile(KindAvg, field, cond, opts)
}

// Sum compiles a sum aggregate over field.
func Sum(field string, cond *filter.Condition, opts ...Option) (*Statement, error) {
	return compile(KindSum, field, cond, opts)
}

// Distinct compiles a distinct-values query over field.
func Distinct(field string, cond *filter.Condition, opts ...Option) (*Statement, error) {
	if field == "" {
		return nil, api.Errorf(api.Query, "distinct requires a field")
	}
	return compile(KindDistinct, field, cond, opts)
}

func compile(kind Kind, field string, cond *filter.Condition, opts []Option) (*Statement, error) {
	var c clauses
	for _, o := range opts {
		o(&c)
	}

	words := []string{kind.verb()}
	if kind != KindFind {
		words = append(words, "of")
		if field != "" {
			words = append(words, field)
		}
	}

	st := &Statement{Kind: kind, GroupBy: c.groupBy}

	if cond != nil {
		words = append(words, "by")
		var err error
		words, err = renderCondition(cond, words, st)
		if err != nil {
			return nil, err
		}
	}

	if len(c.selects) > 0 {
		words = append(words, "select")
		for i, f := range c.selects {
			if i > 0 {
				words = append(words, "and")
			}
			words = append(words, f)
		}
	}
	if len(c.orderBy) > 0 {
		words = append(words, "order", "by")
		for i, f := range c.orderBy {
			if i > 0 {
				words = append(words, "and")
			}
			words = append(words, f)
		}
	}
	if c.groupBy != "" {
		words = append(words, "group", "by", c.groupBy)
	}

	st.Token = collapse(words)

	if c.hasLimit {
		st.Params = append(st.Params, Param{"limit", strconv.Itoa(c.limit)})
	}
	if c.hasSkip {
		// offset carries the 1-based index of the first wanted record
		st.Params = append(st.Params, Param{"offset", strconv.Itoa(c.skip + 1)})
	}
	if c.dir != "" {
		st.Params = append(st.Params, Param{"direction", string(c.dir)})
	}
	return st, nil
}

// renderCondition walks the tree left to right, appending one token
// segment and one positional argument per comparison leaf. Groups
// introduce no parentheses.
func renderCondition(cond *filter.Condition, words []string, st *Statement) ([]string, error) {
	if cond.Group() {
		if cond.Left == nil || cond.Right == nil {
			return nil, api.Errorf(api.Query, "incomplete %s group", cond.Op)
		}
		words, err := renderCondition(cond.Left, words, st)
		if err != nil {
			return nil, err
		}
		words = append(words, strings.ToLower(cond.Op.String()))
		return renderCondition(cond.Right, words, st)
	}

	if cond.Attribute == "" {
		return nil, api.Errorf(api.Query, "comparison with empty attribute")
	}
	words = append(words, cond.Attribute)

	switch cond.Op {
	case filter.Equal:
	case filter.Different:
		words = append(words, "diff")
	case filter.Regexp:
		words = append(words, "matches")
	case filter.Bigger:
		words = append(words, "bigger")
	case filter.BiggerEq:
		words = append(words, "bigger", "than", "equal")
	case filter.Smaller:
		words = append(words, "less")
	case filter.SmallerEq:
		words = append(words, "less", "than", "equal")
	case filter.In:
		words = append(words, "in")
	default:
		return nil, api.Errorf(api.Query, "no rendering for operator %s", cond.Op)
	}

	st.Args = append(st.Args, cond.Value)
	return words, nil
}

// collapse joins the word sequence into a single camelCase token. The
// first word keeps its case, every following word gets its first rune
// upper-cased, so camelCase field names survive intact.
func collapse(words []string) string {
	var b strings.Builder
	for i, w := range words {
		if w == "" {
			continue
		}
		if i == 0 {
			b.WriteString(w)
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(w[1:])
	}
	return b.String()
}
