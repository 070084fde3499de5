package statement

import (
	"strings"
	"unicode"

	"github.com/corraldb/corral/api"
	"github.com/corraldb/corral/filter"
)

// Parsed is the executable form of a method token, with positional
// arguments bound to their comparison leaves. Leaf values are the raw
// path-segment strings; coercion happens at evaluation time.
type Parsed struct {
	Kind      Kind
	AggField  string
	Cond      *filter.Condition
	Select    []string
	OrderBy   []string
	Direction string
	GroupBy   string
}

var verbs = map[string]Kind{
	"find":     KindFind,
	"page":     KindPage,
	"count":    KindCount,
	"max":      KindMax,
	"min":      KindMin,
	"avg":      KindAvg,
	"sum":      KindSum,
	"distinct": KindDistinct,
}

// keywords terminate a field-name word run. A field whose camelCase
// words collide with one of these cannot be expressed in a token;
// that is a known limit of the flat token grammar.
var keywords = map[string]bool{
	"and": true, "or": true, "by": true, "of": true,
	"select": true, "order": true, "group": true,
	"diff": true, "matches": true, "bigger": true, "less": true,
	"than": true, "equal": true, "in": true,
	"asc": true, "dsc": true,
}

type tokenParser struct {
	words []string
	pos   int
	args  []string
	argi  int
}

func (p *tokenParser) cur() string {
	if p.pos >= len(p.words) {
		return ""
	}
	return p.words[p.pos]
}

func (p *tokenParser) next() { p.pos++ }

func (p *tokenParser) accept(w string) bool {
	if p.cur() == w {
		p.next()
		return true
	}
	return false
}

// Parse decodes a method token plus its positional path arguments.
// Tokens carry no grouping construct, so mixed and/or predicates are
// rebuilt strictly left-associated.
func Parse(token string, args []string) (*Parsed, error) {
	p := &tokenParser{words: splitWords(token), args: args}
	if len(p.words) == 0 {
		return nil, api.Errorf(api.Query, "empty statement token")
	}

	kind, ok := verbs[p.cur()]
	if !ok {
		return nil, api.Errorf(api.Query, "unknown statement verb %q", p.cur())
	}
	p.next()

	out := &Parsed{Kind: kind}

	switch kind {
	case KindFind, KindPage:
	default:
		if !p.accept("of") {
			return nil, api.Errorf(api.Query, "%s statement requires an Of clause", kind.verb())
		}
		out.AggField = p.field()
		if kind == KindDistinct && out.AggField == "" {
			return nil, api.Errorf(api.Query, "distinct requires a field")
		}
	}

	if p.accept("by") {
		cond, err := p.predicate()
		if err != nil {
			return nil, err
		}
		out.Cond = cond
	}

	if p.accept("select") {
		for {
			f := p.field()
			if f == "" {
				return nil, api.Errorf(api.Query, "empty field in select clause")
			}
			out.Select = append(out.Select, f)
			if !p.accept("and") {
				break
			}
		}
	}

	if p.accept("order") {
		if !p.accept("by") {
			return nil, api.Errorf(api.Query, "expected By after Order")
		}
		for {
			f := p.field()
			if f == "" {
				return nil, api.Errorf(api.Query, "empty OrderBy clause")
			}
			out.OrderBy = append(out.OrderBy, f)
			if !p.accept("and") {
				break
			}
		}
		// legacy form with the direction embedded in the token
		if p.accept("asc") {
			out.Direction = "asc"
		} else if p.accept("dsc") {
			out.Direction = "dsc"
		}
	}

	if p.accept("group") {
		if !p.accept("by") {
			return nil, api.Errorf(api.Query, "expected By after Group")
		}
		out.GroupBy = p.field()
		if out.GroupBy == "" {
			return nil, api.Errorf(api.Query, "empty GroupBy clause")
		}
	}

	if p.cur() != "" {
		return nil, api.Errorf(api.Query, "unexpected token word %q", p.cur())
	}
	if p.argi != len(p.args) {
		return nil, api.Errorf(api.Query, "statement has %d arguments, got %d", p.argi, len(p.args))
	}
	return out, nil
}

func (p *tokenParser) predicate() (*filter.Condition, error) {
	var tree *filter.Condition
	var connector filter.Op

	for {
		attr := p.field()
		if attr == "" {
			return nil, api.Errorf(api.Query, "empty attribute in predicate")
		}

		op := filter.Equal
		switch {
		case p.accept("diff"):
			op = filter.Different
		case p.accept("matches"):
			op = filter.Regexp
		case p.accept("bigger"):
			op = filter.Bigger
			if p.accept("than") {
				if !p.accept("equal") {
					return nil, api.Errorf(api.Query, "expected Equal after BiggerThan")
				}
				op = filter.BiggerEq
			}
		case p.accept("less"):
			op = filter.Smaller
			if p.accept("than") {
				if !p.accept("equal") {
					return nil, api.Errorf(api.Query, "expected Equal after LessThan")
				}
				op = filter.SmallerEq
			}
		case p.accept("in"):
			op = filter.In
		}

		if p.argi >= len(p.args) {
			return nil, api.Errorf(api.Query, "missing argument for %s", attr)
		}
		leaf := &filter.Condition{Attribute: attr, Op: op, Value: p.args[p.argi]}
		p.argi++

		if tree == nil {
			tree = leaf
		} else {
			tree = &filter.Condition{Op: connector, Left: tree, Right: leaf}
		}

		if p.accept("and") {
			connector = filter.And
		} else if p.accept("or") {
			connector = filter.Or
		} else {
			return tree, nil
		}
	}
}

// field consumes the run of non-keyword words and rejoins them into a
// camelCase field name.
func (p *tokenParser) field() string {
	var words []string
	for p.cur() != "" && !keywords[p.cur()] {
		words = append(words, p.cur())
		p.next()
	}
	return collapse(words)
}

// splitWords breaks a camelCase token at upper-case boundaries and
// lower-cases every word.
func splitWords(token string) []string {
	var words []string
	start := 0
	runes := []rune(token)
	for i := 1; i <= len(runes); i++ {
		if i == len(runes) || unicode.IsUpper(runes[i]) {
			words = append(words, strings.ToLower(string(runes[start:i])))
			start = i
		}
	}
	if len(words) == 1 && words[0] == "" {
		return nil
	}
	return words
}
