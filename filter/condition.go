// Package filter defines the condition tree used to express query
// predicates. A tree is either a single comparison leaf or a binary
// AND/OR group. Trees are immutable: combinators allocate new nodes
// and never touch their operands.
package filter

// Op is a comparison or logical operator.
type Op int

const (
	Equal Op = iota
	Different
	Regexp
	Bigger
	BiggerEq
	Smaller
	SmallerEq
	In

	// logical group operators
	And
	Or
)

func (o Op) String() string {
	switch o {
	case Equal:
		return "EQUAL"
	case Different:
		return "DIFFERENT"
	case Regexp:
		return "REGEXP"
	case Bigger:
		return "BIGGER"
	case BiggerEq:
		return "BIGGER_EQ"
	case Smaller:
		return "SMALLER"
	case SmallerEq:
		return "SMALLER_EQ"
	case In:
		return "IN"
	case And:
		return "AND"
	case Or:
		return "OR"
	}
	return "ILLEGAL"
}

// Condition is one node of a condition tree. Leaves carry
// Attribute/Op/Value, groups carry Op plus Left and Right.
type Condition struct {
	Attribute string
	Op        Op
	Value     any

	Left  *Condition
	Right *Condition
}

// Group reports whether the node is an AND/OR group.
func (c *Condition) Group() bool {
	return c.Op == And || c.Op == Or
}

func leaf(attr string, op Op, v any) *Condition {
	return &Condition{Attribute: attr, Op: op, Value: v}
}

// Eq matches records whose attribute equals v.
func Eq(attr string, v any) *Condition { return leaf(attr, Equal, v) }

// Diff matches records whose attribute differs from v.
func Diff(attr string, v any) *Condition { return leaf(attr, Different, v) }

// Matches matches records whose attribute matches the regular expression v.
func Matches(attr string, v any) *Condition { return leaf(attr, Regexp, v) }

// BiggerThan matches records whose attribute is greater than v.
func BiggerThan(attr string, v any) *Condition { return leaf(attr, Bigger, v) }

// BiggerThanEqual matches records whose attribute is greater than or equal to v.
func BiggerThanEqual(attr string, v any) *Condition { return leaf(attr, BiggerEq, v) }

// LessThan matches records whose attribute is smaller than v.
func LessThan(attr string, v any) *Condition { return leaf(attr, Smaller, v) }

// LessThanEqual matches records whose attribute is smaller than or equal to v.
func LessThanEqual(attr string, v any) *Condition { return leaf(attr, SmallerEq, v) }

// OneOf matches records whose attribute is one of vs.
func OneOf(attr string, vs ...any) *Condition { return leaf(attr, In, vs) }

// AndThen combines two trees into an AND group. Compiled tokens carry
// no parentheses, so nesting order survives only through traversal
// order; a.AndThen(b.OrElse(c)) and a.AndThen(b).OrElse(c) render to
// the same token.
func (c *Condition) AndThen(o *Condition) *Condition {
	return &Condition{Op: And, Left: c, Right: o}
}

// OrElse combines two trees into an OR group. Same flat-token caveat
// as AndThen.
func (c *Condition) OrElse(o *Condition) *Condition {
	return &Condition{Op: Or, Left: c, Right: o}
}

// Leaves returns the comparison leaves in left-to-right traversal order.
func (c *Condition) Leaves() []*Condition {
	if c == nil {
		return nil
	}
	if !c.Group() {
		return []*Condition{c}
	}
	return append(c.Left.Leaves(), c.Right.Leaves()...)
}
