package server

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/corraldb/corral/api"
	"github.com/corraldb/corral/filter"
)

// matches evaluates a parsed condition tree against one record. Leaf
// values are the raw path-segment strings; the record side drives
// coercion (json.Number compares numerically, bool as bool, anything
// else as its string form). Groups evaluate strictly left to right,
// mirroring the flat token grammar.
func matches(cond *filter.Condition, rec api.Record) (bool, error) {
	if cond.Group() {
		left, err := matches(cond.Left, rec)
		if err != nil {
			return false, err
		}
		right, err := matches(cond.Right, rec)
		if err != nil {
			return false, err
		}
		if cond.Op == filter.And {
			return left && right, nil
		}
		return left || right, nil
	}

	arg, _ := cond.Value.(string)
	v, ok := rec[cond.Attribute]
	if !ok {
		return false, nil
	}

	switch cond.Op {
	case filter.Equal:
		return equals(v, arg), nil
	case filter.Different:
		return !equals(v, arg), nil
	case filter.Regexp:
		re, err := regexp.Compile(arg)
		if err != nil {
			return false, api.Errorf(api.Query, "bad pattern for %s: %v", cond.Attribute, err)
		}
		return re.MatchString(valueString(v)), nil
	case filter.Bigger:
		return compare(v, arg) > 0, nil
	case filter.BiggerEq:
		return compare(v, arg) >= 0, nil
	case filter.Smaller:
		return compare(v, arg) < 0, nil
	case filter.SmallerEq:
		return compare(v, arg) <= 0, nil
	case filter.In:
		for _, want := range strings.Split(arg, ",") {
			if equals(v, want) {
				return true, nil
			}
		}
		return false, nil
	}
	return false, api.Errorf(api.Query, "operator %s is not evaluable", cond.Op)
}

func equals(v any, arg string) bool {
	switch t := v.(type) {
	case json.Number:
		f, err1 := t.Float64()
		w, err2 := strconv.ParseFloat(arg, 64)
		if err1 == nil && err2 == nil {
			return f == w
		}
	case bool:
		if w, err := strconv.ParseBool(arg); err == nil {
			return t == w
		}
	}
	return valueString(v) == arg
}

// compare orders a record value against an argument string: numeric
// when both sides are numbers, lexicographic otherwise.
func compare(v any, arg string) int {
	if n, ok := v.(json.Number); ok {
		if f, err := n.Float64(); err == nil {
			if w, err := strconv.ParseFloat(arg, 64); err == nil {
				switch {
				case f < w:
					return -1
				case f > w:
					return 1
				}
				return 0
			}
		}
	}
	return strings.Compare(valueString(v), arg)
}

// compareValues orders two record values, used by order-by sorting.
func compareValues(a, b any) int {
	an, aok := a.(json.Number)
	bn, bok := b.(json.Number)
	if aok && bok {
		af, err1 := an.Float64()
		bf, err2 := bn.Float64()
		if err1 == nil && err2 == nil {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(valueString(a), valueString(b))
}

func valueString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
