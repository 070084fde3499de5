package client

import (
	"testing"

	"github.com/corraldb/corral/api"
	"github.com/corraldb/corral/filter"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		arg  string
		attr string
		op   filter.Op
		val  any
	}{
		{"name=rover", "name", filter.Equal, "rover"},
		{"name!=rover", "name", filter.Different, "rover"},
		{"age>21", "age", filter.Bigger, "21"},
		{"age>=21", "age", filter.BiggerEq, "21"},
		{"age<25", "age", filter.Smaller, "25"},
		{"age<=25", "age", filter.SmallerEq, "25"},
		{"name~^ro", "name", filter.Regexp, "^ro"},
		{"price=", "price", filter.Equal, ""},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			cond, err := parseFilter(tt.arg)
			if err != nil {
				t.Fatal(err)
			}
			if cond.Attribute != tt.attr || cond.Op != tt.op || cond.Value != tt.val {
				t.Errorf("got %+v", cond)
			}
		})
	}
}

func TestParseFilterList(t *testing.T) {
	cond, err := parseFilter("state=ga|fl|tx")
	if err != nil {
		t.Fatal(err)
	}
	if cond.Op != filter.In {
		t.Fatalf("op = %s", cond.Op)
	}
	vs := cond.Value.([]any)
	if len(vs) != 3 || vs[0] != "ga" || vs[2] != "tx" {
		t.Errorf("values = %v", vs)
	}
}

func TestParseFilterErrors(t *testing.T) {
	for _, arg := range []string{"noop", "=value", ">=21"} {
		if _, err := parseFilter(arg); !api.IsQuery(err) {
			t.Errorf("%q: err = %v", arg, err)
		}
	}
}

func TestParseFiltersJoin(t *testing.T) {
	cond, err := parseFilters([]string{"age>21", "age<25", "state=ga"})
	if err != nil {
		t.Fatal(err)
	}
	// strictly left-associated AND chain
	if cond.Op != filter.And || cond.Left.Op != filter.And {
		t.Fatalf("tree = %+v", cond)
	}
	leaves := cond.Leaves()
	if len(leaves) != 3 || leaves[2].Attribute != "state" {
		t.Errorf("leaves = %v", leaves)
	}
}

func TestParseFiltersEmpty(t *testing.T) {
	cond, err := parseFilters(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cond != nil {
		t.Errorf("cond = %+v, want nil", cond)
	}
}
