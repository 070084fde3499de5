package rest

import (
	"net/url"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/corraldb/corral/filter"
	"github.com/corraldb/corral/statement"
)

var bookMeta = Meta{Model: "Book", Key: []string{"id"}}

var orderItemMeta = Meta{
	Model:        "OrderItem",
	Key:          []string{"orderId", "sku"},
	KeySeparator: "_",
}

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder("http://localhost:5052/")
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestNewBuilder(t *testing.T) {
	if _, err := NewBuilder("not a url at all\x7f"); err == nil {
		t.Error("garbage base accepted")
	}
	if _, err := NewBuilder("/relative"); err == nil {
		t.Error("relative base accepted")
	}

	b, err := NewBuilder("http://host:1234/")
	if err != nil {
		t.Fatal(err)
	}
	req := b.Read(bookMeta, "x")
	if req.URL != "http://host:1234/book/x" {
		t.Errorf("trailing slash not dropped: %q", req.URL)
	}
}

func TestCRUDRequests(t *testing.T) {
	b := newTestBuilder(t)
	body := []byte(`{"id":"b1"}`)

	tests := []struct {
		name   string
		req    Request
		method string
		url    string
		body   bool
	}{
		{"create", b.Create(bookMeta, "b1", body), "POST", "http://localhost:5052/book/b1", true},
		{"read", b.Read(bookMeta, "b1"), "GET", "http://localhost:5052/book/b1", false},
		{"update", b.Update(bookMeta, "b1", body), "PUT", "http://localhost:5052/book/b1", true},
		{"delete", b.Delete(bookMeta, "b1"), "DELETE", "http://localhost:5052/book/b1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.req.Method != tt.method {
				t.Errorf("method = %q, want %q", tt.req.Method, tt.method)
			}
			if tt.req.URL != tt.url {
				t.Errorf("url = %q, want %q", tt.req.URL, tt.url)
			}
			if tt.body && tt.req.Header["Content-Type"] != "application/json" {
				t.Error("missing json content type")
			}
			if !tt.body && tt.req.Body != nil {
				t.Error("unexpected body")
			}
		})
	}
}

func TestCompositeKeySegments(t *testing.T) {
	b := newTestBuilder(t)

	req := b.Read(orderItemMeta, "ord-9_sku-1")
	if req.URL != "http://localhost:5052/order-item/ord-9/sku-1" {
		t.Errorf("url = %q", req.URL)
	}
}

func TestResourceNaming(t *testing.T) {
	b := newTestBuilder(t)

	req := b.Read(Meta{Model: "UserAccount", Key: []string{"id"}}, "u1")
	if !strings.HasPrefix(req.URL, "http://localhost:5052/user-account/") {
		t.Errorf("url = %q", req.URL)
	}
}

func TestPathEscaping(t *testing.T) {
	b := newTestBuilder(t)

	req := b.Read(bookMeta, "war and peace")
	if req.URL != "http://localhost:5052/book/war%20and%20peace" {
		t.Errorf("url = %q", req.URL)
	}
	if strings.Contains(req.URL, "+") {
		t.Error("space encoded as +")
	}
}

func TestBulkRequests(t *testing.T) {
	b := newTestBuilder(t)
	body := []byte(`[{"id":"a"},{"id":"b"}]`)

	if req := b.BulkCreate(bookMeta, body); req.URL != "http://localhost:5052/book/bulk" || req.Method != "POST" {
		t.Errorf("bulk create: %s %s", req.Method, req.URL)
	}
	if req := b.BulkUpdate(bookMeta, body); req.URL != "http://localhost:5052/book/bulk" || req.Method != "PUT" {
		t.Errorf("bulk update: %s %s", req.Method, req.URL)
	}
	if req := b.BulkRead(bookMeta, []string{"a", "b c"}); req.URL != "http://localhost:5052/book/bulk?ids=a%2Cb%20c" {
		t.Errorf("bulk read: %s", req.URL)
	}
	if req := b.BulkDelete(bookMeta, []string{"a"}); req.Method != "DELETE" || req.URL != "http://localhost:5052/book/bulk?ids=a" {
		t.Errorf("bulk delete: %s %s", req.Method, req.URL)
	}
}

func TestStatementRequest(t *testing.T) {
	b := newTestBuilder(t)

	st, err := statement.Find(
		filter.BiggerThan("age", "21").AndThen(filter.LessThan("age", "25")),
		statement.Limit(10), statement.Descending(),
	)
	if err != nil {
		t.Fatal(err)
	}

	req := b.Statement(bookMeta, st)
	want := "http://localhost:5052/book/statement/findByAgeBiggerAndAgeLess/21/25?limit=10&direction=dsc"
	if req.URL != want {
		t.Errorf("url = %q\nwant  %q", req.URL, want)
	}
	if req.Method != "GET" {
		t.Errorf("method = %q", req.Method)
	}
}

func TestStatementArgEncoding(t *testing.T) {
	b := newTestBuilder(t)

	st, err := statement.Find(filter.OneOf("name", "war and peace", "emma"))
	if err != nil {
		t.Fatal(err)
	}

	req := b.Statement(bookMeta, st)
	want := "http://localhost:5052/book/statement/findByNameIn/war%20and%20peace,emma"
	if req.URL != want {
		t.Errorf("url = %q\nwant  %q", req.URL, want)
	}
}

func TestArgString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"x", "x"},
		{[]string{"a", "b"}, "a,b"},
		{[]any{"a", 2}, "a,2"},
		{float64(21), "21"},
		{float64(21.5), "21.5"},
		{true, "true"},
		{42, "42"},
	}
	for _, tt := range tests {
		if got := argString(tt.in); got != tt.want {
			t.Errorf("argString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Equal statements must render byte-identical requests.
func TestStatementRenderingDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	b := newTestBuilder(t)

	properties.Property("rendering is deterministic", prop.ForAll(
		func(attr string, val string, limit int) bool {
			st, err := statement.Find(filter.Eq("f"+attr, val), statement.Limit(limit))
			if err != nil {
				return true
			}
			first := b.Statement(bookMeta, st)
			second := b.Statement(bookMeta, st)
			return first.URL == second.URL && first.Method == second.Method
		},
		gen.AlphaString(),
		gen.AnyString(),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}

func mustUnescape(s string) string {
	out, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return out
}

// The Nth positional argument always lands in the Nth path segment
// after the token, whatever bytes it carries.
func TestStatementArgPositions(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	b := newTestBuilder(t)

	properties.Property("args map to path segments in order", prop.ForAll(
		func(v1 string, v2 string) bool {
			st, err := statement.Find(
				filter.Eq("a", v1).AndThen(filter.Diff("b", v2)),
			)
			if err != nil {
				return true
			}
			req := b.Statement(bookMeta, st)

			rest := strings.TrimPrefix(req.URL, "http://localhost:5052/book/statement/")
			segs := strings.Split(rest, "/")
			if len(segs) != 3 {
				return false
			}
			return segs[0] == "findByAAndBDiff" &&
				mustUnescape(segs[1]) == v1 &&
				mustUnescape(segs[2]) == v2
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
