package repo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corraldb/corral/api"
	"github.com/corraldb/corral/filter"
	"github.com/corraldb/corral/rest"
	"github.com/corraldb/corral/statement"
)

// recordingTransport captures every request and plays back canned
// responses.
type recordingTransport struct {
	requests []rest.Request
	respond  func(req rest.Request) *rest.Response
}

func (t *recordingTransport) Submit(_ context.Context, req rest.Request) (*rest.Response, error) {
	t.requests = append(t.requests, req)
	return t.respond(req), nil
}

func newTestRepo(t *testing.T, tr rest.Transport) *Repo[book] {
	t.Helper()
	b, err := rest.NewBuilder("http://backend")
	require.NoError(t, err)
	return New[book](tr, b, rest.Meta{Model: "Book", Key: []string{"id"}})
}

func pageResponse(current, total int, ids ...string) *rest.Response {
	items := make([]string, len(ids))
	for i, id := range ids {
		items[i] = fmt.Sprintf(`{"id":%q}`, id)
	}
	body := fmt.Sprintf(`{"current":%d,"total":%d,"count":%d,"data":[%s]}`,
		current, total, len(ids), strings.Join(items, ","))
	return &rest.Response{Status: 200, Body: []byte(body)}
}

func queryOf(t *testing.T, req rest.Request) url.Values {
	t.Helper()
	u, err := url.Parse(req.URL)
	require.NoError(t, err)
	return u.Query()
}

func TestPagerOffsets(t *testing.T) {
	tr := &recordingTransport{respond: func(req rest.Request) *rest.Response {
		return pageResponse(1, 45, "a", "b", "c")
	}}
	r := newTestRepo(t, tr)

	st, err := statement.Find(filter.BiggerThan("price", "10"))
	require.NoError(t, err)

	pager, err := r.Pages(st, 20)
	require.NoError(t, err)

	_, err = pager.Page(context.Background(), 1)
	require.NoError(t, err)
	_, err = pager.Page(context.Background(), 2)
	require.NoError(t, err)

	require.Len(t, tr.requests, 2)
	first := queryOf(t, tr.requests[0])
	second := queryOf(t, tr.requests[1])

	assert.Equal(t, "20", first.Get("limit"))
	assert.Equal(t, "1", first.Get("offset"))
	assert.Equal(t, "20", second.Get("limit"))
	assert.Equal(t, "21", second.Get("offset"))

	// the find verb pages as the page verb
	assert.Contains(t, tr.requests[0].URL, "/book/statement/pageByPriceBigger/10?")
}

func TestPagerSourceUntouched(t *testing.T) {
	tr := &recordingTransport{respond: func(req rest.Request) *rest.Response {
		return pageResponse(1, 3, "a")
	}}
	r := newTestRepo(t, tr)

	st, err := statement.Find(filter.Eq("name", "x"))
	require.NoError(t, err)

	pager, err := r.Pages(st, 5)
	require.NoError(t, err)
	_, err = pager.Page(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, "findByName", st.Token)
	assert.Empty(t, st.Params)
}

func TestPagerNext(t *testing.T) {
	pages := map[string][]string{
		"1":  {"a", "b"},
		"3":  {"c", "d"},
		"5":  {"e"},
		"7":  {},
		"9":  {},
		"11": {},
	}
	tr := &recordingTransport{}
	tr.respond = func(req rest.Request) *rest.Response {
		q, _ := url.Parse(req.URL)
		n := len(tr.requests)
		return pageResponse(n, 5, pages[q.Query().Get("offset")]...)
	}
	r := newTestRepo(t, tr)

	st, err := statement.Find(nil)
	require.NoError(t, err)

	pager, err := r.Pages(st, 2)
	require.NoError(t, err)

	var got []string
	for {
		items, err := pager.Next(context.Background())
		require.NoError(t, err)
		if len(items) == 0 {
			break
		}
		for _, b := range items {
			got = append(got, b.Id)
		}
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
	assert.Equal(t, 4, pager.Current())
	assert.Equal(t, 5, pager.Total())
	assert.Equal(t, 0, pager.Count())
}

func TestPagerState(t *testing.T) {
	tr := &recordingTransport{respond: func(req rest.Request) *rest.Response {
		return pageResponse(2, 45, "a", "b")
	}}
	r := newTestRepo(t, tr)

	st, err := statement.Find(nil)
	require.NoError(t, err)

	pager, err := r.Pages(st, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, pager.Current())

	_, err = pager.Page(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, pager.Current())
	assert.Equal(t, 45, pager.Total())
	assert.Equal(t, 2, pager.Count())
}

func TestPagerRejectsAggregates(t *testing.T) {
	r := newTestRepo(t, &recordingTransport{})

	st, err := statement.Count("", nil)
	require.NoError(t, err)
	_, err = r.Pages(st, 10)
	assert.True(t, api.IsUnsupported(err))

	grouped, err := statement.Find(nil, statement.GroupBy("category"))
	require.NoError(t, err)
	_, err = r.Pages(grouped, 10)
	assert.True(t, api.IsUnsupported(err))

	flat, err := statement.Find(nil)
	require.NoError(t, err)
	_, err = r.Pages(flat, 0)
	assert.True(t, api.IsPaging(err))

	pager, err := r.Pages(flat, 10)
	require.NoError(t, err)
	_, err = pager.Page(context.Background(), 0)
	assert.True(t, api.IsPaging(err))
}
