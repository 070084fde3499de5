package repo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corraldb/corral/api"
	"github.com/corraldb/corral/rest"
)

type book struct {
	Id    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func ok(body string) *rest.Response {
	return &rest.Response{Status: 200, Body: []byte(body)}
}

func TestParseScalarUnwrapped(t *testing.T) {
	out, err := parse[book](OpCount, ok(`10`))
	require.NoError(t, err)
	assert.Equal(t, float64(10), out)

	out, err = parse[book](OpAvg, ok(`21.5`))
	require.NoError(t, err)
	assert.Equal(t, 21.5, out)

	out, err = parse[book](OpMax, ok(`"zebra"`))
	require.NoError(t, err)
	assert.Equal(t, "zebra", out)
}

func TestParseFindHydrates(t *testing.T) {
	out, err := parse[book](OpFind, ok(`[{"id":"a","name":"Emma","price":9.5},{"id":"b"}]`))
	require.NoError(t, err)

	items := out.([]book)
	require.Len(t, items, 2)
	assert.Equal(t, "Emma", items[0].Name)
	assert.Equal(t, "b", items[1].Id)
}

func TestParsePageEnvelope(t *testing.T) {
	out, err := parse[book](OpPage, ok(`{"current":2,"total":45,"count":2,"data":[{"id":"a"},{"id":"b"}]}`))
	require.NoError(t, err)

	pg := out.(*page[book])
	assert.Equal(t, 2, pg.current)
	assert.Equal(t, 45, pg.total)
	assert.Equal(t, 2, pg.count)
	require.Len(t, pg.items, 2)
	assert.Equal(t, "a", pg.items[0].Id)
}

func TestParseGrouped(t *testing.T) {
	body := `{"Books":[{"id":"a","price":1},{"id":"b","price":2}],"Electronics":[{"id":"c","price":3}],"empty":[]}`
	out, err := parse[book](OpGroup, ok(body))
	require.NoError(t, err)

	groups := out.(map[string]any)
	require.Len(t, groups, 3)

	books := groups["Books"].([]book)
	require.Len(t, books, 2)
	assert.Equal(t, "a", books[0].Id)
	assert.Equal(t, "b", books[1].Id)

	require.Len(t, groups["Electronics"].([]book), 1)
	assert.Empty(t, groups["empty"].([]book))
}

func TestParseGroupedScalarValues(t *testing.T) {
	out, err := parse[book](OpGroup, ok(`{"Books":12,"Electronics":3}`))
	require.NoError(t, err)

	groups := out.(map[string]any)
	assert.Equal(t, float64(12), groups["Books"])
	assert.Equal(t, float64(3), groups["Electronics"])
}

func TestParseDistinct(t *testing.T) {
	out, err := parse[book](OpDistinct, ok(`["Books","Electronics",3]`))
	require.NoError(t, err)
	assert.Equal(t, []any{"Books", "Electronics", float64(3)}, out.([]any))
}

func TestParseUnknownKindPassthrough(t *testing.T) {
	out, err := parse[book](OpUnknown, ok(`{"anything":true}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"anything":true}`, string(out.(json.RawMessage)))
}

func TestParseWireError(t *testing.T) {
	rsp := &rest.Response{Status: 404, Body: []byte(`{"error":"record not found","status":404}`)}
	_, err := parse[book](OpRead, rsp)
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))

	e := err.(*api.Error)
	assert.Equal(t, 404, e.Status)
	assert.Equal(t, "record not found", e.Message)
}

func TestParseEmbeddedErrorBody(t *testing.T) {
	// some backends answer 200 with an error payload
	_, err := parse[book](OpRead, ok(`{"error":"conflict: version out of date","status":409}`))
	require.Error(t, err)
	assert.True(t, api.IsConflict(err))
}

func TestParseErrorClassificationStable(t *testing.T) {
	rsp := &rest.Response{Status: 400, Body: []byte(`{"message":"query error: bad token"}`)}

	_, first := parse[book](OpFind, rsp)
	_, second := parse[book](OpFind, rsp)
	require.Error(t, first)
	assert.Equal(t, first, second)
	assert.True(t, api.IsQuery(first))
}

func TestParseMalformedBody(t *testing.T) {
	_, err := parse[book](OpFind, ok(`{"not":"an array"}`))
	require.Error(t, err)
	assert.Equal(t, api.Serialization, err.(*api.Error).Kind)

	_, err = parse[book](OpPage, ok(`[]`))
	require.Error(t, err)
	assert.Equal(t, api.Serialization, err.(*api.Error).Kind)
}
