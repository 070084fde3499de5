package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/corraldb/corral/api"
	"github.com/corraldb/corral/statement"
)

func (s *server) handleStatement(c echo.Context) error {
	raw := c.Param("*")
	if raw == "" {
		return fail(c, http.StatusBadRequest, "query error: missing statement token")
	}

	parsed, ok := s.stmts.Get(raw)
	if ok {
		statementParses.WithLabelValues("hit").Inc()
	} else {
		statementParses.WithLabelValues("miss").Inc()
		segs := strings.Split(raw, "/")
		token, err := url.PathUnescape(segs[0])
		if err != nil {
			return fail(c, http.StatusBadRequest, "query error: bad token")
		}
		args := make([]string, 0, len(segs)-1)
		for _, seg := range segs[1:] {
			dec, err := url.PathUnescape(seg)
			if err != nil {
				return fail(c, http.StatusBadRequest, "query error: bad argument")
			}
			args = append(args, dec)
		}

		parsed, err = statement.Parse(token, args)
		if err != nil {
			return fail(c, http.StatusBadRequest, err.Error())
		}
		s.stmts.Set(raw, parsed)
	}

	records := s.store.list(c.Param("resource"))

	if parsed.Cond != nil {
		filtered := records[:0:0]
		for _, rec := range records {
			ok, err := matches(parsed.Cond, rec)
			if err != nil {
				return fail(c, http.StatusBadRequest, err.Error())
			}
			if ok {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	switch parsed.Kind {
	case statement.KindFind, statement.KindPage:
		return s.respondRecords(c, parsed, records)
	case statement.KindCount:
		return c.JSON(http.StatusOK, countField(records, parsed.AggField))
	case statement.KindMax:
		return c.JSON(http.StatusOK, extreme(records, parsed.AggField, 1))
	case statement.KindMin:
		return c.JSON(http.StatusOK, extreme(records, parsed.AggField, -1))
	case statement.KindAvg, statement.KindSum:
		return s.respondNumeric(c, parsed, records)
	case statement.KindDistinct:
		return c.JSON(http.StatusOK, distinct(records, parsed.AggField))
	}
	return fail(c, http.StatusBadRequest, "query error: unexecutable statement")
}

func (s *server) respondRecords(c echo.Context, parsed *statement.Parsed, records []api.Record) error {
	direction := c.QueryParam("direction")
	if direction == "" {
		direction = parsed.Direction
	}
	if len(parsed.OrderBy) > 0 {
		orderRecords(records, parsed.OrderBy, direction == "dsc")
	}

	if parsed.GroupBy != "" {
		groups := make(map[string][]api.Record)
		for _, rec := range records {
			key := valueString(rec[parsed.GroupBy])
			groups[key] = append(groups[key], project(rec, parsed.Select))
		}
		return c.JSON(http.StatusOK, groups)
	}

	total := len(records)

	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fail(c, http.StatusBadRequest, "paging error: bad limit")
		}
		limit = n
	}
	// offset is the 1-based index of the first returned record
	start := 0
	if v := c.QueryParam("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fail(c, http.StatusBadRequest, "paging error: bad offset")
		}
		start = n - 1
	}

	if parsed.Kind == statement.KindPage && (limit == 0 || limit > s.cfg.PageLimit) {
		limit = s.cfg.PageLimit
	}

	if start > len(records) {
		start = len(records)
	}
	records = records[start:]
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	out := make([]api.Record, 0, len(records))
	for _, rec := range records {
		out = append(out, project(rec, parsed.Select))
	}

	if parsed.Kind == statement.KindPage {
		current := 1
		if limit > 0 {
			current = start/limit + 1
		}
		data := make([]json.RawMessage, 0, len(out))
		for _, rec := range out {
			enc, err := json.Marshal(rec)
			if err != nil {
				return fail(c, http.StatusInternalServerError, "serialization error")
			}
			data = append(data, enc)
		}
		return c.JSON(http.StatusOK, api.Page{
			Current: current,
			Total:   total,
			Count:   len(data),
			Data:    data,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *server) respondNumeric(c echo.Context, parsed *statement.Parsed, records []api.Record) error {
	var sum float64
	var n int
	for _, rec := range records {
		v, ok := rec[parsed.AggField]
		if !ok {
			continue
		}
		num, ok := v.(json.Number)
		if !ok {
			return fail(c, http.StatusBadRequest, "validation error: field "+parsed.AggField+" is not numeric")
		}
		f, err := num.Float64()
		if err != nil {
			return fail(c, http.StatusBadRequest, "validation error: field "+parsed.AggField+" is not numeric")
		}
		sum += f
		n++
	}
	if parsed.Kind == statement.KindSum {
		return c.JSON(http.StatusOK, sum)
	}
	if n == 0 {
		return c.JSON(http.StatusOK, 0)
	}
	return c.JSON(http.StatusOK, sum/float64(n))
}

func countField(records []api.Record, field string) int {
	if field == "" {
		return len(records)
	}
	n := 0
	for _, rec := range records {
		if v, ok := rec[field]; ok && v != nil {
			n++
		}
	}
	return n
}

// extreme returns the largest (sign=1) or smallest (sign=-1) value of
// field, nil when no record carries it.
func extreme(records []api.Record, field string, sign int) any {
	var best any
	found := false
	for _, rec := range records {
		v, ok := rec[field]
		if !ok || v == nil {
			continue
		}
		if !found || sign*compareValues(v, best) > 0 {
			best = v
			found = true
		}
	}
	return best
}

func distinct(records []api.Record, field string) []any {
	seen := make(map[string]bool)
	out := []any{}
	for _, rec := range records {
		v, ok := rec[field]
		if !ok {
			continue
		}
		key := valueString(v)
		if !seen[key] {
			seen[key] = true
			out = append(out, v)
		}
	}
	return out
}

func orderRecords(records []api.Record, fields []string, desc bool) {
	sort.SliceStable(records, func(i, j int) bool {
		for _, f := range fields {
			cmp := compareValues(records[i][f], records[j][f])
			if cmp == 0 {
				continue
			}
			if desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// project trims a record to the selected fields; an empty selection
// keeps the record whole.
func project(rec api.Record, fields []string) api.Record {
	if len(fields) == 0 {
		return rec
	}
	out := make(api.Record, len(fields))
	for _, f := range fields {
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}
	return out
}
