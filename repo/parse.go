package repo

import (
	"bytes"
	"encoding/json"

	"github.com/corraldb/corral/api"
	"github.com/corraldb/corral/rest"
)

// OpKind identifies which operation a response answers. Parsing
// dispatches over this closed set; anything outside it passes the body
// through untouched.
type OpKind int

const (
	OpCreate OpKind = iota
	OpRead
	OpUpdate
	OpDelete
	OpBulkCreate
	OpBulkRead
	OpBulkUpdate
	OpBulkDelete
	OpFind
	OpPage
	OpCount
	OpMax
	OpMin
	OpAvg
	OpSum
	OpDistinct
	OpGroup
	OpUnknown
)

// page carries a decoded paged envelope with hydrated records.
type page[T any] struct {
	current int
	total   int
	count   int
	items   []T
}

// classify returns nil for success responses and a taxonomy error
// otherwise. Backends sometimes answer 200 with an error payload
// carrying its own status; that shape is classified too.
func classify(rsp *rest.Response) error {
	if rsp.Status < 200 || rsp.Status >= 300 {
		return api.Classify(rsp.Status, errorMessage(rsp.Body))
	}
	if bytes.HasPrefix(bytes.TrimSpace(rsp.Body), []byte("{")) {
		var eb api.ErrorBody
		if err := json.Unmarshal(rsp.Body, &eb); err == nil && eb.Error != "" && eb.Status >= 400 {
			return api.Classify(eb.Status, eb.Error)
		}
	}
	return nil
}

func errorMessage(body []byte) string {
	var msg struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	json.Unmarshal(body, &msg)
	if msg.Message != "" {
		return msg.Message
	}
	if msg.Error != "" {
		return msg.Error
	}
	return string(body)
}

// parse reconstitutes the typed result for one operation kind.
// Singular and bulk CRUD come back raw (the repository hydrates one
// level up), query families hydrate into T, scalars pass through.
func parse[T any](kind OpKind, rsp *rest.Response) (any, error) {
	if err := classify(rsp); err != nil {
		return nil, err
	}

	switch kind {
	case OpCreate, OpRead, OpUpdate, OpDelete:
		return json.RawMessage(rsp.Body), nil

	case OpBulkCreate, OpBulkRead, OpBulkUpdate, OpBulkDelete:
		return decodeList(rsp.Body)

	case OpFind:
		raws, err := decodeList(rsp.Body)
		if err != nil {
			return nil, err
		}
		return hydrateList[T](raws)

	case OpPage:
		var env api.Page
		if err := json.Unmarshal(rsp.Body, &env); err != nil {
			return nil, api.Errorf(api.Serialization, "decoding page envelope: %v", err)
		}
		items, err := hydrateList[T](env.Data)
		if err != nil {
			return nil, err
		}
		return &page[T]{current: env.Current, total: env.Total, count: env.Count, items: items}, nil

	case OpCount, OpMax, OpMin, OpAvg, OpSum:
		var v any
		if err := json.Unmarshal(rsp.Body, &v); err != nil {
			return nil, api.Errorf(api.Serialization, "decoding scalar: %v", err)
		}
		return v, nil

	case OpDistinct:
		var vs []any
		if err := json.Unmarshal(rsp.Body, &vs); err != nil {
			return nil, api.Errorf(api.Serialization, "decoding distinct values: %v", err)
		}
		return vs, nil

	case OpGroup:
		var groups map[string]json.RawMessage
		if err := json.Unmarshal(rsp.Body, &groups); err != nil {
			return nil, api.Errorf(api.Serialization, "decoding grouped response: %v", err)
		}
		out := make(map[string]any, len(groups))
		for k, raw := range groups {
			if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
				items, err := hydrateSlice[T](raw)
				if err != nil {
					return nil, err
				}
				out[k] = items
				continue
			}
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, api.Errorf(api.Serialization, "decoding group %q: %v", k, err)
			}
			out[k] = v
		}
		return out, nil
	}

	// unknown operation kinds pass the raw body through
	return json.RawMessage(rsp.Body), nil
}

func decodeList(body []byte) ([]json.RawMessage, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, api.Errorf(api.Serialization, "decoding record array: %v", err)
	}
	return raws, nil
}

func hydrate[T any](raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, api.Errorf(api.Serialization, "hydrating record: %v", err)
	}
	return v, nil
}

func hydrateList[T any](raws []json.RawMessage) ([]T, error) {
	items := make([]T, 0, len(raws))
	for _, raw := range raws {
		v, err := hydrate[T](raw)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

func hydrateSlice[T any](raw json.RawMessage) ([]T, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, api.Errorf(api.Serialization, "hydrating records: %v", err)
	}
	return items, nil
}
