// Package repo is the caller-facing repository: typed CRUD and query
// operations against a keyed-resource REST backend. A Repo compiles
// nothing itself; it wires the statement compiler, the request builder
// and a transport together and hydrates the raw results.
package repo

import (
	"context"
	"encoding/json"

	"github.com/corraldb/corral/api"
	"github.com/corraldb/corral/rest"
	"github.com/corraldb/corral/statement"
)

// Repo is a repository over one model type. Independent Repo values
// share no mutable state and are safe for concurrent use.
type Repo[T any] struct {
	meta rest.Meta
	b    *rest.Builder
	tr   rest.Transport
}

// New wires a repository from explicit collaborators.
func New[T any](tr rest.Transport, b *rest.Builder, meta rest.Meta) *Repo[T] {
	return &Repo[T]{meta: meta, b: b, tr: tr}
}

// NewHTTP is the common construction: net/http transport against base.
func NewHTTP[T any](base string, meta rest.Meta) (*Repo[T], error) {
	b, err := rest.NewBuilder(base)
	if err != nil {
		return nil, err
	}
	return New[T](rest.NewHTTPTransport(), b, meta), nil
}

// Meta returns the wire metadata the repository was built with.
func (r *Repo[T]) Meta() rest.Meta { return r.meta }

func (r *Repo[T]) submit(ctx context.Context, req rest.Request, kind OpKind) (any, error) {
	rsp, err := r.tr.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	return parse[T](kind, rsp)
}

func (r *Repo[T]) record(ctx context.Context, req rest.Request, kind OpKind) (*T, error) {
	out, err := r.submit(ctx, req, kind)
	if err != nil {
		return nil, err
	}
	v, err := hydrate[T](out.(json.RawMessage))
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *Repo[T]) records(ctx context.Context, req rest.Request, kind OpKind) ([]T, error) {
	out, err := r.submit(ctx, req, kind)
	if err != nil {
		return nil, err
	}
	return hydrateList[T](out.([]json.RawMessage))
}

func marshal[T any](v *T) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, api.Errorf(api.Serialization, "encoding record: %v", err)
	}
	return body, nil
}

// Create stores a new record under the client-assigned id and returns
// the stored representation.
func (r *Repo[T]) Create(ctx context.Context, id string, v *T) (*T, error) {
	body, err := marshal(v)
	if err != nil {
		return nil, err
	}
	return r.record(ctx, r.b.Create(r.meta, id, body), OpCreate)
}

// Read fetches the record stored under id.
func (r *Repo[T]) Read(ctx context.Context, id string) (*T, error) {
	return r.record(ctx, r.b.Read(r.meta, id), OpRead)
}

// Update replaces the record stored under id.
func (r *Repo[T]) Update(ctx context.Context, id string, v *T) (*T, error) {
	body, err := marshal(v)
	if err != nil {
		return nil, err
	}
	return r.record(ctx, r.b.Update(r.meta, id, body), OpUpdate)
}

// Delete removes the record stored under id and returns the deleted
// representation.
func (r *Repo[T]) Delete(ctx context.Context, id string) (*T, error) {
	return r.record(ctx, r.b.Delete(r.meta, id), OpDelete)
}

// CreateAll stores a batch of records in one request.
func (r *Repo[T]) CreateAll(ctx context.Context, vs []T) ([]T, error) {
	body, err := json.Marshal(vs)
	if err != nil {
		return nil, api.Errorf(api.Serialization, "encoding records: %v", err)
	}
	return r.records(ctx, r.b.BulkCreate(r.meta, body), OpBulkCreate)
}

// ReadAll fetches the records stored under the given ids.
func (r *Repo[T]) ReadAll(ctx context.Context, ids []string) ([]T, error) {
	return r.records(ctx, r.b.BulkRead(r.meta, ids), OpBulkRead)
}

// UpdateAll replaces a batch of records in one request.
func (r *Repo[T]) UpdateAll(ctx context.Context, vs []T) ([]T, error) {
	body, err := json.Marshal(vs)
	if err != nil {
		return nil, api.Errorf(api.Serialization, "encoding records: %v", err)
	}
	return r.records(ctx, r.b.BulkUpdate(r.meta, body), OpBulkUpdate)
}

// DeleteAll removes the records stored under the given ids and returns
// the deleted representations.
func (r *Repo[T]) DeleteAll(ctx context.Context, ids []string) ([]T, error) {
	return r.records(ctx, r.b.BulkDelete(r.meta, ids), OpBulkDelete)
}

// Find runs a compiled find statement and hydrates the result.
func (r *Repo[T]) Find(ctx context.Context, st *statement.Statement) ([]T, error) {
	if st.Kind != statement.KindFind {
		return nil, api.Errorf(api.Query, "Find requires a find statement, got %q", st.Token)
	}
	if st.GroupBy != "" {
		return nil, api.Errorf(api.Query, "grouped statement %q needs Group", st.Token)
	}
	out, err := r.submit(ctx, r.b.Statement(r.meta, st), OpFind)
	if err != nil {
		return nil, err
	}
	return out.([]T), nil
}

// Group runs a grouped find statement. Array values hydrate to []T,
// anything else the backend put under a group key passes through.
func (r *Repo[T]) Group(ctx context.Context, st *statement.Statement) (map[string]any, error) {
	if st.GroupBy == "" {
		return nil, api.Errorf(api.Query, "statement %q has no group clause", st.Token)
	}
	out, err := r.submit(ctx, r.b.Statement(r.meta, st), OpGroup)
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

func (r *Repo[T]) scalar(ctx context.Context, st *statement.Statement, want statement.Kind, name string, kind OpKind) (any, error) {
	if st.Kind != want {
		return nil, api.Errorf(api.Query, "statement %q is not a %s aggregate", st.Token, name)
	}
	return r.submit(ctx, r.b.Statement(r.meta, st), kind)
}

func toFloat(v any) (float64, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, api.Errorf(api.Serialization, "aggregate returned %T, want number", v)
	}
	return f, nil
}

// Count runs a count statement.
func (r *Repo[T]) Count(ctx context.Context, st *statement.Statement) (float64, error) {
	v, err := r.scalar(ctx, st, statement.KindCount, "count", OpCount)
	if err != nil {
		return 0, err
	}
	return toFloat(v)
}

// Max runs a max aggregate. The result keeps the field's wire type.
func (r *Repo[T]) Max(ctx context.Context, st *statement.Statement) (any, error) {
	return r.scalar(ctx, st, statement.KindMax, "max", OpMax)
}

// Min runs a min aggregate. The result keeps the field's wire type.
func (r *Repo[T]) Min(ctx context.Context, st *statement.Statement) (any, error) {
	return r.scalar(ctx, st, statement.KindMin, "min", OpMin)
}

// Avg runs an average aggregate.
func (r *Repo[T]) Avg(ctx context.Context, st *statement.Statement) (float64, error) {
	v, err := r.scalar(ctx, st, statement.KindAvg, "avg", OpAvg)
	if err != nil {
		return 0, err
	}
	return toFloat(v)
}

// Sum runs a sum aggregate.
func (r *Repo[T]) Sum(ctx context.Context, st *statement.Statement) (float64, error) {
	v, err := r.scalar(ctx, st, statement.KindSum, "sum", OpSum)
	if err != nil {
		return 0, err
	}
	return toFloat(v)
}

// Distinct runs a distinct-values statement.
func (r *Repo[T]) Distinct(ctx context.Context, st *statement.Statement) ([]any, error) {
	if st.Kind != statement.KindDistinct {
		return nil, api.Errorf(api.Query, "statement %q is not a distinct query", st.Token)
	}
	out, err := r.submit(ctx, r.b.Statement(r.meta, st), OpDistinct)
	if err != nil {
		return nil, err
	}
	return out.([]any), nil
}
