package rest

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/corraldb/corral/statement"
)

const jsonType = "application/json"

// Builder renders requests against one backend base URL.
type Builder struct {
	base string
}

// NewBuilder validates the base URL and returns a builder. The base
// must be absolute; a trailing slash is dropped.
func NewBuilder(base string) (*Builder, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", base, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("base url %q is not absolute", base)
	}
	return &Builder{base: strings.TrimRight(base, "/")}, nil
}

func (b *Builder) path(segments ...string) string {
	var sb strings.Builder
	sb.WriteString(b.base)
	for _, s := range segments {
		sb.WriteByte('/')
		sb.WriteString(url.PathEscape(s))
	}
	return sb.String()
}

// Create renders POST /{resource}/{id...}. The id is client-assigned,
// so create uses the same id segments as read/update/delete.
func (b *Builder) Create(m Meta, id string, body []byte) Request {
	return Request{
		URL:    b.path(append([]string{m.Resource()}, m.KeySegments(id)...)...),
		Method: "POST",
		Body:   body,
		Header: map[string]string{"Content-Type": jsonType},
	}
}

// Read renders GET /{resource}/{id...}.
func (b *Builder) Read(m Meta, id string) Request {
	return Request{
		URL:    b.path(append([]string{m.Resource()}, m.KeySegments(id)...)...),
		Method: "GET",
	}
}

// Update renders PUT /{resource}/{id...}.
func (b *Builder) Update(m Meta, id string, body []byte) Request {
	return Request{
		URL:    b.path(append([]string{m.Resource()}, m.KeySegments(id)...)...),
		Method: "PUT",
		Body:   body,
		Header: map[string]string{"Content-Type": jsonType},
	}
}

// Delete renders DELETE /{resource}/{id...}.
func (b *Builder) Delete(m Meta, id string) Request {
	return Request{
		URL:    b.path(append([]string{m.Resource()}, m.KeySegments(id)...)...),
		Method: "DELETE",
	}
}

// BulkCreate renders POST /{resource}/bulk with a JSON array body.
func (b *Builder) BulkCreate(m Meta, body []byte) Request {
	return Request{
		URL:    b.path(m.Resource(), "bulk"),
		Method: "POST",
		Body:   body,
		Header: map[string]string{"Content-Type": jsonType},
	}
}

// BulkUpdate renders PUT /{resource}/bulk with a JSON array body.
func (b *Builder) BulkUpdate(m Meta, body []byte) Request {
	return Request{
		URL:    b.path(m.Resource(), "bulk"),
		Method: "PUT",
		Body:   body,
		Header: map[string]string{"Content-Type": jsonType},
	}
}

// BulkRead renders GET /{resource}/bulk?ids=... Identifiers travel in
// the query string, not as path segments.
func (b *Builder) BulkRead(m Meta, ids []string) Request {
	return Request{
		URL:    b.path(m.Resource(), "bulk") + "?ids=" + escapeQuery(strings.Join(ids, ",")),
		Method: "GET",
	}
}

// BulkDelete renders DELETE /{resource}/bulk?ids=...
func (b *Builder) BulkDelete(m Meta, ids []string) Request {
	return Request{
		URL:    b.path(m.Resource(), "bulk") + "?ids=" + escapeQuery(strings.Join(ids, ",")),
		Method: "DELETE",
	}
}

// Statement renders GET /{resource}/statement/{token}/{args...} with
// the named parameters appended in insertion order. Positional
// arguments become successive path segments; array values are joined
// with commas before encoding.
func (b *Builder) Statement(m Meta, st *statement.Statement) Request {
	segments := []string{m.Resource(), "statement", st.Token}
	for _, a := range st.Args {
		segments = append(segments, argString(a))
	}

	u := b.path(segments...)
	if len(st.Params) > 0 {
		var q strings.Builder
		for i, p := range st.Params {
			if i > 0 {
				q.WriteByte('&')
			}
			q.WriteString(escapeQuery(p.Key))
			q.WriteByte('=')
			q.WriteString(escapeQuery(p.Value))
		}
		u += "?" + q.String()
	}

	return Request{URL: u, Method: "GET"}
}

// argString renders one positional argument as a path segment value.
func argString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		return strings.Join(t, ",")
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = argString(e)
		}
		return strings.Join(parts, ",")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// escapeQuery percent-encodes a query string component. Spaces encode
// as %20, never +.
func escapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
