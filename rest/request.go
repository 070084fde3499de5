// Package rest renders compiled statements and plain CRUD intents into
// concrete HTTP requests, and defines the transport seam used to issue
// them. URL construction is deterministic: equal inputs render to
// byte-identical requests.
package rest

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/corraldb/corral/api"
)

// Request is the concrete HTTP request shape handed to a transport.
type Request struct {
	URL    string
	Method string
	Body   []byte
	Header map[string]string
}

// Response is the raw transport result consumed by the response parser.
type Response struct {
	Status int
	Body   []byte
}

// Transport issues one request and returns the raw response. Retry,
// timeout and cancellation policy live behind this seam; the core
// issues exactly one Submit per compiled request.
type Transport interface {
	Submit(ctx context.Context, req Request) (*Response, error)
}

// HTTPTransport is the net/http-backed transport.
type HTTPTransport struct {
	Client *http.Client
}

// NewHTTPTransport returns a transport over http.DefaultClient.
func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{Client: http.DefaultClient}
}

func (t *HTTPTransport) Submit(ctx context.Context, req Request) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	hreq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, api.Errorf(api.Connection, "building request: %v", err)
	}
	for k, v := range req.Header {
		hreq.Header.Set(k, v)
	}

	hrsp, err := t.Client.Do(hreq)
	if err != nil {
		return nil, api.Errorf(api.Connection, "%v", err)
	}
	defer hrsp.Body.Close()

	raw, err := io.ReadAll(hrsp.Body)
	if err != nil {
		return nil, api.Errorf(api.Connection, "reading response: %v", err)
	}
	return &Response{Status: hrsp.StatusCode, Body: raw}, nil
}
