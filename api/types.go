// Package api holds the wire types and the error taxonomy shared by
// the repository client and the reference backend.
package api

import "encoding/json"

// Record is a raw wire record, as stored and returned by the backend.
type Record = map[string]any

// Page is the envelope returned for multi-record page responses.
type Page struct {
	Current int               `json:"current"`
	Total   int               `json:"total"`
	Count   int               `json:"count"`
	Data    []json.RawMessage `json:"data"`
}

// ErrorBody is the JSON shape the backend uses for failures.
type ErrorBody struct {
	Error  string `json:"error,omitempty"`
	Status int    `json:"status,omitempty"`
}
