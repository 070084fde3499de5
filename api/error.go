package api

import (
	"fmt"
	"strings"
)

// Kind classifies an error into the taxonomy shared by the client and
// the backend.
type Kind int

const (
	NotFound Kind = iota
	Conflict
	Validation
	Query
	Paging
	Unsupported
	Migration
	Observer
	Authorization
	Forbidden
	Connection
	Serialization
	Internal
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case Conflict:
		return "conflict"
	case Validation:
		return "validation"
	case Query:
		return "query"
	case Paging:
		return "paging"
	case Unsupported:
		return "unsupported"
	case Migration:
		return "migration"
	case Observer:
		return "observer"
	case Authorization:
		return "authorization"
	case Forbidden:
		return "forbidden"
	case Connection:
		return "connection"
	case Serialization:
		return "serialization"
	}
	return "internal"
}

// Error is a classified failure. Status is the HTTP status when the
// error came off the wire, 0 for local failures.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Errorf builds a local (non-wire) classified error.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// kindTokens maps recognizable message fragments to kinds. Scanned in
// order, first match wins.
var kindTokens = []struct {
	kind   Kind
	tokens []string
}{
	{NotFound, []string{"not found", "notfound", "no such"}},
	{Conflict, []string{"conflict", "already exists", "out of date"}},
	{Validation, []string{"validation", "bad request", "invalid"}},
	{Query, []string{"query"}},
	{Paging, []string{"paging", "pagination"}},
	{Unsupported, []string{"unsupported", "not supported", "not implemented"}},
	{Migration, []string{"migration"}},
	{Observer, []string{"observer"}},
	{Authorization, []string{"unauthorized", "authorization", "authentication"}},
	{Forbidden, []string{"forbidden", "permission denied"}},
	{Connection, []string{"connection", "connect", "refused", "timeout"}},
	{Serialization, []string{"serializ", "marshal", "decode", "encode"}},
}

var statusKinds = map[int]Kind{
	400: Validation,
	401: Authorization,
	403: Forbidden,
	404: NotFound,
	409: Conflict,
	422: Validation,
}

// Classify turns a wire failure into a typed Error. The message text
// is matched against the taxonomy tokens first; the HTTP status is the
// fallback signal, and anything unrecognized is Internal.
func Classify(status int, message string) *Error {
	lower := strings.ToLower(message)
	for _, e := range kindTokens {
		for _, tok := range e.tokens {
			if strings.Contains(lower, tok) {
				return &Error{Kind: e.kind, Status: status, Message: message}
			}
		}
	}
	if k, ok := statusKinds[status]; ok {
		return &Error{Kind: k, Status: status, Message: message}
	}
	return &Error{Kind: Internal, Status: status, Message: message}
}

func is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

func IsNotFound(err error) bool    { return is(err, NotFound) }
func IsConflict(err error) bool    { return is(err, Conflict) }
func IsValidation(err error) bool  { return is(err, Validation) }
func IsQuery(err error) bool       { return is(err, Query) }
func IsPaging(err error) bool      { return is(err, Paging) }
func IsUnsupported(err error) bool { return is(err, Unsupported) }
