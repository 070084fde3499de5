package rest

import (
	"strings"
	"unicode"
)

// Meta describes the wire identity of a model type: the resource name
// is derived from the model name, and composite primary keys declare
// their component fields plus the separator used inside id strings.
// The host framework supplies these values; the builder only consumes
// them.
type Meta struct {
	Model        string
	Key          []string
	KeySeparator string
}

// Resource returns the wire resource name: the model name converted
// to lower-hyphenated form ("UserAccount" -> "user-account").
func (m Meta) Resource() string {
	var b strings.Builder
	for i, r := range m.Model {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// KeySegments splits an identifier into its path segments. Composite
// keys split on the declared separator, one segment per component in
// declared order; simple keys stay a single segment.
func (m Meta) KeySegments(id string) []string {
	if len(m.Key) > 1 && m.KeySeparator != "" {
		return strings.Split(id, m.KeySeparator)
	}
	return []string{id}
}

// JoinKey is the inverse of KeySegments, used when an id has to be
// reassembled from record fields.
func (m Meta) JoinKey(parts []string) string {
	if len(m.Key) > 1 && m.KeySeparator != "" {
		return strings.Join(parts, m.KeySeparator)
	}
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}
