// Package graph is the merge engine: it translates validated extraction
// records into idempotent vertex and edge upserts against a graph store,
// deriving natural keys deterministically and reporting per-record failures
// without rolling back sibling records.
package graph

import (
	"strings"
	"unicode"
)

// SanitizeKey derives a graph document key from a natural identifier.
// Whitespace runs become single underscores ("Jane Doe" -> "Jane_Doe") and
// characters outside ArangoDB's legal key set are dropped. Casing is never
// changed: collection names and key prefixes use one canonical casing
// throughout, and a mismatch is an author error, not something to correct
// here.
func SanitizeKey(natural string) string {
	var b strings.Builder
	b.Grow(len(natural))

	inSpace := false
	for _, r := range strings.TrimSpace(natural) {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace {
			b.WriteByte('_')
			inSpace = false
		}
		if isLegalKeyRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isLegalKeyRune reports whether r may appear in an ArangoDB document key.
func isLegalKeyRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	switch r {
	case '_', '-', ':', '.', '@', '+', '=', '!', '$', '%', '\'', '(', ')', '*', ',', ';':
		return true
	}
	return false
}

// EdgeKey builds the composite natural key for an edge from its endpoint
// keys. Applying it twice to the same endpoints always yields the same key,
// which is what makes edge upserts idempotent. The separator must itself be
// a legal key character or ArangoDB rejects the edge document.
func EdgeKey(sourceKey, targetKey string) string {
	return sourceKey + "=" + targetKey
}

// DocumentID builds the fully qualified "collection/key" handle used in an
// edge's _from and _to fields.
func DocumentID(collection, key string) string {
	return collection + "/" + key
}
