package paycode

import "strings"

// Normalize strips everything but letters and digits and uppercases the rest.
func Normalize(identifier string) string {
	var b strings.Builder
	b.Grow(len(identifier))
	for _, r := range strings.ToUpper(identifier) {
		if isCodeRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// HasSuffix reports whether the normalised identifier ends with the normalised suffix.
// An empty suffix never matches.
func HasSuffix(identifier, suffix string) bool {
	suffix = Normalize(suffix)
	return suffix != "" && strings.HasSuffix(Normalize(identifier), suffix)
}

// HasPrefix reports whether the normalised identifier starts with the normalised prefix.
// An empty prefix never matches.
func HasPrefix(identifier, prefix string) bool {
	prefix = Normalize(prefix)
	return prefix != "" && strings.HasPrefix(Normalize(identifier), prefix)
}

// Match is the outcome of scanning a collection for a code segment.
type Match[T any] struct {
	Item  T
	Index int
	// Count is the number of candidates that matched. Count > 1 means the segment
	// collided and Item is the first candidate in input order.
	Count int
}

// Found reports whether at least one candidate matched.
func (m Match[T]) Found() bool { return m.Count > 0 }

// Ambiguous reports whether more than one candidate matched.
func (m Match[T]) Ambiguous() bool { return m.Count > 1 }

// FirstMatch scans items in order and keeps the first one whose key satisfies pred.
func FirstMatch[T any](items []T, key func(T) string, pred func(string) bool) Match[T] {
	result := Match[T]{Index: -1}
	for i, item := range items {
		if !pred(key(item)) {
			continue
		}
		if result.Count == 0 {
			result.Item = item
			result.Index = i
		}
		result.Count++
	}
	return result
}

// BySuffix returns a predicate for FirstMatch matching identifier suffixes.
func BySuffix(suffix string) func(string) bool {
	return func(identifier string) bool { return HasSuffix(identifier, suffix) }
}

// ByPrefix returns a predicate for FirstMatch matching identifier prefixes.
func ByPrefix(prefix string) func(string) bool {
	return func(identifier string) bool { return HasPrefix(identifier, prefix) }
}
