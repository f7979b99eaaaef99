// Package normalization maps user supplied names onto enum values.
package normalization

import (
	"slices"
	"strings"
)

// Normalizer maps case-insensitive, whitespace-trimmed names onto values of T.
type Normalizer[T comparable] struct {
	values map[string]T
}

// NewNormalizer creates a normalizer from name->value pairs. Several names may map to the
// same value; the empty name, if present, is what an unset field resolves to.
func NewNormalizer[T comparable](values map[string]T) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	for k, v := range values {
		normalized[clean(k)] = v
	}
	return &Normalizer[T]{values: normalized}
}

// Normalize resolves raw; ok is false when the name is unknown.
func (n *Normalizer[T]) Normalize(raw string) (value T, ok bool) {
	value, ok = n.values[clean(raw)]
	return value, ok
}

// ValidKeys returns the accepted non-empty names, sorted, for error messages.
func (n *Normalizer[T]) ValidKeys() []string {
	keys := make([]string, 0, len(n.values))
	for k := range n.values {
		if k != "" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// Valid is ValidKeys joined for display.
func (n *Normalizer[T]) Valid() string {
	return strings.Join(n.ValidKeys(), ", ")
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
