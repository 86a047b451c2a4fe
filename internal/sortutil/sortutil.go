// Package sortutil holds small ordering helpers for deterministic output.
package sortutil

import "sort"

// SortedKeys returns the keys of m in ascending lexicographic order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
