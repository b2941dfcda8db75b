package prep

import "sort"

// sortedKeys returns map keys in lexicographic order so that fitted
// artifacts and reports are deterministic across runs.
func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
