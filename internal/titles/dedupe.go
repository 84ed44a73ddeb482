package titles

// Dedupe drops every entry whose identity was already seen, keeping first occurrences verbatim and
// in their original order. It returns the kept entries and how many were removed.
func (n *Normalizer) Dedupe(entries []string) ([]string, int) {
	return DedupeBy(entries, n.Identity)
}

// DedupeBy is the generic form of [Normalizer.Dedupe]: items are compared by the string id
// returns. len(kept)+removed always equals len(items).
func DedupeBy[T any](items []T, id func(T) string) ([]T, int) {
	seen := make(map[string]struct{}, len(items))
	kept := make([]T, 0, len(items))

	for _, item := range items {
		key := id(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, item)
	}

	return kept, len(items) - len(kept)
}
